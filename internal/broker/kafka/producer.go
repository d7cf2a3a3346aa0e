package kafkabroker

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

const defaultBatchTimeout = 50 * time.Millisecond

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// Producer publishes report documents to one topic.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(cfg ProducerConfig) *Producer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{
		writer: w,
		topic:  cfg.Topic,
	}
}

func (p *Producer) SendMessage(ctx context.Context, value []byte) error {
	msg := kafka.Message{
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.WithField("topic", p.topic).WithError(err).Error("Failed to publish report")
		return err
	}
	log.WithFields(log.Fields{
		"topic": p.topic,
		"bytes": len(value),
	}).Debug("Report published")
	return nil
}

func (p *Producer) Close() error {
	log.WithField("topic", p.topic).Info("Closing Kafka producer...")
	return p.writer.Close()
}
