package logginghelper

import (
	"time"

	"github.com/Egor213/LogDash/internal/domain"
	log "github.com/sirupsen/logrus"
)

func LogRequest(requestID, operation string, c domain.FilterCriteria, sources []domain.Source) {
	log.WithFields(log.Fields{
		"request_id": requestID,
		"operation":  operation,
		"criteria":   c.String(),
		"sources":    sources,
	}).Info("Request started")
}

func LogDone(requestID, operation string, events int, skipped map[domain.Source]int, elapsed time.Duration) {
	entry := log.WithFields(log.Fields{
		"request_id": requestID,
		"operation":  operation,
		"events":     events,
		"elapsed":    elapsed.String(),
	})
	if len(skipped) > 0 {
		entry = entry.WithField("skipped", skipped)
	}
	entry.Info("Request finished")
}

func LogError(requestID, operation string, err error) {
	log.WithFields(log.Fields{
		"request_id": requestID,
		"operation":  operation,
		"error":      err,
	}).Error("Request failed")
}
