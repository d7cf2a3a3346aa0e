package export

import (
	"encoding/csv"
	"io"

	"github.com/Egor213/LogDash/internal/domain"
)

type csvWriter struct {
	w *csv.Writer
}

func newCSVWriter(w io.Writer) (*csvWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	return &csvWriter{w: cw}, nil
}

func (c *csvWriter) Write(e domain.LogEvent) error {
	return c.w.Write(record(e))
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}
