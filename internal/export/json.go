package export

import (
	"encoding/json"
	"io"

	"github.com/Egor213/LogDash/internal/domain"
)

// jsonWriter streams an indented JSON array.
type jsonWriter struct {
	w     io.Writer
	count int
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{w: w}
}

func (j *jsonWriter) Write(e domain.LogEvent) error {
	data, err := json.MarshalIndent(e, "  ", "  ")
	if err != nil {
		return err
	}

	sep := ",\n  "
	if j.count == 0 {
		sep = "[\n  "
	}
	if _, err := io.WriteString(j.w, sep); err != nil {
		return err
	}
	if _, err := j.w.Write(data); err != nil {
		return err
	}
	j.count++
	return nil
}

func (j *jsonWriter) Close() error {
	end := "\n]\n"
	if j.count == 0 {
		end = "[]\n"
	}
	_, err := io.WriteString(j.w, end)
	return err
}
