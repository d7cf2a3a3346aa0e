package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/fatih/color"
)

const maxDetail = 60

// tableWriter aligns columns, so it buffers until Close.
type tableWriter struct {
	out    io.Writer
	buf    bytes.Buffer
	tw     *tabwriter.Writer
	failed []bool
}

func newTableWriter(w io.Writer) *tableWriter {
	t := &tableWriter{out: w}
	t.tw = tabwriter.NewWriter(&t.buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(t.tw, strings.Join(upper(header), "\t"))
	return t
}

func (t *tableWriter) Write(e domain.LogEvent) error {
	rec := record(e)
	if d := []rune(rec[len(rec)-1]); len(d) > maxDetail {
		rec[len(rec)-1] = string(d[:maxDetail-3]) + "..."
	}
	t.failed = append(t.failed, isFailure(e))
	_, err := fmt.Fprintln(t.tw, strings.Join(rec, "\t"))
	return err
}

func (t *tableWriter) Close() error {
	if err := t.tw.Flush(); err != nil {
		return err
	}

	headerColor := color.New(color.Bold, color.FgCyan)
	failColor := color.New(color.FgRed)

	sc := bufio.NewScanner(&t.buf)
	line := -1
	for sc.Scan() {
		text := strings.TrimRight(sc.Text(), " ")
		var err error
		switch {
		case line < 0:
			_, err = headerColor.Fprintln(t.out, text)
		case line < len(t.failed) && t.failed[line]:
			_, err = failColor.Fprintln(t.out, text)
		default:
			_, err = fmt.Fprintln(t.out, text)
		}
		if err != nil {
			return err
		}
		line++
	}
	if err := sc.Err(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(t.out, "%d events\n", len(t.failed))
	return err
}

func upper(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToUpper(c)
	}
	return out
}

// isFailure marks 4xx/5xx responses, error levels and failed FTP replies.
func isFailure(e domain.LogEvent) bool {
	status := strings.ToLower(e.Status())
	if code, err := strconv.Atoi(status); err == nil {
		return code >= 400
	}
	switch status {
	case "error", "crit", "alert", "emerg", "fail", "failed":
		return true
	}
	return false
}
