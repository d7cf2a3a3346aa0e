package validators

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Egor213/LogDash/internal/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

var (
	ErrInvalidService = errors.New("invalid service")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvertedRange  = errors.New("start date is after end date")
)

// RawCriteria is the filter input as operators type it.
type RawCriteria struct {
	Service string
	IP      string
	ExactIP bool
	From    string
	To      string
	Keyword string
}

func ParseService(s string) (domain.Service, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return "", nil
	case string(domain.ServiceApache):
		return domain.ServiceApache, nil
	case string(domain.ServiceFTP):
		return domain.ServiceFTP, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidService, s)
}

// ParseTime accepts YYYY-MM-DD, YYYY-MM-DDTHH:MM and RFC 3339. Bounds without
// a time part are widened to the end of their day or minute when end is set,
// so that the range stays inclusive.
func ParseTime(s string, end bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dateTimeLayout, s, time.UTC); err == nil {
		if end {
			t = t.Add(time.Minute - time.Nanosecond)
		}
		return t, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		if end {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
}

func Criteria(raw RawCriteria) (domain.FilterCriteria, error) {
	svc, err := ParseService(raw.Service)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	from, err := ParseTime(raw.From, false)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	to, err := ParseTime(raw.To, true)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return domain.FilterCriteria{}, ErrInvertedRange
	}

	return domain.FilterCriteria{
		Service: svc,
		IP:      strings.TrimSpace(raw.IP),
		IPExact: raw.ExactIP,
		From:    from,
		To:      to,
		Keyword: strings.TrimSpace(raw.Keyword),
	}, nil
}

// Page fills in defaults and caps per-page at max.
func Page(number, perPage, defaultPerPage, max int) domain.Page {
	if number < 1 {
		number = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if max > 0 && perPage > max {
		perPage = max
	}
	return domain.Page{Number: number, PerPage: perPage}
}
