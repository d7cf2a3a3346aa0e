package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FilterCriteria narrows a log query. Zero values mean "no filter", so the
// zero FilterCriteria matches every event of every source.
type FilterCriteria struct {
	Service Service
	IP      string
	// IPExact switches IP from substring to equality matching.
	IPExact bool
	From    time.Time
	To      time.Time
	Keyword string
}

func (c FilterCriteria) HasIP() bool        { return strings.TrimSpace(c.IP) != "" }
func (c FilterCriteria) HasKeyword() bool   { return strings.TrimSpace(c.Keyword) != "" }
func (c FilterCriteria) HasFrom() bool      { return !c.From.IsZero() }
func (c FilterCriteria) HasTo() bool        { return !c.To.IsZero() }
func (c FilterCriteria) HasService() bool   { return c.Service != "" }
func (c FilterCriteria) HasDateRange() bool { return c.HasFrom() || c.HasTo() }

func (c FilterCriteria) IsEmpty() bool {
	return !c.HasService() && !c.HasIP() && !c.HasDateRange() && !c.HasKeyword()
}

// String renders the criteria for logs and error context.
func (c FilterCriteria) String() string {
	var parts []string
	if c.HasService() {
		parts = append(parts, "service="+string(c.Service))
	}
	if c.HasIP() {
		op := "~"
		if c.IPExact {
			op = "="
		}
		parts = append(parts, "ip"+op+strings.TrimSpace(c.IP))
	}
	if c.HasFrom() {
		parts = append(parts, "from="+c.From.UTC().Format(time.RFC3339))
	}
	if c.HasTo() {
		parts = append(parts, "to="+c.To.UTC().Format(time.RFC3339))
	}
	if c.HasKeyword() {
		parts = append(parts, fmt.Sprintf("keyword=%q", strings.TrimSpace(c.Keyword)))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " ")
}

// Page is a 1-based page of results.
type Page struct {
	Number  int
	PerPage int
}

// MaxOffset caps Offset, leaving room to add a page size without overflow.
const MaxOffset = math.MaxInt / 2

func (p Page) Offset() int {
	if p.Number < 1 || p.PerPage <= 0 {
		return 0
	}
	if p.Number-1 > MaxOffset/p.PerPage {
		return MaxOffset
	}
	return (p.Number - 1) * p.PerPage
}
