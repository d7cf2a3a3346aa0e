package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Dimension is the grouping key of a report.
type Dimension string

const (
	DimensionIP     Dimension = "ip"
	DimensionStatus Dimension = "status"
	DimensionHour   Dimension = "hour"
	DimensionDay    Dimension = "day"
	DimensionSource Dimension = "source"
)

var Dimensions = []Dimension{DimensionIP, DimensionStatus, DimensionHour, DimensionDay, DimensionSource}

var ErrUnknownDimension = fmt.Errorf("unknown dimension")

func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Dimensions, d) {
		return "", fmt.Errorf("%w %q", ErrUnknownDimension, s)
	}
	return d, nil
}

type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// ReportSummary holds counts per dimension value. Buckets are ordered by
// count, highest first, with ties in the dimension's natural order.
type ReportSummary struct {
	Dimension Dimension `json:"dimension"`
	Total     int       `json:"total"`
	Buckets   []Bucket  `json:"buckets"`
}

// Top returns at most n buckets. n <= 0 returns all of them.
func (r ReportSummary) Top(n int) []Bucket {
	if n <= 0 || n >= len(r.Buckets) {
		return slices.Clone(r.Buckets)
	}
	return slices.Clone(r.Buckets[:n])
}

func (r ReportSummary) Distinct() int {
	return len(r.Buckets)
}

// DailyAccess is one day of the access log report.
type DailyAccess struct {
	Day       time.Time `json:"day"`
	Requests  int       `json:"requests"`
	UniqueIPs int       `json:"unique_ips"`
	Errors    int       `json:"errors"`
}
