package report

import (
	"cmp"
	"iter"
	"net/netip"
	"slices"
	"strconv"

	"github.com/Egor213/LogDash/internal/domain"
)

const (
	MissingKey = "-"

	hourLayout = "2006-01-02T15:00Z"
	dayLayout  = "2006-01-02"
)

// Accumulator counts events per dimension value in a single pass.
type Accumulator struct {
	dim    domain.Dimension
	key    func(domain.LogEvent) string
	counts map[string]int
	total  int
}

func NewAccumulator(dim domain.Dimension) (*Accumulator, error) {
	key, err := keyFunc(dim)
	if err != nil {
		return nil, err
	}
	return &Accumulator{
		dim:    dim,
		key:    key,
		counts: make(map[string]int),
	}, nil
}

func (a *Accumulator) Add(e domain.LogEvent) {
	k := a.key(e)
	if k == "" {
		k = MissingKey
	}
	a.counts[k]++
	a.total++
}

func (a *Accumulator) Summary() domain.ReportSummary {
	buckets := make([]domain.Bucket, 0, len(a.counts))
	for k, c := range a.counts {
		buckets = append(buckets, domain.Bucket{Key: k, Count: c})
	}

	natural := Compare(a.dim)
	slices.SortFunc(buckets, func(x, y domain.Bucket) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return natural(x.Key, y.Key)
	})

	return domain.ReportSummary{
		Dimension: a.dim,
		Total:     a.total,
		Buckets:   buckets,
	}
}

func Summarize(events iter.Seq[domain.LogEvent], dim domain.Dimension) (domain.ReportSummary, error) {
	acc, err := NewAccumulator(dim)
	if err != nil {
		return domain.ReportSummary{}, err
	}
	for e := range events {
		acc.Add(e)
	}
	return acc.Summary(), nil
}

func SummarizeSlice(events []domain.LogEvent, dim domain.Dimension) (domain.ReportSummary, error) {
	return Summarize(slices.Values(events), dim)
}

// ByKey returns the buckets in the dimension's natural order, which is
// chronological for time buckets.
func ByKey(s domain.ReportSummary) []domain.Bucket {
	buckets := slices.Clone(s.Buckets)
	natural := Compare(s.Dimension)
	slices.SortFunc(buckets, func(x, y domain.Bucket) int {
		return natural(x.Key, y.Key)
	})
	return buckets
}

func keyFunc(dim domain.Dimension) (func(domain.LogEvent) string, error) {
	switch dim {
	case domain.DimensionIP:
		return domain.LogEvent.ClientIP, nil
	case domain.DimensionStatus:
		return domain.LogEvent.Status, nil
	case domain.DimensionSource:
		return func(e domain.LogEvent) string { return string(e.Source()) }, nil
	case domain.DimensionHour:
		return func(e domain.LogEvent) string { return e.Timestamp().UTC().Format(hourLayout) }, nil
	case domain.DimensionDay:
		return func(e domain.LogEvent) string { return e.Timestamp().UTC().Format(dayLayout) }, nil
	}
	return nil, domain.ErrUnknownDimension
}

// Compare returns the natural ordering of keys of dim. The missing key
// always sorts last.
func Compare(dim domain.Dimension) func(a, b string) int {
	var natural func(a, b string) int
	switch dim {
	case domain.DimensionIP:
		natural = compareIP
	case domain.DimensionStatus:
		natural = compareStatus
	default:
		// fixed-width UTC layouts sort chronologically as strings
		natural = cmp.Compare[string]
	}

	return func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == MissingKey:
			return 1
		case b == MissingKey:
			return -1
		}
		return natural(a, b)
	}
}

func compareIP(a, b string) int {
	x, errX := netip.ParseAddr(a)
	y, errY := netip.ParseAddr(b)
	switch {
	case errX == nil && errY == nil:
		if c := x.Compare(y); c != 0 {
			return c
		}
	case errX == nil:
		return -1
	case errY == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

func compareStatus(a, b string) int {
	x, errX := strconv.Atoi(a)
	y, errY := strconv.Atoi(b)
	switch {
	case errX == nil && errY == nil:
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	case errX == nil:
		return -1
	case errY == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
