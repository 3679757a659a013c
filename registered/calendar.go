package registered

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (all engine dates are dates, not times)
// =============================================================================

type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }

func (d Date) AddYears(n int) Date { return Date{t: d.t.AddDate(n, 0, 0)} }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// InOrBeforeMonth reports whether d falls within (year, month) or any
// earlier month. This is the month-end cutoff used by the penalty walks:
// it matches comparing the ISO date string against "YYYY-MM-31", which is
// a valid upper bound because no month has more than 31 days.
func (d Date) InOrBeforeMonth(year int, month time.Month) bool {
	if d.Year() != year {
		return d.Year() < year
	}
	return d.Month() <= month
}
