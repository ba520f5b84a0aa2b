package validate

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted occurrence-date format.
const DateLayout = "2006-01-02"

// MissingSentinel marks an absent value in the source dataset.
const MissingSentinel = "NA"

// Date is a calendar date without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD date. Empty input, the NA sentinel and any
// other layout are rejected.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == MissingSentinel {
		return Date{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

// DateOf returns the calendar date of t.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return o.Before(d)
}

// DaysUntil returns the whole number of days from d to o. Both are UTC
// midnights, so the Unix difference is an exact multiple of a day.
func (d Date) DaysUntil(o Date) int {
	return int((o.Time().Unix() - d.Time().Unix()) / 86400)
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
