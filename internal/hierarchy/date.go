package hierarchy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// Date is a calendar day with no time zone attached.
//
// Day arithmetic is done on the proleptic Gregorian calendar, so a day is
// always one day regardless of DST transitions in the zone the date was
// taken from.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day t falls on in loc.
// A nil loc means time.Local.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}

	y, m, d := t.In(loc).Date()

	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses "YYYY-MM-DD". A full RFC 3339 timestamp is also accepted
// and truncated to its date part as written.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339Nano, s)
		if tsErr != nil {
			return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
		}

		t = ts
	}

	y, m, d := t.Date()

	return Date{Year: y, Month: m, Day: d}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Midnight returns the start of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}

	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// DaysSince returns the number of whole calendar days from earlier to d.
// The result is negative when earlier is after d.
func (d Date) DaysSince(earlier Date) int {
	return d.dayNumber() - earlier.dayNumber()
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)

	return DateOf(t, time.UTC)
}

func (d Date) dayNumber() int {
	const secondsPerDay = 24 * 60 * 60

	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)

	return int(t.Unix() / secondsPerDay)
}

// MarshalJSON encodes d as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or an RFC 3339 timestamp. An empty
// string decodes to the zero Date, which [Decode] turns into no date.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string

	err := json.Unmarshal(data, &s)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	if strings.TrimSpace(s) == "" {
		*d = Date{}

		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// MarshalYAML encodes d as "YYYY-MM-DD".
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func sameDate(a, b *Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

// dropZeroDate clears a date decoded from "".
func dropZeroDate(d **Date) {
	if *d != nil && (*d).IsZero() {
		*d = nil
	}
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}

	c := *d

	return &c
}
