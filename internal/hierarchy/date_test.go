package hierarchy

import (
	"testing"
	"time"
)

func Test_DaysSince_Counts_Calendar_Days_When_Dates_Differ(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Date
		want     int
	}{
		{Date{2026, 3, 10}, Date{2026, 3, 10}, 0},
		{Date{2026, 3, 10}, Date{2026, 3, 11}, 1},
		{Date{2026, 2, 28}, Date{2026, 3, 1}, 1},
		{Date{2028, 2, 28}, Date{2028, 3, 1}, 2},
		{Date{2025, 12, 31}, Date{2026, 1, 1}, 1},
		{Date{1970, 1, 1}, Date{2026, 1, 1}, 20454},
		{Date{2026, 3, 11}, Date{2026, 3, 10}, -1},
	}

	for _, tc := range tests {
		if got := tc.to.DaysSince(tc.from); got != tc.want {
			t.Errorf("%s.DaysSince(%s)=%d, want=%d", tc.to, tc.from, got, tc.want)
		}
	}
}

func Test_DateOf_Counts_One_Day_When_Day_Is_Shorter_Than_24h(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2026-03-08 is 23 hours long in New York.
	before := time.Date(2026, 3, 8, 0, 30, 0, 0, ny)
	after := time.Date(2026, 3, 9, 0, 15, 0, 0, ny)

	if elapsed := after.Sub(before); elapsed >= 24*time.Hour {
		t.Fatalf("elapsed=%v, want under 24h", elapsed)
	}

	if got, want := DateOf(after, ny).DaysSince(DateOf(before, ny)), 1; got != want {
		t.Errorf("days=%d, want=%d", got, want)
	}
}

func Test_ParseDate_Accepts_Date_Or_Timestamp_When_Parsing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2026-04-01", want: Date{2026, 4, 1}},
		{in: "2026-04-01T23:00:00Z", want: Date{2026, 4, 1}},
		{in: "2026-04-01T23:00:00+09:00", want: Date{2026, 4, 1}},
		{in: "04/01/2026", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseDate(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseDate(%q) err=%v, wantErr=%v", tc.in, err, tc.wantErr)

			continue
		}

		if got != tc.want {
			t.Errorf("ParseDate(%q)=%v, want=%v", tc.in, got, tc.want)
		}
	}
}

func Test_AddDays_And_Midnight_Roll_Over_Year_When_On_Dec_31(t *testing.T) {
	t.Parallel()

	d := Date{2026, 12, 31}

	if got, want := d.AddDays(1), (Date{2027, 1, 1}); got != want {
		t.Errorf("AddDays(1)=%v, want=%v", got, want)
	}

	if got, want := d.String(), "2026-12-31"; got != want {
		t.Errorf("String()=%q, want=%q", got, want)
	}

	m := d.Midnight(time.UTC)
	if !m.Equal(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Midnight=%v", m)
	}
}
