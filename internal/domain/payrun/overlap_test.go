package payrun

import (
	"errors"
	"testing"
	"time"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestPeriodOverlaps(t *testing.T) {
	base := Period{Start: day("2024-03-01"), End: day("2024-03-14")}

	cases := []struct {
		name  string
		other Period
		want  bool
	}{
		{"identical", Period{day("2024-03-01"), day("2024-03-14")}, true},
		{"contained", Period{day("2024-03-05"), day("2024-03-10")}, true},
		{"containing", Period{day("2024-02-01"), day("2024-04-01")}, true},
		{"overlap left", Period{day("2024-02-20"), day("2024-03-01")}, true},
		{"overlap right", Period{day("2024-03-14"), day("2024-03-28")}, true},
		{"shared boundary only", Period{day("2024-03-14"), day("2024-03-14")}, true},
		{"adjacent before", Period{day("2024-02-15"), day("2024-02-29")}, false},
		{"adjacent after", Period{day("2024-03-15"), day("2024-03-28")}, false},
	}
	for _, tc := range cases {
		if got := base.Overlaps(tc.other); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestPeriodOverlapsAcrossTimezones(t *testing.T) {
	// Candidate periods arrive parsed in the payroll timezone while committed
	// periods scan from DATE columns at UTC midnight. Only the calendar dates
	// may decide overlap.
	aedt := time.FixedZone("AEDT", 11*3600)
	committed := Period{Start: day("2024-03-14"), End: day("2024-03-27")}
	candidate := Period{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, aedt),
		End:   time.Date(2024, 3, 14, 0, 0, 0, 0, aedt),
	}

	if !candidate.Overlaps(committed) {
		t.Fatal("shared boundary date must overlap regardless of zone")
	}
	err := CheckNoOverlap(candidate, []Period{committed})
	if !errors.Is(err, ErrPeriodOverlap) {
		t.Fatalf("expected ErrPeriodOverlap, got %v", err)
	}

	clear := Period{
		Start: time.Date(2024, 2, 29, 0, 0, 0, 0, aedt),
		End:   time.Date(2024, 3, 13, 0, 0, 0, 0, aedt),
	}
	if err := CheckNoOverlap(clear, []Period{committed}); err != nil {
		t.Fatalf("adjacent period must pass, got %v", err)
	}
}

func TestCheckNoOverlap(t *testing.T) {
	committed := []Period{
		{day("2024-01-01"), day("2024-01-14")},
		{day("2024-02-01"), day("2024-02-14")},
	}

	if err := CheckNoOverlap(Period{day("2024-01-15"), day("2024-01-28")}, committed); err != nil {
		t.Fatalf("expected gap period to pass, got %v", err)
	}

	err := CheckNoOverlap(Period{day("2024-02-14"), day("2024-02-28")}, committed)
	if !errors.Is(err, ErrPeriodOverlap) {
		t.Fatalf("expected ErrPeriodOverlap, got %v", err)
	}
}
