package payrun

import (
	"fmt"
	"time"
)

// Period is a closed date interval: both boundary dates belong to it.
type Period struct {
	Start time.Time
	End   time.Time
}

// Overlaps compares calendar dates, not instants, so a candidate parsed in
// the payroll timezone matches a committed period scanned from a DATE column
// in UTC. This keeps the pre-check aligned with the database exclusion
// constraint, which also operates on plain dates.
func (p Period) Overlaps(other Period) bool {
	pStart, pEnd := dateOnly(p.Start), dateOnly(p.End)
	oStart, oEnd := dateOnly(other.Start), dateOnly(other.End)
	return !oStart.After(pEnd) && !oEnd.Before(pStart)
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (p Period) String() string {
	return p.Start.Format("2006-01-02") + " - " + p.End.Format("2006-01-02")
}

// CheckNoOverlap rejects a candidate period that intersects any committed
// payrun period, boundary dates included. This in-process check runs before
// the commit; the database exclusion constraint enforces the same invariant
// against concurrent generation.
func CheckNoOverlap(candidate Period, committed []Period) error {
	for _, existing := range committed {
		if candidate.Overlaps(existing) {
			return fmt.Errorf("%w: %s intersects %s", ErrPeriodOverlap, candidate, existing)
		}
	}
	return nil
}
