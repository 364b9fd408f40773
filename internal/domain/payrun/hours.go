package payrun

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"payroll/internal/domain/timesheet"
)

// standardWeeklyHours is the normal/overtime split threshold. It is applied
// per timesheet regardless of the period length.
const standardWeeklyHours = 38

var (
	sixty           = decimal.NewFromInt(60)
	weeklyThreshold = decimal.NewFromInt(standardWeeklyHours)
)

type Hours struct {
	Normal   decimal.Decimal
	Overtime decimal.Decimal
}

// CalculateHours converts a timesheet's entries into normal and overtime hour
// totals. An entry whose end precedes its start, or whose worked minutes go
// negative after the break deduction, fails with ErrInvalidEntry rather than
// being clamped: it indicates bad input data and must surface.
func CalculateHours(entries []timesheet.Entry) (Hours, error) {
	totalMinutes := 0
	for _, entry := range entries {
		startMins, err := clockMinutes(entry.Start)
		if err != nil {
			return Hours{}, fmt.Errorf("%w: start %q: %v", ErrInvalidEntry, entry.Start, err)
		}
		endMins, err := clockMinutes(entry.End)
		if err != nil {
			return Hours{}, fmt.Errorf("%w: end %q: %v", ErrInvalidEntry, entry.End, err)
		}
		if endMins < startMins {
			return Hours{}, fmt.Errorf("%w: end %s precedes start %s", ErrInvalidEntry, entry.End, entry.Start)
		}
		if entry.UnpaidBreakMins < 0 {
			return Hours{}, fmt.Errorf("%w: negative unpaid break %d", ErrInvalidEntry, entry.UnpaidBreakMins)
		}
		worked := endMins - startMins - entry.UnpaidBreakMins
		if worked < 0 {
			return Hours{}, fmt.Errorf("%w: break %dm exceeds shift %s-%s", ErrInvalidEntry, entry.UnpaidBreakMins, entry.Start, entry.End)
		}
		totalMinutes += worked
	}

	totalHours := decimal.NewFromInt(int64(totalMinutes)).Div(sixty)
	hours := Hours{Normal: totalHours, Overtime: decimal.Zero}
	if totalHours.GreaterThan(weeklyThreshold) {
		hours.Normal = weeklyThreshold
		hours.Overtime = totalHours.Sub(weeklyThreshold)
	}
	return hours, nil
}

// clockMinutes parses an HH:MM wall-clock time into minutes since midnight.
func clockMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("not an HH:MM time")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad hour: %v", err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad minute: %v", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("out of range")
	}
	return hour*60 + minute, nil
}
