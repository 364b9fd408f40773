package payrun

import "errors"

var (
	ErrInvalidEntry         = errors.New("invalid timesheet entry")
	ErrInvalidInput         = errors.New("invalid calculation input")
	ErrInvalidPeriod        = errors.New("period end precedes period start")
	ErrPeriodOverlap        = errors.New("a payrun already exists for or overlaps this period")
	ErrNoEligibleTimesheets = errors.New("no unprocessed timesheets found for this date range")
	ErrNoPayableHours       = errors.New("no payable hours found in this range")
	ErrTimesheetConsumed    = errors.New("timesheet was consumed by a concurrent payrun")
	ErrNotFound             = errors.New("payrun not found")
	ErrPayslipNotFound      = errors.New("payslip not found")
)
