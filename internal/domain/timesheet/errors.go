package timesheet

import "errors"

var (
	ErrNotFound           = errors.New("timesheet not found")
	ErrEmployeeNotFound   = errors.New("timesheet employee not found")
	ErrDuplicate          = errors.New("timesheet already exists for this employee and period")
	ErrNoEntries          = errors.New("timesheet requires at least one entry")
	ErrEntryOutsidePeriod = errors.New("entry date falls outside the timesheet period")
	ErrInvalidPeriod      = errors.New("period end precedes period start")
	ErrPeriodLocked       = errors.New("a payrun has already processed this period")
	ErrProcessed          = errors.New("timesheet has been processed and is immutable")
)
