package payrun

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListCommittedPeriods(ctx context.Context) ([]Period, error)
	ListEligibleTimesheets(ctx context.Context, start, end time.Time) ([]EligibleTimesheet, error)

	// CommitPayrun persists the payrun with its payslips and marks the
	// consumed timesheets processed, all in one serializable transaction.
	// Overlap with a committed payrun surfaces as ErrPeriodOverlap, a
	// timesheet consumed by a concurrent run as ErrTimesheetConsumed.
	CommitPayrun(ctx context.Context, run *Payrun, timesheetIDs []string) error

	MarkPayslipPaid(ctx context.Context, payslipID, transferID string) error
	SetPayslipDocument(ctx context.Context, payslipID, documentURL string) error

	CountPayruns(ctx context.Context) (int, error)
	ListPayruns(ctx context.Context, limit, offset int) ([]Payrun, error)
	GetPayrun(ctx context.Context, id string) (Payrun, error)
	GetPayslip(ctx context.Context, id string) (Payslip, error)
	ListRetryablePayslips(ctx context.Context) ([]RetryablePayslip, error)
}
