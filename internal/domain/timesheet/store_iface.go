package timesheet

import (
	"context"
	"time"
)

type StoreAPI interface {
	EmployeeExists(ctx context.Context, employeeID string) (bool, error)
	HasOverlappingPayrun(ctx context.Context, start, end time.Time) (bool, error)
	HasDuplicate(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	Insert(ctx context.Context, sheet *Timesheet) error
	Get(ctx context.Context, id string) (Timesheet, error)
	Update(ctx context.Context, sheet *Timesheet) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit, offset int) ([]Timesheet, error)
}
