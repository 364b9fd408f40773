package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusUnprocessed = "UNPROCESSED"
	StatusProcessed   = "PROCESSED"
)

// Entry is one reported shift. Start and End are wall-clock times in HH:MM.
type Entry struct {
	ID              string    `json:"id,omitempty"`
	Date            time.Time `json:"date"`
	Start           string    `json:"start"`
	End             string    `json:"end"`
	UnpaidBreakMins int       `json:"unpaidBreakMins"`
}

// Timesheet is one employee's reported hours for one inclusive period. It is
// consumed by at most one payrun; once processed it is immutable and carries
// the consuming payrun's id.
type Timesheet struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employeeId"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	Allowances  decimal.Decimal `json:"allowances"`
	Status      string          `json:"status"`
	PayrunID    string          `json:"payrunId,omitempty"`
	Entries     []Entry         `json:"entries"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
