package payrun

import (
	"time"

	"github.com/shopspring/decimal"

	"payroll/internal/domain/employee"
	"payroll/internal/domain/timesheet"
)

// Payrun is one committed payroll batch for a non-overlapping period. It
// exclusively owns its payslips; timesheets keep only a weak back-reference.
type Payrun struct {
	ID           string          `json:"id"`
	PeriodStart  time.Time       `json:"periodStart"`
	PeriodEnd    time.Time       `json:"periodEnd"`
	TotalGross   decimal.Decimal `json:"totalGross"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	TotalSuper   decimal.Decimal `json:"totalSuper"`
	TotalNet     decimal.Decimal `json:"totalNet"`
	TimesheetIDs []string        `json:"timesheetIds"`
	Payslips     []Payslip       `json:"payslips"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Payslip is one employee's computed result within a payrun. After the commit
// only PaymentStatus, TransferID and DocumentURL may change.
type Payslip struct {
	ID            string          `json:"id"`
	PayrunID      string          `json:"payrunId"`
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName,omitempty"`
	NormalHours   decimal.Decimal `json:"normalHours"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
	Gross         decimal.Decimal `json:"gross"`
	Tax           decimal.Decimal `json:"tax"`
	Super         decimal.Decimal `json:"super"`
	Net           decimal.Decimal `json:"net"`
	PaymentStatus string          `json:"paymentStatus"`
	TransferID    string          `json:"transferId,omitempty"`
	DocumentURL   string          `json:"documentUrl,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// EligibleTimesheet is an unprocessed timesheet joined with the pay data of
// its employee, as fetched for one generation run.
type EligibleTimesheet struct {
	TimesheetID string
	Allowances  decimal.Decimal
	Entries     []timesheet.Entry
	Employee    employee.Employee
}

// DisbursementOutcome records what happened to one payslip's transfer during
// a generation run. Failed and skipped payslips stay PENDING.
type DisbursementOutcome struct {
	PayslipID  string `json:"payslipId"`
	EmployeeID string `json:"employeeId"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// RetryablePayslip is a committed, still-pending payslip with a configured
// payment destination, picked up by the disbursement retry job.
type RetryablePayslip struct {
	PayslipID    string
	EmployeeID   string
	EmployeeName string
	Net          decimal.Decimal
	Destination  string
	PeriodStart  time.Time
	PeriodEnd    time.Time
}
