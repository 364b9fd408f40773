package payrun

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"payroll/internal/domain/employee"
	"payroll/internal/domain/timesheet"
)

const (
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListCommittedPeriods(ctx context.Context) ([]Period, error) {
	rows, err := s.DB.Query(ctx, "SELECT period_start, period_end FROM payruns")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.Start, &p.End); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *Store) ListEligibleTimesheets(ctx context.Context, start, end time.Time) ([]EligibleTimesheet, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.id, t.allowances,
           e.id, e.first_name, e.last_name, e.base_hourly_rate, e.super_rate,
           COALESCE(e.stripe_account_id, '')
    FROM timesheets t
    JOIN employees e ON t.employee_id = e.id
    WHERE t.status = $1
      AND t.period_start >= $2
      AND t.period_end <= $3
      AND e.deleted = false
    ORDER BY t.created_at, t.id
  `, timesheet.StatusUnprocessed, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []EligibleTimesheet
	var ids []string
	for rows.Next() {
		var sheet EligibleTimesheet
		var emp employee.Employee
		if err := rows.Scan(&sheet.TimesheetID, &sheet.Allowances, &emp.ID, &emp.FirstName, &emp.LastName, &emp.BaseHourlyRate, &emp.SuperRate, &emp.StripeAccountID); err != nil {
			return nil, err
		}
		sheet.Employee = emp
		sheets = append(sheets, sheet)
		ids = append(ids, sheet.TimesheetID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return sheets, nil
	}
	entryRows, err := s.DB.Query(ctx, `
    SELECT timesheet_id, work_date, start_time, end_time, unpaid_break_mins
    FROM timesheet_entries
    WHERE timesheet_id = ANY($1)
    ORDER BY timesheet_id, position
  `, ids)
	if err != nil {
		return nil, err
	}
	defer entryRows.Close()

	entriesBySheet := make(map[string][]timesheet.Entry, len(ids))
	for entryRows.Next() {
		var sheetID string
		var entry timesheet.Entry
		if err := entryRows.Scan(&sheetID, &entry.Date, &entry.Start, &entry.End, &entry.UnpaidBreakMins); err != nil {
			return nil, err
		}
		entriesBySheet[sheetID] = append(entriesBySheet[sheetID], entry)
	}
	if err := entryRows.Err(); err != nil {
		return nil, err
	}
	for i := range sheets {
		sheets[i].Entries = entriesBySheet[sheets[i].TimesheetID]
	}
	return sheets, nil
}

// CommitPayrun is the batch's sole all-or-nothing boundary. The serializable
// transaction plus the payruns period exclusion constraint guarantee that two
// concurrent generations for overlapping periods cannot both commit, and the
// guarded timesheet update aborts if a concurrent run consumed a timesheet
// first.
func (s *Store) CommitPayrun(ctx context.Context, run *Payrun, timesheetIDs []string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
    INSERT INTO payruns (id, period_start, period_end, total_gross, total_tax, total_super, total_net)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING created_at
  `, run.ID, run.PeriodStart, run.PeriodEnd, run.TotalGross, run.TotalTax, run.TotalSuper, run.TotalNet).Scan(&run.CreatedAt); err != nil {
		return mapCommitError(err)
	}

	for i := range run.Payslips {
		slip := &run.Payslips[i]
		if err := tx.QueryRow(ctx, `
      INSERT INTO payslips (id, payrun_id, employee_id, normal_hours, overtime_hours, gross, tax, super, net, payment_status, position)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      RETURNING created_at
    `, slip.ID, run.ID, slip.EmployeeID, slip.NormalHours, slip.OvertimeHours, slip.Gross, slip.Tax, slip.Super, slip.Net, slip.PaymentStatus, i).Scan(&slip.CreatedAt); err != nil {
			return mapCommitError(err)
		}
	}

	tag, err := tx.Exec(ctx, `
    UPDATE timesheets
    SET status = $1, payrun_id = $2, updated_at = now()
    WHERE id = ANY($3) AND status = $4
  `, timesheet.StatusProcessed, run.ID, timesheetIDs, timesheet.StatusUnprocessed)
	if err != nil {
		return mapCommitError(err)
	}
	if int(tag.RowsAffected()) != len(timesheetIDs) {
		return ErrTimesheetConsumed
	}

	if err := tx.Commit(ctx); err != nil {
		return mapCommitError(err)
	}
	return nil
}

func mapCommitError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation, pgSerializationFailure:
			return ErrPeriodOverlap
		}
	}
	return err
}

func (s *Store) MarkPayslipPaid(ctx context.Context, payslipID, transferID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payslips SET payment_status = $1, transfer_id = $2 WHERE id = $3
  `, PaymentStatusPaid, transferID, payslipID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPayslipNotFound
	}
	return nil
}

func (s *Store) SetPayslipDocument(ctx context.Context, payslipID, documentURL string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE payslips SET document_url = $1 WHERE id = $2", documentURL, payslipID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPayslipNotFound
	}
	return nil
}

func (s *Store) CountPayruns(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payruns").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListPayruns(ctx context.Context, limit, offset int) ([]Payrun, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, period_start, period_end, total_gross, total_tax, total_super, total_net, created_at
    FROM payruns
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Payrun
	for rows.Next() {
		var run Payrun
		if err := rows.Scan(&run.ID, &run.PeriodStart, &run.PeriodEnd, &run.TotalGross, &run.TotalTax, &run.TotalSuper, &run.TotalNet, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := s.attachDetails(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) GetPayrun(ctx context.Context, id string) (Payrun, error) {
	var run Payrun
	err := s.DB.QueryRow(ctx, `
    SELECT id, period_start, period_end, total_gross, total_tax, total_super, total_net, created_at
    FROM payruns
    WHERE id = $1
  `, id).Scan(&run.ID, &run.PeriodStart, &run.PeriodEnd, &run.TotalGross, &run.TotalTax, &run.TotalSuper, &run.TotalNet, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payrun{}, ErrNotFound
	}
	if err != nil {
		return Payrun{}, err
	}
	if err := s.attachDetails(ctx, &run); err != nil {
		return Payrun{}, err
	}
	return run, nil
}

func (s *Store) attachDetails(ctx context.Context, run *Payrun) error {
	slipRows, err := s.DB.Query(ctx, `
    SELECT p.id, p.employee_id, e.first_name || ' ' || e.last_name,
           p.normal_hours, p.overtime_hours, p.gross, p.tax, p.super, p.net,
           p.payment_status, COALESCE(p.transfer_id, ''), COALESCE(p.document_url, ''), p.created_at
    FROM payslips p
    JOIN employees e ON p.employee_id = e.id
    WHERE p.payrun_id = $1
    ORDER BY p.position
  `, run.ID)
	if err != nil {
		return err
	}
	defer slipRows.Close()

	run.Payslips = nil
	for slipRows.Next() {
		slip := Payslip{PayrunID: run.ID}
		if err := slipRows.Scan(&slip.ID, &slip.EmployeeID, &slip.EmployeeName, &slip.NormalHours, &slip.OvertimeHours, &slip.Gross, &slip.Tax, &slip.Super, &slip.Net, &slip.PaymentStatus, &slip.TransferID, &slip.DocumentURL, &slip.CreatedAt); err != nil {
			return err
		}
		run.Payslips = append(run.Payslips, slip)
	}
	if err := slipRows.Err(); err != nil {
		return err
	}

	sheetRows, err := s.DB.Query(ctx, "SELECT id FROM timesheets WHERE payrun_id = $1 ORDER BY created_at, id", run.ID)
	if err != nil {
		return err
	}
	defer sheetRows.Close()

	run.TimesheetIDs = nil
	for sheetRows.Next() {
		var sheetID string
		if err := sheetRows.Scan(&sheetID); err != nil {
			return err
		}
		run.TimesheetIDs = append(run.TimesheetIDs, sheetID)
	}
	return sheetRows.Err()
}

func (s *Store) GetPayslip(ctx context.Context, id string) (Payslip, error) {
	var slip Payslip
	err := s.DB.QueryRow(ctx, `
    SELECT p.id, p.payrun_id, p.employee_id, e.first_name || ' ' || e.last_name,
           p.normal_hours, p.overtime_hours, p.gross, p.tax, p.super, p.net,
           p.payment_status, COALESCE(p.transfer_id, ''), COALESCE(p.document_url, ''), p.created_at
    FROM payslips p
    JOIN employees e ON p.employee_id = e.id
    WHERE p.id = $1
  `, id).Scan(&slip.ID, &slip.PayrunID, &slip.EmployeeID, &slip.EmployeeName, &slip.NormalHours, &slip.OvertimeHours, &slip.Gross, &slip.Tax, &slip.Super, &slip.Net, &slip.PaymentStatus, &slip.TransferID, &slip.DocumentURL, &slip.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payslip{}, ErrPayslipNotFound
	}
	return slip, err
}

func (s *Store) ListRetryablePayslips(ctx context.Context) ([]RetryablePayslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.employee_id, e.first_name || ' ' || e.last_name, p.net,
           e.stripe_account_id, r.period_start, r.period_end
    FROM payslips p
    JOIN employees e ON p.employee_id = e.id
    JOIN payruns r ON p.payrun_id = r.id
    WHERE p.payment_status = $1
      AND e.stripe_account_id IS NOT NULL
      AND e.stripe_account_id <> ''
    ORDER BY p.created_at, p.position
  `, PaymentStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RetryablePayslip
	for rows.Next() {
		var slip RetryablePayslip
		if err := rows.Scan(&slip.PayslipID, &slip.EmployeeID, &slip.EmployeeName, &slip.Net, &slip.Destination, &slip.PeriodStart, &slip.PeriodEnd); err != nil {
			return nil, err
		}
		out = append(out, slip)
	}
	return out, rows.Err()
}
