package timesheet

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE id = $1 AND deleted = false", employeeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) HasOverlappingPayrun(ctx context.Context, start, end time.Time) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM payruns
    WHERE period_start <= $1 AND period_end >= $2
  `, end, start).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) HasDuplicate(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM timesheets
    WHERE employee_id = $1 AND period_start = $2 AND period_end = $3
  `, employeeID, start, end).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Insert(ctx context.Context, sheet *Timesheet) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
    INSERT INTO timesheets (id, employee_id, period_start, period_end, allowances, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING created_at, updated_at
  `, sheet.ID, sheet.EmployeeID, sheet.PeriodStart, sheet.PeriodEnd, sheet.Allowances, sheet.Status).Scan(&sheet.CreatedAt, &sheet.UpdatedAt); err != nil {
		return err
	}

	if err := insertEntries(ctx, tx, sheet.ID, sheet.Entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (Timesheet, error) {
	var sheet Timesheet
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, period_start, period_end, allowances, status,
           COALESCE(payrun_id::text, ''), created_at, updated_at
    FROM timesheets
    WHERE id = $1
  `, id).Scan(&sheet.ID, &sheet.EmployeeID, &sheet.PeriodStart, &sheet.PeriodEnd, &sheet.Allowances, &sheet.Status, &sheet.PayrunID, &sheet.CreatedAt, &sheet.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Timesheet{}, ErrNotFound
	}
	if err != nil {
		return Timesheet{}, err
	}

	entries, err := s.entriesFor(ctx, []string{sheet.ID})
	if err != nil {
		return Timesheet{}, err
	}
	sheet.Entries = entries[sheet.ID]
	return sheet, nil
}

func (s *Store) Update(ctx context.Context, sheet *Timesheet) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE timesheets
    SET period_start = $1, period_end = $2, allowances = $3, updated_at = now()
    WHERE id = $4 AND status = $5
  `, sheet.PeriodStart, sheet.PeriodEnd, sheet.Allowances, sheet.ID, StatusUnprocessed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProcessed
	}

	if _, err := tx.Exec(ctx, "DELETE FROM timesheet_entries WHERE timesheet_id = $1", sheet.ID); err != nil {
		return err
	}
	if err := insertEntries(ctx, tx, sheet.ID, sheet.Entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM timesheets WHERE id = $1 AND status = $2", id, StatusUnprocessed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM timesheets").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Timesheet, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, period_start, period_end, allowances, status,
           COALESCE(payrun_id::text, ''), created_at, updated_at
    FROM timesheets
    ORDER BY period_start DESC, created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []Timesheet
	var ids []string
	for rows.Next() {
		var sheet Timesheet
		if err := rows.Scan(&sheet.ID, &sheet.EmployeeID, &sheet.PeriodStart, &sheet.PeriodEnd, &sheet.Allowances, &sheet.Status, &sheet.PayrunID, &sheet.CreatedAt, &sheet.UpdatedAt); err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
		ids = append(ids, sheet.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries, err := s.entriesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sheets {
		sheets[i].Entries = entries[sheets[i].ID]
	}
	return sheets, nil
}

func (s *Store) entriesFor(ctx context.Context, timesheetIDs []string) (map[string][]Entry, error) {
	out := make(map[string][]Entry, len(timesheetIDs))
	if len(timesheetIDs) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT timesheet_id, id, work_date, start_time, end_time, unpaid_break_mins
    FROM timesheet_entries
    WHERE timesheet_id = ANY($1)
    ORDER BY timesheet_id, position
  `, timesheetIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sheetID string
		var entry Entry
		if err := rows.Scan(&sheetID, &entry.ID, &entry.Date, &entry.Start, &entry.End, &entry.UnpaidBreakMins); err != nil {
			return nil, err
		}
		out[sheetID] = append(out[sheetID], entry)
	}
	return out, rows.Err()
}

func insertEntries(ctx context.Context, tx pgx.Tx, timesheetID string, entries []Entry) error {
	for i, entry := range entries {
		if _, err := tx.Exec(ctx, `
      INSERT INTO timesheet_entries (id, timesheet_id, work_date, start_time, end_time, unpaid_break_mins, position)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, entry.ID, timesheetID, entry.Date, entry.Start, entry.End, entry.UnpaidBreakMins, i); err != nil {
			return err
		}
	}
	return nil
}
