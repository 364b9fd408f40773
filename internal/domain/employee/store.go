package employee

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE deleted = false").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, first_name, last_name, type, base_hourly_rate, super_rate,
           COALESCE(bank_bsb, ''), COALESCE(bank_account, ''), COALESCE(stripe_account_id, ''), created_at
    FROM employees
    WHERE deleted = false
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Type, &e.BaseHourlyRate, &e.SuperRate, &e.BankBSB, &e.BankAccount, &e.StripeAccountID, &e.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, type, base_hourly_rate, super_rate,
           COALESCE(bank_bsb, ''), COALESCE(bank_account, ''), COALESCE(stripe_account_id, ''), created_at
    FROM employees
    WHERE id = $1 AND deleted = false
  `, id).Scan(&e.ID, &e.FirstName, &e.LastName, &e.Type, &e.BaseHourlyRate, &e.SuperRate, &e.BankBSB, &e.BankAccount, &e.StripeAccountID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE id = $1 AND deleted = false", id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Create(ctx context.Context, e Employee) error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrMissingID
	}
	exists, err := s.Exists(ctx, e.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO employees (id, first_name, last_name, type, base_hourly_rate, super_rate, bank_bsb, bank_account, stripe_account_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, e.ID, e.FirstName, e.LastName, e.Type, e.BaseHourlyRate, e.SuperRate, e.BankBSB, e.BankAccount, nullIfEmpty(e.StripeAccountID))
	return err
}

func (s *Store) Update(ctx context.Context, e Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET first_name = $1, last_name = $2, type = $3, base_hourly_rate = $4,
        super_rate = $5, bank_bsb = $6, bank_account = $7, stripe_account_id = $8
    WHERE id = $9 AND deleted = false
  `, e.FirstName, e.LastName, e.Type, e.BaseHourlyRate, e.SuperRate, e.BankBSB, e.BankAccount, nullIfEmpty(e.StripeAccountID), e.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET deleted = true WHERE id = $1 AND deleted = false", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
