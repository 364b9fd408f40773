package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"payroll/internal/domain/auth"
	"payroll/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail != "" {
		if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}
	if cfg.SeedDemoData {
		if err := ensureDemoEmployees(ctx, pool); err != nil {
			return err
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, "INSERT INTO users (email, password_hash) VALUES ($1, $2)", email, hash)
	return err
}

type demoEmployee struct {
	id, firstName, lastName, bsb, account, stripeAccount string
	baseRate                                             string
}

func ensureDemoEmployees(ctx context.Context, pool *pgxpool.Pool) error {
	demo := []demoEmployee{
		{id: "e-alice", firstName: "Alice", lastName: "Chen", bsb: "083-123", account: "12345678", stripeAccount: "acct_demo_alice", baseRate: "35"},
		{id: "e-bob", firstName: "Bob", lastName: "Singh", bsb: "062-000", account: "98765432", stripeAccount: "acct_demo_bob", baseRate: "48"},
	}
	for _, e := range demo {
		_, err := pool.Exec(ctx, `
      INSERT INTO employees (id, first_name, last_name, type, base_hourly_rate, super_rate, bank_bsb, bank_account, stripe_account_id)
      VALUES ($1,$2,$3,'hourly',$4,0.115,$5,$6,$7)
      ON CONFLICT (id) DO NOTHING
    `, e.id, e.firstName, e.lastName, e.baseRate, e.bsb, e.account, e.stripeAccount)
		if err != nil {
			return err
		}
	}
	return nil
}
