package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"fleetpay/internal/platform/config"
)

// Seed creates the dispatcher admin account used to reach the back office.
// It is idempotent and a no-op when no seed credentials are configured.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.TrimSpace(strings.ToLower(cfg.SeedAdminEmail))
	if email == "" || cfg.SeedAdminPassword == "" {
		slog.Info("seed skipped, no admin credentials configured")
		return nil
	}

	var existing string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role, status)
    VALUES ($1, $2, 'admin', 'active')
  `, email, string(hash))
	if err != nil {
		return err
	}
	slog.Info("seeded admin user", "email", email)
	return nil
}
