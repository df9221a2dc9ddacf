package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	goose.AddMigrationContext(upSeedStaff, downSeedStaff)
}

// upSeedStaff creates the default admin login when no staff member can log
// in yet.
func upSeedStaff(ctx context.Context, tx *sql.Tx) error {
	seed := seedFrom(ctx)
	if seed.AdminLogin == "" || seed.AdminPassword == "" {
		return nil
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees WHERE login IS NOT NULL`).Scan(&existing); err != nil {
		return fmt.Errorf("count staff logins: %w", err)
	}
	if existing > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO employees (full_name, position, login, password_hash, role, active)
VALUES (?, ?, ?, ?, 'admin', 1)`, "Administrator", "Administrator", seed.AdminLogin, string(hash)); err != nil {
		return fmt.Errorf("insert seed staff: %w", err)
	}
	return nil
}

func downSeedStaff(ctx context.Context, tx *sql.Tx) error {
	seed := seedFrom(ctx)
	if seed.AdminLogin == "" {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE login = ? AND role = 'admin'`, seed.AdminLogin); err != nil {
		return fmt.Errorf("delete seed staff: %w", err)
	}
	return nil
}
