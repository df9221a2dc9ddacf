package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

func init() {
	goose.AddMigrationContext(upClientSearchKey, downClientSearchKey)
}

type clientKeyRow struct {
	id    int64
	name  string
	phone sql.NullString
}

func upClientSearchKey(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `ALTER TABLE clients ADD COLUMN search_key TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("add search_key column: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, full_name, phone FROM clients`)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	var pending []clientKeyRow
	for rows.Next() {
		var r clientKeyRow
		if err := rows.Scan(&r.id, &r.name, &r.phone); err != nil {
			rows.Close()
			return fmt.Errorf("scan client: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close client rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate clients: %w", err)
	}

	for _, r := range pending {
		var phone *string
		if r.phone.Valid {
			phone = &r.phone.String
		}
		if _, err := tx.ExecContext(ctx, `UPDATE clients SET search_key = ? WHERE id = ?`, models.ClientSearchKey(r.name, phone), r.id); err != nil {
			return fmt.Errorf("backfill search key for client %d: %w", r.id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `CREATE INDEX idx_clients_search_key ON clients (search_key)`); err != nil {
		return fmt.Errorf("index search_key: %w", err)
	}
	return nil
}

func downClientSearchKey(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_clients_search_key`); err != nil {
		return fmt.Errorf("drop search_key index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE clients DROP COLUMN search_key`); err != nil {
		return fmt.Errorf("drop search_key column: %w", err)
	}
	return nil
}
