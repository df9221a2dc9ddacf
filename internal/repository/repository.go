// Package repository persists dojo entities in the embedded SQLite store.
//
// Methods that accept an exec argument run on it when non-nil so callers can
// group writes into one transaction. The pool holds a single connection, so
// code inside a transaction must pass the transaction through.
package repository

import (
	"time"

	"github.com/jmoiron/sqlx"
)

func target(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func paginate(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size, (page - 1) * size
}
