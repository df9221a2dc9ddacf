package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

// AttendanceRepository manages per-lesson attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// InsertPlaceholders adds an unmarked row for each client on the lesson.
// Existing (lesson, client) rows are left as they are.
func (r *AttendanceRepository) InsertPlaceholders(ctx context.Context, exec sqlx.ExtContext, lessonID int64, clientIDs []int64, at time.Time) (int, error) {
	q := target(r.db, exec)
	at = stamp(at)
	inserted := 0
	for _, clientID := range clientIDs {
		res, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO attendance (lesson_id, client_id, created_at) VALUES (?, ?, ?)`, lessonID, clientID, at)
		if err != nil {
			return inserted, fmt.Errorf("insert attendance placeholder: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// BackfillForMember adds unmarked rows for a client on every lesson of the
// group dated on or after from.
func (r *AttendanceRepository) BackfillForMember(ctx context.Context, exec sqlx.ExtContext, groupID, clientID int64, from models.Date, at time.Time) (int, error) {
	const query = `INSERT OR IGNORE INTO attendance (lesson_id, client_id, created_at)
SELECT l.id, ?, ? FROM lessons l WHERE l.group_id = ? AND l.date >= ?`
	res, err := target(r.db, exec).ExecContext(ctx, query, clientID, stamp(at), groupID, from)
	if err != nil {
		return 0, fmt.Errorf("backfill attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("backfill attendance: %w", err)
	}
	return int(n), nil
}

// DeleteUnmarkedFrom drops the client's unmarked rows on group lessons dated
// on or after from. Marked rows stay as history.
func (r *AttendanceRepository) DeleteUnmarkedFrom(ctx context.Context, exec sqlx.ExtContext, groupID, clientID int64, from models.Date) (int, error) {
	const query = `DELETE FROM attendance WHERE client_id = ? AND status IS NULL
AND lesson_id IN (SELECT id FROM lessons WHERE group_id = ? AND date >= ?)`
	res, err := target(r.db, exec).ExecContext(ctx, query, clientID, groupID, from)
	if err != nil {
		return 0, fmt.Errorf("delete unmarked attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete unmarked attendance: %w", err)
	}
	return int(n), nil
}

// Find returns the row for (lesson, client).
func (r *AttendanceRepository) Find(ctx context.Context, exec sqlx.ExtContext, lessonID, clientID int64) (*models.Attendance, error) {
	const query = `SELECT id, lesson_id, client_id, status, marked_at, created_at FROM attendance WHERE lesson_id = ? AND client_id = ?`
	var row models.Attendance
	if err := sqlx.GetContext(ctx, target(r.db, exec), &row, query, lessonID, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &row, nil
}

// Upsert writes the status for (lesson, client), inserting the row when it
// does not exist yet.
func (r *AttendanceRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, lessonID, clientID int64, status *models.AttendanceStatus, at time.Time) error {
	const query = `INSERT INTO attendance (lesson_id, client_id, status, marked_at, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (lesson_id, client_id) DO UPDATE SET status = excluded.status, marked_at = excluded.marked_at`
	at = stamp(at)
	if _, err := target(r.db, exec).ExecContext(ctx, query, lessonID, clientID, status, at, at); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListForLesson returns the attendance sheet of a lesson ordered by client
// name.
func (r *AttendanceRepository) ListForLesson(ctx context.Context, lessonID int64) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.lesson_id, a.client_id, a.status, a.marked_at, a.created_at, c.full_name AS client_name
FROM attendance a JOIN clients c ON c.id = a.client_id
WHERE a.lesson_id = ? ORDER BY c.full_name ASC, c.id ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson attendance: %w", err)
	}
	return records, nil
}

// History returns a client's attendance rows between from and to inclusive.
// Nil bounds are open.
func (r *AttendanceRepository) History(ctx context.Context, clientID int64, from, to *models.Date) ([]models.AttendanceHistoryRow, error) {
	query := `SELECT l.id AS lesson_id, l.group_id, g.name AS group_name, l.date, l.start_time, a.status
FROM attendance a
JOIN lessons l ON l.id = a.lesson_id
JOIN training_groups g ON g.id = l.group_id
WHERE a.client_id = ?`
	args := []interface{}{clientID}
	if from != nil {
		query += " AND l.date >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND l.date <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY l.date ASC, l.start_time ASC, l.id ASC"

	var rows []models.AttendanceHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance history: %w", err)
	}
	return rows, nil
}
