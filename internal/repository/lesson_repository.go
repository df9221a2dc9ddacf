package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

const lessonColumns = `l.id, l.group_id, l.date, l.start_time, l.end_time, l.topic, l.created_at`

// LessonRepository manages dated lesson occurrences.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// Create inserts a lesson and sets its id.
func (r *LessonRepository) Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.Lesson) error {
	lesson.CreatedAt = stamp(lesson.CreatedAt)
	const query = `INSERT INTO lessons (group_id, date, start_time, end_time, topic, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := target(r.db, exec).ExecContext(ctx, query, lesson.GroupID, lesson.Date, lesson.StartTime, lesson.EndTime, lesson.Topic, lesson.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read lesson id: %w", err)
	}
	lesson.ID = id
	return nil
}

// FindByID fetches a lesson with its group name.
func (r *LessonRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LessonDetail, error) {
	query := "SELECT " + lessonColumns + ", g.name AS group_name FROM lessons l JOIN training_groups g ON g.id = l.group_id WHERE l.id = ?"
	var lesson models.LessonDetail
	if err := sqlx.GetContext(ctx, target(r.db, exec), &lesson, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

// ExistsForGroupDate reports whether the group already has a lesson on day.
func (r *LessonRepository) ExistsForGroupDate(ctx context.Context, exec sqlx.ExtContext, groupID int64, day models.Date) (bool, error) {
	var exists int
	err := sqlx.GetContext(ctx, target(r.db, exec), &exists, `SELECT 1 FROM lessons WHERE group_id = ? AND date = ? LIMIT 1`, groupID, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check lesson date: %w", err)
	}
	return true, nil
}

// List returns lessons matching the filter ordered by date and time.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error) {
	query := "SELECT " + lessonColumns + ", g.name AS group_name FROM lessons l JOIN training_groups g ON g.id = l.group_id WHERE 1=1"
	var conditions []string
	var args []interface{}
	if filter.GroupID > 0 {
		conditions = append(conditions, "l.group_id = ?")
		args = append(args, filter.GroupID)
	}
	if filter.From != nil {
		conditions = append(conditions, "l.date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "l.date <= ?")
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY l.date ASC, l.start_time ASC, l.id ASC"

	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// Delete removes a lesson and its attendance rows.
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
