package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

const groupDetailQuery = `SELECT g.id, g.name, g.trainer_id, g.description, g.created_at, g.updated_at,
e.full_name AS trainer_name,
(SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id) AS member_count
FROM training_groups g
LEFT JOIN employees e ON e.id = g.trainer_id`

// GroupRepository manages groups, their weekly schedule and roster.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns all groups with trainer name and member count.
func (r *GroupRepository) List(ctx context.Context) ([]models.GroupDetail, error) {
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, groupDetailQuery+" ORDER BY g.name ASC"); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByID fetches a group with trainer name and member count.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*models.GroupDetail, error) {
	var group models.GroupDetail
	if err := r.db.GetContext(ctx, &group, groupDetailQuery+" WHERE g.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

// ExistsByName checks whether another group uses name.
func (r *GroupRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM training_groups WHERE name = ?"
	args := []interface{}{name}
	if excludeID > 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check group name: %w", err)
	}
	return true, nil
}

// Create inserts a group and sets its id.
func (r *GroupRepository) Create(ctx context.Context, exec sqlx.ExtContext, group *models.Group) error {
	group.CreatedAt = stamp(group.CreatedAt)
	group.UpdatedAt = group.CreatedAt
	const query = `INSERT INTO training_groups (name, trainer_id, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	res, err := target(r.db, exec).ExecContext(ctx, query, group.Name, group.TrainerID, group.Description, group.CreatedAt, group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read group id: %w", err)
	}
	group.ID = id
	return nil
}

// Update modifies a group.
func (r *GroupRepository) Update(ctx context.Context, exec sqlx.ExtContext, group *models.Group) error {
	group.UpdatedAt = stamp(group.UpdatedAt)
	const query = `UPDATE training_groups SET name = ?, trainer_id = ?, description = ?, updated_at = ? WHERE id = ?`
	res, err := target(r.db, exec).ExecContext(ctx, query, group.Name, group.TrainerID, group.Description, group.UpdatedAt, group.ID)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a group with its schedule, roster, lessons and attendance.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM training_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Schedule returns the weekly slots of a group ordered by weekday.
func (r *GroupRepository) Schedule(ctx context.Context, exec sqlx.ExtContext, groupID int64) (models.GroupSchedule, error) {
	const query = `SELECT id, group_id, day_of_week, start_time, end_time FROM group_schedules WHERE group_id = ? ORDER BY day_of_week ASC`
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, target(r.db, exec), &slots, query, groupID); err != nil {
		return nil, fmt.Errorf("list group schedule: %w", err)
	}
	return models.GroupSchedule(slots), nil
}

// ReplaceSchedule swaps the weekly slots of a group.
func (r *GroupRepository) ReplaceSchedule(ctx context.Context, exec sqlx.ExtContext, groupID int64, slots []models.ScheduleSlot) error {
	q := target(r.db, exec)
	if _, err := q.ExecContext(ctx, `DELETE FROM group_schedules WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("clear group schedule: %w", err)
	}
	const query = `INSERT INTO group_schedules (group_id, day_of_week, start_time, end_time) VALUES (?, ?, ?, ?)`
	for i := range slots {
		slot := &slots[i]
		slot.GroupID = groupID
		res, err := q.ExecContext(ctx, query, groupID, slot.DayOfWeek, slot.StartTime, slot.EndTime)
		if err != nil {
			return fmt.Errorf("insert schedule slot: %w", err)
		}
		if slot.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("read schedule slot id: %w", err)
		}
	}
	return nil
}

// AddMember inserts a membership. It reports false when the client already
// belongs to the group.
func (r *GroupRepository) AddMember(ctx context.Context, exec sqlx.ExtContext, member models.GroupMember) (bool, error) {
	const query = `INSERT OR IGNORE INTO group_members (group_id, client_id, joined_at) VALUES (?, ?, ?)`
	res, err := target(r.db, exec).ExecContext(ctx, query, member.GroupID, member.ClientID, member.JoinedAt)
	if err != nil {
		return false, fmt.Errorf("add group member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add group member: %w", err)
	}
	return n == 1, nil
}

// RemoveMember deletes a membership. It reports false when there was none.
func (r *GroupRepository) RemoveMember(ctx context.Context, exec sqlx.ExtContext, groupID, clientID int64) (bool, error) {
	res, err := target(r.db, exec).ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ? AND client_id = ?`, groupID, clientID)
	if err != nil {
		return false, fmt.Errorf("remove group member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove group member: %w", err)
	}
	return n == 1, nil
}

// Members returns the roster of a group ordered by name.
func (r *GroupRepository) Members(ctx context.Context, groupID int64) ([]models.GroupMemberDetail, error) {
	const query = `SELECT gm.group_id, gm.client_id, gm.joined_at, c.full_name, c.phone
FROM group_members gm JOIN clients c ON c.id = gm.client_id
WHERE gm.group_id = ? ORDER BY c.full_name ASC, c.id ASC`
	var members []models.GroupMemberDetail
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// MemberIDs returns the client ids currently in a group.
func (r *GroupRepository) MemberIDs(ctx context.Context, exec sqlx.ExtContext, groupID int64) ([]int64, error) {
	var ids []int64
	if err := sqlx.SelectContext(ctx, target(r.db, exec), &ids, `SELECT client_id FROM group_members WHERE group_id = ? ORDER BY client_id ASC`, groupID); err != nil {
		return nil, fmt.Errorf("list group member ids: %w", err)
	}
	return ids, nil
}
