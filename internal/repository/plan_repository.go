package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

const planColumns = `id, name, price, duration_days, visit_limit, description, created_at, updated_at`

// PlanRepository manages subscription plans.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs a PlanRepository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// List returns every plan ordered by name.
func (r *PlanRepository) List(ctx context.Context) ([]models.SubscriptionPlan, error) {
	query := "SELECT " + planColumns + " FROM subscriptions ORDER BY name ASC, id ASC"
	var plans []models.SubscriptionPlan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// FindByID fetches a plan. exec may be a transaction.
func (r *PlanRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.SubscriptionPlan, error) {
	query := "SELECT " + planColumns + " FROM subscriptions WHERE id = ?"
	var plan models.SubscriptionPlan
	if err := sqlx.GetContext(ctx, target(r.db, exec), &plan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return &plan, nil
}

// Create inserts a plan and sets its id.
func (r *PlanRepository) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	plan.CreatedAt = stamp(plan.CreatedAt)
	plan.UpdatedAt = plan.CreatedAt
	const query = `INSERT INTO subscriptions (name, price, duration_days, visit_limit, description, created_at, updated_at)
VALUES (:name, :price, :duration_days, :visit_limit, :description, :created_at, :updated_at)`
	res, err := r.db.NamedExecContext(ctx, query, plan)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read plan id: %w", err)
	}
	plan.ID = id
	return nil
}

// Update modifies a plan. Existing assignments keep their frozen end date
// and visit total.
func (r *PlanRepository) Update(ctx context.Context, plan *models.SubscriptionPlan) error {
	plan.UpdatedAt = stamp(plan.UpdatedAt)
	const query = `UPDATE subscriptions SET name = :name, price = :price, duration_days = :duration_days,
visit_limit = :visit_limit, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, plan)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasAssignmentsEndingOnOrAfter reports whether any assignment of the plan
// ends on or after day, regardless of payment or remaining visits. exec may
// be a transaction.
func (r *PlanRepository) HasAssignmentsEndingOnOrAfter(ctx context.Context, exec sqlx.ExtContext, planID int64, day models.Date) (bool, error) {
	const query = `SELECT 1 FROM client_subscriptions WHERE subscription_id = ? AND end_date >= ? LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, target(r.db, exec), &exists, query, planID, day); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check plan usage: %w", err)
	}
	return true, nil
}

// Delete removes a plan. Historical assignments keep their rows with the
// plan reference cleared.
func (r *PlanRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	res, err := target(r.db, exec).ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
