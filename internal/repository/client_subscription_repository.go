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

const assignmentColumns = `cs.id, cs.client_id, cs.subscription_id, cs.start_date, cs.end_date, cs.visits_used, cs.visits_total,
cs.is_paid, cs.payment_date, cs.created_at, cs.updated_at`

// ClientSubscriptionRepository manages the assignment ledger.
type ClientSubscriptionRepository struct {
	db *sqlx.DB
}

// NewClientSubscriptionRepository constructs a ClientSubscriptionRepository.
func NewClientSubscriptionRepository(db *sqlx.DB) *ClientSubscriptionRepository {
	return &ClientSubscriptionRepository{db: db}
}

// Create appends an assignment row and sets its id.
func (r *ClientSubscriptionRepository) Create(ctx context.Context, exec sqlx.ExtContext, sub *models.ClientSubscription) error {
	sub.CreatedAt = stamp(sub.CreatedAt)
	sub.UpdatedAt = sub.CreatedAt
	const query = `INSERT INTO client_subscriptions
(client_id, subscription_id, start_date, end_date, visits_used, visits_total, is_paid, payment_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := target(r.db, exec).ExecContext(ctx, query,
		sub.ClientID, sub.SubscriptionID, sub.StartDate, sub.EndDate, sub.VisitsUsed, sub.VisitsTotal,
		sub.IsPaid, sub.PaymentDate, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create client subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read client subscription id: %w", err)
	}
	sub.ID = id
	return nil
}

// FindByID fetches one assignment. exec may be a transaction.
func (r *ClientSubscriptionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.ClientSubscription, error) {
	query := "SELECT " + assignmentColumns + " FROM client_subscriptions cs WHERE cs.id = ?"
	var sub models.ClientSubscription
	if err := sqlx.GetContext(ctx, target(r.db, exec), &sub, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find client subscription: %w", err)
	}
	return &sub, nil
}

// ListByClient returns every assignment of a client, newest start first.
func (r *ClientSubscriptionRepository) ListByClient(ctx context.Context, exec sqlx.ExtContext, clientID int64) ([]models.ClientSubscription, error) {
	query := "SELECT " + assignmentColumns + " FROM client_subscriptions cs WHERE cs.client_id = ? ORDER BY cs.start_date DESC, cs.id DESC"
	var subs []models.ClientSubscription
	if err := sqlx.SelectContext(ctx, target(r.db, exec), &subs, query, clientID); err != nil {
		return nil, fmt.Errorf("list client subscriptions: %w", err)
	}
	return subs, nil
}

// ListDetailsByClient is ListByClient with plan and client names attached.
func (r *ClientSubscriptionRepository) ListDetailsByClient(ctx context.Context, clientID int64) ([]models.ClientSubscriptionDetail, error) {
	query := "SELECT " + assignmentColumns + `, c.full_name AS client_name, s.name AS plan_name
FROM client_subscriptions cs
JOIN clients c ON c.id = cs.client_id
LEFT JOIN subscriptions s ON s.id = cs.subscription_id
WHERE cs.client_id = ?
ORDER BY cs.start_date DESC, cs.id DESC`
	var subs []models.ClientSubscriptionDetail
	if err := r.db.SelectContext(ctx, &subs, query, clientID); err != nil {
		return nil, fmt.Errorf("list client subscription details: %w", err)
	}
	return subs, nil
}

// ListAll returns every assignment grouped by client.
func (r *ClientSubscriptionRepository) ListAll(ctx context.Context) ([]models.ClientSubscription, error) {
	query := "SELECT " + assignmentColumns + " FROM client_subscriptions cs ORDER BY cs.client_id ASC, cs.start_date DESC, cs.id DESC"
	var subs []models.ClientSubscription
	if err := r.db.SelectContext(ctx, &subs, query); err != nil {
		return nil, fmt.Errorf("list all client subscriptions: %w", err)
	}
	return subs, nil
}

// ListExpiring returns assignments ending within [from, to] that still have
// visits left. Payment state is not considered.
func (r *ClientSubscriptionRepository) ListExpiring(ctx context.Context, from, to models.Date) ([]models.ClientSubscriptionDetail, error) {
	query := "SELECT " + assignmentColumns + `, c.full_name AS client_name, s.name AS plan_name
FROM client_subscriptions cs
JOIN clients c ON c.id = cs.client_id
LEFT JOIN subscriptions s ON s.id = cs.subscription_id
WHERE cs.end_date BETWEEN ? AND ?
  AND (cs.visits_total = 0 OR cs.visits_used < cs.visits_total)
ORDER BY cs.end_date ASC, c.full_name ASC, cs.id ASC`
	var subs []models.ClientSubscriptionDetail
	if err := r.db.SelectContext(ctx, &subs, query, from, to); err != nil {
		return nil, fmt.Errorf("list expiring subscriptions: %w", err)
	}
	return subs, nil
}

// MarkPaid flags an unpaid assignment as paid. It reports false when the
// row was already paid, leaving its payment date untouched.
func (r *ClientSubscriptionRepository) MarkPaid(ctx context.Context, id int64, paymentDate models.Date, at time.Time) (bool, error) {
	const query = `UPDATE client_subscriptions SET is_paid = 1, payment_date = ?, updated_at = ? WHERE id = ? AND is_paid = 0`
	res, err := r.db.ExecContext(ctx, query, paymentDate, stamp(at), id)
	if err != nil {
		return false, fmt.Errorf("mark subscription paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark subscription paid: %w", err)
	}
	return n == 1, nil
}

// IncrementVisit consumes one visit when the cap allows it. The check and
// the write are a single statement; false means the cap was already reached
// or the row does not exist.
func (r *ClientSubscriptionRepository) IncrementVisit(ctx context.Context, exec sqlx.ExtContext, id int64, at time.Time) (bool, error) {
	const query = `UPDATE client_subscriptions SET visits_used = visits_used + 1, updated_at = ?
WHERE id = ? AND (visits_total = 0 OR visits_used < visits_total)`
	res, err := target(r.db, exec).ExecContext(ctx, query, stamp(at), id)
	if err != nil {
		return false, fmt.Errorf("increment visit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment visit: %w", err)
	}
	return n == 1, nil
}
