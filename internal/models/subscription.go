package models

import "time"

// SubscriptionStatus is the derived billing state of a client.
type SubscriptionStatus string

const (
	SubscriptionStatusNone    SubscriptionStatus = "none"
	SubscriptionStatusUnpaid  SubscriptionStatus = "unpaid"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
	SubscriptionStatusPaid    SubscriptionStatus = "paid"
)

// SubscriptionPlan is a named billing plan. VisitLimit 0 means unlimited.
type SubscriptionPlan struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Price        float64   `db:"price" json:"price"`
	DurationDays int       `db:"duration_days" json:"duration_days"`
	VisitLimit   int       `db:"visit_limit" json:"visit_limit"`
	Description  *string   `db:"description" json:"description,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClientSubscription is one row of a client's append-only purchase ledger.
// EndDate and VisitsTotal are frozen when the row is created.
type ClientSubscription struct {
	ID             int64     `db:"id" json:"id"`
	ClientID       int64     `db:"client_id" json:"client_id"`
	SubscriptionID *int64    `db:"subscription_id" json:"subscription_id,omitempty"`
	StartDate      Date      `db:"start_date" json:"start_date"`
	EndDate        Date      `db:"end_date" json:"end_date"`
	VisitsUsed     int       `db:"visits_used" json:"visits_used"`
	VisitsTotal    int       `db:"visits_total" json:"visits_total"`
	IsPaid         bool      `db:"is_paid" json:"is_paid"`
	PaymentDate    *Date     `db:"payment_date" json:"payment_date,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Unlimited reports whether the assignment has no visit cap.
func (s ClientSubscription) Unlimited() bool {
	return s.VisitsTotal == 0
}

// Exhausted reports whether a capped assignment has no visits left.
func (s ClientSubscription) Exhausted() bool {
	return s.VisitsTotal > 0 && s.VisitsUsed >= s.VisitsTotal
}

// ClientSubscriptionDetail enriches an assignment with display names.
type ClientSubscriptionDetail struct {
	ClientSubscription
	ClientName string  `db:"client_name" json:"client_name"`
	PlanName   *string `db:"plan_name" json:"plan_name,omitempty"`
}

// SubscriptionState pairs the current assignment of a client with its
// derived status. Assignment is nil when the status is none.
type SubscriptionState struct {
	ClientID   int64               `json:"client_id"`
	Status     SubscriptionStatus  `json:"status"`
	Assignment *ClientSubscription `json:"assignment,omitempty"`
}

// Debtor is a client whose current assignment does not resolve to paid.
type Debtor struct {
	Client  Client              `json:"client"`
	Status  SubscriptionStatus  `json:"status"`
	Current *ClientSubscription `json:"current,omitempty"`
}
