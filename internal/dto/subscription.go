package dto

// PlanRequest captures create/update payloads for subscription plans.
type PlanRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Price        float64 `json:"price" validate:"gte=0"`
	DurationDays int     `json:"duration_days" validate:"required,gt=0,lte=3660"`
	VisitLimit   int     `json:"visit_limit" validate:"gte=0"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// AssignSubscriptionRequest appends a purchase to a client's ledger.
type AssignSubscriptionRequest struct {
	ClientID  int64  `json:"client_id" validate:"required,gt=0"`
	PlanID    int64  `json:"plan_id" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	IsPaid    bool   `json:"is_paid"`
}

// MarkPaidRequest optionally overrides the payment date (defaults to today).
type MarkPaidRequest struct {
	PaymentDate string `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// IncrementVisitResponse reports whether a visit was consumed.
type IncrementVisitResponse struct {
	Incremented bool `json:"incremented"`
}
