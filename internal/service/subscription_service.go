package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type planRepository interface {
	List(ctx context.Context) ([]models.SubscriptionPlan, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.SubscriptionPlan, error)
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	Update(ctx context.Context, plan *models.SubscriptionPlan) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	HasAssignmentsEndingOnOrAfter(ctx context.Context, exec sqlx.ExtContext, planID int64, day models.Date) (bool, error)
}

type assignmentRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, sub *models.ClientSubscription) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.ClientSubscription, error)
	ListByClient(ctx context.Context, exec sqlx.ExtContext, clientID int64) ([]models.ClientSubscription, error)
	ListDetailsByClient(ctx context.Context, clientID int64) ([]models.ClientSubscriptionDetail, error)
	ListAll(ctx context.Context) ([]models.ClientSubscription, error)
	ListExpiring(ctx context.Context, from, to models.Date) ([]models.ClientSubscriptionDetail, error)
	MarkPaid(ctx context.Context, id int64, paymentDate models.Date, at time.Time) (bool, error)
	IncrementVisit(ctx context.Context, exec sqlx.ExtContext, id int64, at time.Time) (bool, error)
}

type subscriptionClientReader interface {
	FindByID(ctx context.Context, id int64) (*models.Client, error)
	ListAll(ctx context.Context) ([]models.Client, error)
}

// SubscriptionService resolves client billing state and mutates the
// assignment ledger.
type SubscriptionService struct {
	plans       planRepository
	assignments assignmentRepository
	clients     subscriptionClientReader
	tx          txProvider
	clock       clock.Clock
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewSubscriptionService wires subscription dependencies.
func NewSubscriptionService(
	plans planRepository,
	assignments assignmentRepository,
	clients subscriptionClientReader,
	tx txProvider,
	clk clock.Clock,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
) *SubscriptionService {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		plans:       plans,
		assignments: assignments,
		clients:     clients,
		tx:          tx,
		clock:       clk,
		validator:   ensureValidator(validate),
		logger:      logger,
		metrics:     metrics,
	}
}

// ListPlans returns every subscription plan.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list plans")
	}
	return plans, nil
}

// GetPlan returns a single plan.
func (s *SubscriptionService) GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	plan, err := s.plans.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrPlanNotFound
		}
		return nil, internalError(err, "failed to load plan")
	}
	return plan, nil
}

// CreatePlan stores a new plan.
func (s *SubscriptionService) CreatePlan(ctx context.Context, req dto.PlanRequest) (*models.SubscriptionPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid plan payload")
	}
	plan := &models.SubscriptionPlan{
		Name:         req.Name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		VisitLimit:   req.VisitLimit,
		Description:  req.Description,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, internalError(err, "failed to create plan")
	}
	return plan, nil
}

// UpdatePlan edits a plan. Assignments already made keep their frozen end
// date and visit total.
func (s *SubscriptionService) UpdatePlan(ctx context.Context, id int64, req dto.PlanRequest) (*models.SubscriptionPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid plan payload")
	}
	plan, err := s.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	plan.Name = req.Name
	plan.Price = req.Price
	plan.DurationDays = req.DurationDays
	plan.VisitLimit = req.VisitLimit
	plan.Description = req.Description
	plan.UpdatedAt = s.clock.Now().UTC()
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, internalError(err, "failed to update plan")
	}
	return plan, nil
}

// DeletePlan removes a plan unless an assignment of it ends today or
// later. Only the end date is checked; unpaid or used-up assignments still
// block deletion.
func (s *SubscriptionService) DeletePlan(ctx context.Context, id int64) error {
	if _, err := s.GetPlan(ctx, id); err != nil {
		return err
	}
	err := inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		inUse, err := s.plans.HasAssignmentsEndingOnOrAfter(ctx, tx, id, today(s.clock))
		if err != nil {
			return internalError(err, "failed to check plan usage")
		}
		if inUse {
			return appErrors.ErrPlanInUse
		}
		if err := s.plans.Delete(ctx, tx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrPlanNotFound
			}
			return internalError(err, "failed to delete plan")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("subscription plan deleted", zap.Int64("plan_id", id))
	return nil
}

// Assign appends a purchase to the client's ledger. The end date and visit
// total are computed from the plan now and never change afterwards.
// Repeated calls always add new rows.
func (s *SubscriptionService) Assign(ctx context.Context, req dto.AssignSubscriptionRequest) (*models.ClientSubscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var created *models.ClientSubscription
	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		plan, err := s.plans.FindByID(ctx, tx, req.PlanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrPlanNotFound
			}
			return internalError(err, "failed to load plan")
		}

		planID := plan.ID
		sub := &models.ClientSubscription{
			ClientID:       req.ClientID,
			SubscriptionID: &planID,
			StartDate:      start,
			EndDate:        start.AddDays(plan.DurationDays),
			VisitsTotal:    plan.VisitLimit,
			IsPaid:         req.IsPaid,
			CreatedAt:      now.UTC(),
		}
		if req.IsPaid {
			paid := models.DateOf(now)
			sub.PaymentDate = &paid
		}
		if err := s.assignments.Create(ctx, tx, sub); err != nil {
			return internalError(err, "failed to create assignment")
		}
		created, err = s.assignments.FindByID(ctx, tx, sub.ID)
		if err != nil {
			return internalError(err, "failed to read back assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAssignment(created.IsPaid)
	s.logger.Info("subscription assigned",
		zap.Int64("client_id", created.ClientID),
		zap.Int64("assignment_id", created.ID),
		zap.String("start_date", created.StartDate.String()),
		zap.String("end_date", created.EndDate.String()),
		zap.Bool("paid", created.IsPaid),
	)
	return created, nil
}

// MarkPaid flags an assignment as paid on paymentDate (today when empty).
// Marking an already paid assignment succeeds without changes.
func (s *SubscriptionService) MarkPaid(ctx context.Context, id int64, req dto.MarkPaidRequest) (*models.ClientSubscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid payment payload")
	}
	sub, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.IsPaid {
		return sub, nil
	}

	paymentDate := today(s.clock)
	if req.PaymentDate != "" {
		if paymentDate, err = parseDate("payment_date", req.PaymentDate); err != nil {
			return nil, err
		}
	}
	if _, err := s.assignments.MarkPaid(ctx, id, paymentDate, s.clock.Now().UTC()); err != nil {
		return nil, internalError(err, "failed to mark assignment paid")
	}
	s.logger.Info("subscription paid", zap.Int64("assignment_id", id), zap.String("payment_date", paymentDate.String()))
	return s.findAssignment(ctx, id)
}

// IncrementVisit consumes one visit if the cap allows it and reports
// whether it did.
func (s *SubscriptionService) IncrementVisit(ctx context.Context, id int64) (bool, error) {
	if _, err := s.findAssignment(ctx, id); err != nil {
		return false, err
	}
	ok, err := s.assignments.IncrementVisit(ctx, nil, id, s.clock.Now().UTC())
	if err != nil {
		return false, internalError(err, "failed to increment visit")
	}
	if ok {
		s.metrics.RecordVisitConsumed()
	}
	return ok, nil
}

// ListForClient returns the full assignment history of a client.
func (s *SubscriptionService) ListForClient(ctx context.Context, clientID int64) ([]models.ClientSubscriptionDetail, error) {
	if err := s.ensureClient(ctx, clientID); err != nil {
		return nil, err
	}
	subs, err := s.assignments.ListDetailsByClient(ctx, clientID)
	if err != nil {
		return nil, internalError(err, "failed to list client subscriptions")
	}
	return subs, nil
}

// GetActiveForClient returns the assignment a visit would be charged to
// today, or nil when none is usable.
func (s *SubscriptionService) GetActiveForClient(ctx context.Context, clientID int64) (*models.ClientSubscription, error) {
	subs, err := s.clientAssignments(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return ActiveAssignment(subs, today(s.clock)), nil
}

// GetCurrentForClient returns the current assignment with its status.
func (s *SubscriptionService) GetCurrentForClient(ctx context.Context, clientID int64) (*models.SubscriptionState, error) {
	subs, err := s.clientAssignments(ctx, clientID)
	if err != nil {
		return nil, err
	}
	day := today(s.clock)
	current := CurrentAssignment(subs, day)
	return &models.SubscriptionState{
		ClientID:   clientID,
		Status:     DeriveStatus(current, day),
		Assignment: current,
	}, nil
}

// Debtors lists clients whose current assignment is not paid: nothing
// started yet, unpaid, or expired by date or visits.
func (s *SubscriptionService) Debtors(ctx context.Context) ([]models.Debtor, error) {
	clients, err := s.clients.ListAll(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list clients")
	}
	all, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list assignments")
	}

	byClient := make(map[int64][]models.ClientSubscription, len(clients))
	for _, sub := range all {
		byClient[sub.ClientID] = append(byClient[sub.ClientID], sub)
	}

	day := today(s.clock)
	debtors := make([]models.Debtor, 0)
	for _, client := range clients {
		current := CurrentAssignment(byClient[client.ID], day)
		status := DeriveStatus(current, day)
		if status == models.SubscriptionStatusPaid {
			continue
		}
		debtors = append(debtors, models.Debtor{Client: client, Status: status, Current: current})
	}
	return debtors, nil
}

// Unpaid is the debtor list under its billing-screen name.
func (s *SubscriptionService) Unpaid(ctx context.Context) ([]models.Debtor, error) {
	return s.Debtors(ctx)
}

// ExpiringSoon lists assignments ending within days from today that still
// have visits left, paid or not. days = 0 means assignments ending today.
func (s *SubscriptionService) ExpiringSoon(ctx context.Context, days int) ([]models.ClientSubscriptionDetail, error) {
	if days < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "days must not be negative")
	}
	from := today(s.clock)
	subs, err := s.assignments.ListExpiring(ctx, from, from.AddDays(days))
	if err != nil {
		return nil, internalError(err, "failed to list expiring subscriptions")
	}
	return subs, nil
}

func (s *SubscriptionService) ensureClient(ctx context.Context, clientID int64) error {
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return internalError(err, "failed to load client")
	}
	return nil
}

func (s *SubscriptionService) clientAssignments(ctx context.Context, clientID int64) ([]models.ClientSubscription, error) {
	if err := s.ensureClient(ctx, clientID); err != nil {
		return nil, err
	}
	subs, err := s.assignments.ListByClient(ctx, nil, clientID)
	if err != nil {
		return nil, internalError(err, "failed to list client subscriptions")
	}
	return subs, nil
}

func (s *SubscriptionService) findAssignment(ctx context.Context, id int64) (*models.ClientSubscription, error) {
	sub, err := s.assignments.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subscription assignment not found")
		}
		return nil, internalError(err, "failed to load assignment")
	}
	return sub, nil
}
