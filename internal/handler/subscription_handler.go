package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/response"
)

type subscriptionService interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, req dto.PlanRequest) (*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, id int64, req dto.PlanRequest) (*models.SubscriptionPlan, error)
	DeletePlan(ctx context.Context, id int64) error
	Assign(ctx context.Context, req dto.AssignSubscriptionRequest) (*models.ClientSubscription, error)
	MarkPaid(ctx context.Context, id int64, req dto.MarkPaidRequest) (*models.ClientSubscription, error)
	IncrementVisit(ctx context.Context, id int64) (bool, error)
	ListForClient(ctx context.Context, clientID int64) ([]models.ClientSubscriptionDetail, error)
	GetActiveForClient(ctx context.Context, clientID int64) (*models.ClientSubscription, error)
	GetCurrentForClient(ctx context.Context, clientID int64) (*models.SubscriptionState, error)
	Debtors(ctx context.Context) ([]models.Debtor, error)
	Unpaid(ctx context.Context) ([]models.Debtor, error)
	ExpiringSoon(ctx context.Context, days int) ([]models.ClientSubscriptionDetail, error)
}

// SubscriptionHandler exposes plans, assignments and billing queries.
type SubscriptionHandler struct {
	service      subscriptionService
	expiringDays int
}

// NewSubscriptionHandler constructs a subscription handler. expiringDays is
// the window used when a request omits days.
func NewSubscriptionHandler(svc subscriptionService, expiringDays int) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc, expiringDays: expiringDays}
}

// ListPlans godoc
// @Summary List subscription plans
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /plans [get]
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// GetPlan godoc
// @Summary Get subscription plan
// @Tags Subscriptions
// @Produce json
// @Param id path int true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{id} [get]
func (h *SubscriptionHandler) GetPlan(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	plan, err := h.service.GetPlan(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// CreatePlan godoc
// @Summary Create subscription plan
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param payload body dto.PlanRequest true "Plan payload"
// @Success 201 {object} response.Envelope
// @Router /plans [post]
func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	plan, err := h.service.CreatePlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// UpdatePlan godoc
// @Summary Update subscription plan
// @Description Existing assignments keep their copied visit totals
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path int true "Plan ID"
// @Param payload body dto.PlanRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{id} [put]
func (h *SubscriptionHandler) UpdatePlan(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	plan, err := h.service.UpdatePlan(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// DeletePlan godoc
// @Summary Delete subscription plan
// @Tags Subscriptions
// @Param id path int true "Plan ID"
// @Success 204
// @Failure 409 {object} response.Envelope "Plan has assignments ending today or later"
// @Router /plans/{id} [delete]
func (h *SubscriptionHandler) DeletePlan(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeletePlan(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign a plan to a client
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param payload body dto.AssignSubscriptionRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Assign(c *gin.Context) {
	var req dto.AssignSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	sub, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// MarkPaid godoc
// @Summary Mark an assignment as paid
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body dto.MarkPaidRequest false "Payment date (defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /subscriptions/{id}/pay [post]
func (h *SubscriptionHandler) MarkPaid(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.MarkPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err))
			return
		}
	}
	sub, err := h.service.MarkPaid(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// IncrementVisit godoc
// @Summary Consume one visit
// @Description Conditional increment; incremented is false when the cap is reached
// @Tags Subscriptions
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /subscriptions/{id}/visits [post]
func (h *SubscriptionHandler) IncrementVisit(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	ok, err := h.service.IncrementVisit(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.IncrementVisitResponse{Incremented: ok}, nil)
}

// ListForClient godoc
// @Summary List a client's assignments
// @Tags Subscriptions
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{id}/subscriptions [get]
func (h *SubscriptionHandler) ListForClient(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	subs, err := h.service.ListForClient(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil)
}

// Active godoc
// @Summary Assignment that would be charged for a visit today
// @Tags Subscriptions
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} response.Envelope "data is null when nothing is usable"
// @Router /clients/{id}/subscriptions/active [get]
func (h *SubscriptionHandler) Active(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	sub, err := h.service.GetActiveForClient(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Current godoc
// @Summary Current assignment with derived status
// @Tags Subscriptions
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{id}/subscriptions/current [get]
func (h *SubscriptionHandler) Current(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	state, err := h.service.GetCurrentForClient(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Debtors godoc
// @Summary Clients whose current assignment is not paid
// @Tags Billing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /billing/debtors [get]
func (h *SubscriptionHandler) Debtors(c *gin.Context) {
	debtors, err := h.service.Debtors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, debtors, nil, map[string]interface{}{"count": len(debtors)})
}

// Unpaid godoc
// @Summary Alias of debtors
// @Tags Billing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /billing/unpaid [get]
func (h *SubscriptionHandler) Unpaid(c *gin.Context) {
	debtors, err := h.service.Unpaid(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, debtors, nil, map[string]interface{}{"count": len(debtors)})
}

// ExpiringSoon godoc
// @Summary Assignments ending within the window
// @Tags Billing
// @Produce json
// @Param days query int false "Window in days (defaults to configuration)"
// @Success 200 {object} response.Envelope
// @Router /billing/expiring [get]
func (h *SubscriptionHandler) ExpiringSoon(c *gin.Context) {
	days, err := expiringWindow(c, h.expiringDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	subs, err := h.service.ExpiringSoon(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil)
}
