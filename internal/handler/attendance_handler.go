package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/response"
)

type attendanceService interface {
	SetStatus(ctx context.Context, lessonID int64, req dto.SetAttendanceRequest) (*models.Attendance, error)
	GetForLesson(ctx context.Context, lessonID int64) ([]models.AttendanceRecord, error)
	History(ctx context.Context, clientID int64, query dto.AttendanceHistoryQuery) ([]models.AttendanceHistoryRow, error)
	Summary(ctx context.Context, clientID int64, query dto.AttendanceHistoryQuery) (*models.AttendanceSummary, error)
}

// AttendanceHandler exposes marking and history endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// ForLesson godoc
// @Summary Attendance sheet of a lesson
// @Tags Attendance
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/attendance [get]
func (h *AttendanceHandler) ForLesson(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.service.GetForLesson(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// SetStatus godoc
// @Summary Mark a client on a lesson
// @Description Marking present consumes one visit from the active paid subscription
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body dto.SetAttendanceRequest true "present, absent, sick or empty to clear"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope "NO_ACTIVE_SUBSCRIPTION, SUBSCRIPTION_UNPAID or VISIT_LIMIT_REACHED"
// @Router /lessons/{id}/attendance [put]
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SetAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	mark, err := h.service.SetStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mark, nil)
}

// History godoc
// @Summary Attendance history of a client
// @Tags Attendance
// @Produce json
// @Param id path int true "Client ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /clients/{id}/attendance [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	id, query, ok := h.historyParams(c)
	if !ok {
		return
	}
	rows, err := h.service.History(c.Request.Context(), id, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Summary godoc
// @Summary Attendance counts of a client
// @Tags Attendance
// @Produce json
// @Param id path int true "Client ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /clients/{id}/attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	id, query, ok := h.historyParams(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), id, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func (h *AttendanceHandler) historyParams(c *gin.Context) (int64, dto.AttendanceHistoryQuery, bool) {
	var query dto.AttendanceHistoryQuery
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return 0, query, false
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err))
		return 0, query, false
	}
	return id, query, true
}
