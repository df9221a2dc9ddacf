package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/pkg/response"
)

type reportService interface {
	Debtors(ctx context.Context, format dto.ReportFormat) (*dto.ReportFile, error)
	ExpiringSoon(ctx context.Context, days int, format dto.ReportFormat) (*dto.ReportFile, error)
	LessonSheet(ctx context.Context, lessonID int64, format dto.ReportFormat) (*dto.ReportFile, error)
}

// ReportHandler exposes file exports.
type ReportHandler struct {
	reports      reportService
	expiringDays int
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, expiringDays int) *ReportHandler {
	return &ReportHandler{reports: reports, expiringDays: expiringDays}
}

// Debtors godoc
// @Summary Export the debtor list
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /reports/debtors [get]
func (h *ReportHandler) Debtors(c *gin.Context) {
	format, ok := reportFormat(c)
	if !ok {
		return
	}
	file, err := h.reports.Debtors(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Expiring godoc
// @Summary Export assignments ending soon
// @Tags Reports
// @Produce octet-stream
// @Param days query int false "Window in days"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /reports/expiring [get]
func (h *ReportHandler) Expiring(c *gin.Context) {
	format, ok := reportFormat(c)
	if !ok {
		return
	}
	days, err := expiringWindow(c, h.expiringDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.reports.ExpiringSoon(c.Request.Context(), days, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// LessonSheet godoc
// @Summary Export the attendance sheet of a lesson
// @Tags Reports
// @Produce octet-stream
// @Param id path int true "Lesson ID"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /reports/lessons/{id} [get]
func (h *ReportHandler) LessonSheet(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	format, ok := reportFormat(c)
	if !ok {
		return
	}
	file, err := h.reports.LessonSheet(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func reportFormat(c *gin.Context) (dto.ReportFormat, bool) {
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err))
		return "", false
	}
	return query.Format, true
}
