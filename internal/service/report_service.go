package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
	"github.com/noah-isme/dojo-admin-api/pkg/export"
)

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type billingSource interface {
	Debtors(ctx context.Context) ([]models.Debtor, error)
	ExpiringSoon(ctx context.Context, days int) ([]models.ClientSubscriptionDetail, error)
}

type lessonSource interface {
	Get(ctx context.Context, id int64) (*models.LessonDetail, error)
}

type lessonAttendanceSource interface {
	GetForLesson(ctx context.Context, lessonID int64) ([]models.AttendanceRecord, error)
}

var reportContentTypes = map[dto.ReportFormat]string{
	dto.ReportFormatCSV:  "text/csv; charset=utf-8",
	dto.ReportFormatPDF:  "application/pdf",
	dto.ReportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ReportService renders billing and attendance exports.
type ReportService struct {
	billing    billingSource
	lessons    lessonSource
	attendance lessonAttendanceSource
	renderers  map[dto.ReportFormat]renderer
	clock      clock.Clock
	logger     *zap.Logger
}

// NewReportService constructs the report service with the CSV, PDF and XLSX
// renderers.
func NewReportService(billing billingSource, lessons lessonSource, attendance lessonAttendanceSource, clk clock.Clock, logger *zap.Logger) *ReportService {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		billing:    billing,
		lessons:    lessons,
		attendance: attendance,
		renderers: map[dto.ReportFormat]renderer{
			dto.ReportFormatCSV:  export.NewCSVExporter(),
			dto.ReportFormatPDF:  export.NewPDFExporter(),
			dto.ReportFormatXLSX: export.NewXLSXExporter(),
		},
		clock:  clk,
		logger: logger,
	}
}

// Debtors exports the debtor list.
func (s *ReportService) Debtors(ctx context.Context, format dto.ReportFormat) (*dto.ReportFile, error) {
	debtors, err := s.billing.Debtors(ctx)
	if err != nil {
		return nil, err
	}
	return s.render(format, "debtors", DebtorsDataset(debtors))
}

// ExpiringSoon exports assignments ending within days.
func (s *ReportService) ExpiringSoon(ctx context.Context, days int, format dto.ReportFormat) (*dto.ReportFile, error) {
	subs, err := s.billing.ExpiringSoon(ctx, days)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   "Expiring subscriptions",
		Headers: []string{"Client", "Plan", "Start", "End", "Visits", "Paid"},
	}
	for _, sub := range subs {
		data.Rows = append(data.Rows, []string{
			sub.ClientName,
			deref(sub.PlanName),
			sub.StartDate.String(),
			sub.EndDate.String(),
			visitsLabel(sub.ClientSubscription),
			yesNo(sub.IsPaid),
		})
	}
	return s.render(format, "expiring", data)
}

// LessonSheet exports the attendance sheet of one lesson.
func (s *ReportService) LessonSheet(ctx context.Context, lessonID int64, format dto.ReportFormat) (*dto.ReportFile, error) {
	lesson, err := s.lessons.Get(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	records, err := s.attendance.GetForLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   fmt.Sprintf("%s %s %s-%s", lesson.GroupName, lesson.Date, lesson.StartTime, lesson.EndTime),
		Headers: []string{"Client", "Status", "Marked at"},
	}
	for _, rec := range records {
		status, marked := "", ""
		if rec.Status != nil {
			status = string(*rec.Status)
		}
		if rec.MarkedAt != nil {
			marked = rec.MarkedAt.In(s.clock.Now().Location()).Format("2006-01-02 15:04")
		}
		data.Rows = append(data.Rows, []string{rec.ClientName, status, marked})
	}
	return s.render(format, "lesson_"+lesson.Date.String()+"_"+sanitizeFilename(lesson.GroupName), data)
}

// DebtorsDataset lays out the debtor list as an export table.
func DebtorsDataset(debtors []models.Debtor) export.Dataset {
	data := export.Dataset{
		Title:   "Debtors",
		Headers: []string{"Client", "Phone", "Status", "Ends"},
		Rows:    make([][]string, 0, len(debtors)),
	}
	for _, d := range debtors {
		ends := ""
		if d.Current != nil {
			ends = d.Current.EndDate.String()
		}
		data.Rows = append(data.Rows, []string{d.Client.FullName, deref(d.Client.Phone), string(d.Status), ends})
	}
	return data
}

func (s *ReportService) render(format dto.ReportFormat, name string, data export.Dataset) (*dto.ReportFile, error) {
	if format == "" {
		format = dto.ReportFormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	body, err := r.Render(data)
	if err != nil {
		return nil, internalError(err, "failed to render report")
	}
	filename := fmt.Sprintf("%s_%s.%s", name, s.clock.Now().Format("20060102_150405"), format)
	s.logger.Debug("report rendered", zap.String("filename", filename), zap.Int("rows", len(data.Rows)))
	return &dto.ReportFile{Filename: filename, ContentType: reportContentTypes[format], Body: body}, nil
}

func visitsLabel(sub models.ClientSubscription) string {
	if sub.Unlimited() {
		return strconv.Itoa(sub.VisitsUsed) + " (unlimited)"
	}
	return fmt.Sprintf("%d/%d", sub.VisitsUsed, sub.VisitsTotal)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	result := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".").Replace(raw)
	if runes := []rune(result); len(runes) > 60 {
		return string(runes[:60])
	}
	return result
}
