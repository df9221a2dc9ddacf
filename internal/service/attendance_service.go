package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type attendanceRepository interface {
	Find(ctx context.Context, exec sqlx.ExtContext, lessonID, clientID int64) (*models.Attendance, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, lessonID, clientID int64, status *models.AttendanceStatus, at time.Time) error
	ListForLesson(ctx context.Context, lessonID int64) ([]models.AttendanceRecord, error)
	History(ctx context.Context, clientID int64, from, to *models.Date) ([]models.AttendanceHistoryRow, error)
}

type attendanceLessonReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LessonDetail, error)
}

type visitLedger interface {
	ListByClient(ctx context.Context, exec sqlx.ExtContext, clientID int64) ([]models.ClientSubscription, error)
	IncrementVisit(ctx context.Context, exec sqlx.ExtContext, id int64, at time.Time) (bool, error)
}

type clientReader interface {
	FindByID(ctx context.Context, id int64) (*models.Client, error)
}

// AttendanceService records lesson attendance and charges visits to the
// client's active subscription.
type AttendanceService struct {
	attendance  attendanceRepository
	lessons     attendanceLessonReader
	assignments visitLedger
	clients     clientReader
	tx          txProvider
	clock       clock.Clock
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(
	attendance attendanceRepository,
	lessons attendanceLessonReader,
	assignments visitLedger,
	clients clientReader,
	tx txProvider,
	clk clock.Clock,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
) *AttendanceService {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendance:  attendance,
		lessons:     lessons,
		assignments: assignments,
		clients:     clients,
		tx:          tx,
		clock:       clk,
		validator:   ensureValidator(validate),
		logger:      logger,
		metrics:     metrics,
	}
}

// SetStatus writes the mark of one client on a lesson. Entering present
// consumes a visit from the active subscription in the same transaction as
// the write; if no visit can be consumed nothing is written. Leaving present
// does not give the visit back.
func (s *AttendanceService) SetStatus(ctx context.Context, lessonID int64, req dto.SetAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	var status *models.AttendanceStatus
	if req.Status != "" {
		st := models.AttendanceStatus(req.Status)
		status = &st
	}
	if _, err := s.clients.FindByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, internalError(err, "failed to load client")
	}

	now := s.clock.Now()
	var (
		saved    *models.Attendance
		chargeID int64
	)
	err := inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if _, err := s.lessons.FindByID(ctx, tx, lessonID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
			}
			return internalError(err, "failed to load lesson")
		}

		previous, err := s.attendance.Find(ctx, tx, lessonID, req.ClientID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return internalError(err, "failed to load attendance")
		}
		wasPresent := previous != nil && models.IsPresent(previous.Status)

		if models.IsPresent(status) && !wasPresent {
			if chargeID, err = s.consumeVisit(ctx, tx, req.ClientID, models.DateOf(now), now.UTC()); err != nil {
				return err
			}
		}

		if err := s.attendance.Upsert(ctx, tx, lessonID, req.ClientID, status, now.UTC()); err != nil {
			return internalError(err, "failed to save attendance")
		}
		saved, err = s.attendance.Find(ctx, tx, lessonID, req.ClientID)
		if err != nil {
			return internalError(err, "failed to read back attendance")
		}
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	if chargeID != 0 {
		s.metrics.RecordVisitConsumed()
		s.logger.Info("visit consumed",
			zap.Int64("lesson_id", lessonID),
			zap.Int64("client_id", req.ClientID),
			zap.Int64("assignment_id", chargeID),
		)
	}
	mark := "cleared"
	if status != nil {
		mark = string(*status)
	}
	s.metrics.RecordAttendanceMark(mark)
	return saved, nil
}

// consumeVisit resolves the active assignment and increments its counter,
// returning the charged assignment id.
func (s *AttendanceService) consumeVisit(ctx context.Context, tx *sqlx.Tx, clientID int64, day models.Date, at time.Time) (int64, error) {
	subs, err := s.assignments.ListByClient(ctx, tx, clientID)
	if err != nil {
		return 0, internalError(err, "failed to list client subscriptions")
	}
	active := ActiveAssignment(subs, day)
	if active == nil {
		return 0, appErrors.ErrNoActiveSubscription
	}
	if !active.IsPaid {
		return 0, appErrors.ErrSubscriptionUnpaid
	}
	ok, err := s.assignments.IncrementVisit(ctx, tx, active.ID, at)
	if err != nil {
		return 0, internalError(err, "failed to increment visit")
	}
	if !ok {
		return 0, appErrors.ErrVisitLimitReached
	}
	return active.ID, nil
}

func (s *AttendanceService) recordRejection(err error) {
	switch {
	case errors.Is(err, appErrors.ErrNoActiveSubscription):
		s.metrics.RecordAttendanceRejected("no_active_subscription")
	case errors.Is(err, appErrors.ErrSubscriptionUnpaid):
		s.metrics.RecordAttendanceRejected("unpaid")
	case errors.Is(err, appErrors.ErrVisitLimitReached):
		s.metrics.RecordAttendanceRejected("visit_limit")
	}
}

// GetForLesson returns every attendance row of a lesson with client names.
func (s *AttendanceService) GetForLesson(ctx context.Context, lessonID int64) ([]models.AttendanceRecord, error) {
	if _, err := s.lessons.FindByID(ctx, nil, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, internalError(err, "failed to load lesson")
	}
	records, err := s.attendance.ListForLesson(ctx, lessonID)
	if err != nil {
		return nil, internalError(err, "failed to list attendance")
	}
	return records, nil
}

// History lists a client's lessons in the optional date range.
func (s *AttendanceService) History(ctx context.Context, clientID int64, query dto.AttendanceHistoryQuery) ([]models.AttendanceHistoryRow, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid history query")
	}
	from, err := parseOptionalDate("from", query.From)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate("to", query.To)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, internalError(err, "failed to load client")
	}
	rows, err := s.attendance.History(ctx, clientID, from, to)
	if err != nil {
		return nil, internalError(err, "failed to load attendance history")
	}
	return rows, nil
}

// Summary counts a client's marks over the history range.
func (s *AttendanceService) Summary(ctx context.Context, clientID int64, query dto.AttendanceHistoryQuery) (*models.AttendanceSummary, error) {
	rows, err := s.History(ctx, clientID, query)
	if err != nil {
		return nil, err
	}
	return summarize(rows), nil
}

func summarize(rows []models.AttendanceHistoryRow) *models.AttendanceSummary {
	summary := &models.AttendanceSummary{Total: len(rows)}
	for _, row := range rows {
		if row.Status == nil {
			summary.Unmarked++
			continue
		}
		switch *row.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusSick:
			summary.Sick++
		}
	}
	if marked := summary.Total - summary.Unmarked; marked > 0 {
		summary.Percent = math.Round(float64(summary.Present)/float64(marked)*1000) / 10
	}
	return summary
}
