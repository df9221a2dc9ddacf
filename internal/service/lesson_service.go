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

// maxGenerateDays bounds a single schedule expansion.
const maxGenerateDays = 366

type lessonRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.Lesson) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LessonDetail, error)
	ExistsForGroupDate(ctx context.Context, exec sqlx.ExtContext, groupID int64, day models.Date) (bool, error)
	List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error)
	Delete(ctx context.Context, id int64) error
}

type lessonGroupReader interface {
	FindByID(ctx context.Context, id int64) (*models.GroupDetail, error)
	Schedule(ctx context.Context, exec sqlx.ExtContext, groupID int64) (models.GroupSchedule, error)
	MemberIDs(ctx context.Context, exec sqlx.ExtContext, groupID int64) ([]int64, error)
}

type placeholderWriter interface {
	InsertPlaceholders(ctx context.Context, exec sqlx.ExtContext, lessonID int64, clientIDs []int64, at time.Time) (int, error)
}

// LessonService creates dated lessons, one by one or from a group's weekly
// schedule, fanning out attendance placeholders for the group roster.
type LessonService struct {
	lessons    lessonRepository
	groups     lessonGroupReader
	attendance placeholderWriter
	tx         txProvider
	clock      clock.Clock
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
}

// NewLessonService wires lesson dependencies.
func NewLessonService(
	lessons lessonRepository,
	groups lessonGroupReader,
	attendance placeholderWriter,
	tx txProvider,
	clk clock.Clock,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
) *LessonService {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{
		lessons:    lessons,
		groups:     groups,
		attendance: attendance,
		tx:         tx,
		clock:      clk,
		validator:  ensureValidator(validate),
		logger:     logger,
		metrics:    metrics,
	}
}

// List returns lessons filtered by group and date range.
func (s *LessonService) List(ctx context.Context, query dto.LessonQuery) ([]models.LessonDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid lesson query")
	}
	from, err := parseOptionalDate("from", query.From)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate("to", query.To)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.List(ctx, models.LessonFilter{GroupID: query.GroupID, From: from, To: to})
	if err != nil {
		return nil, internalError(err, "failed to list lessons")
	}
	return lessons, nil
}

// Get returns a lesson.
func (s *LessonService) Get(ctx context.Context, id int64) (*models.LessonDetail, error) {
	lesson, err := s.lessons.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, internalError(err, "failed to load lesson")
	}
	return lesson, nil
}

// Create stores a lesson and a placeholder for every current member of its
// group.
func (s *LessonService) Create(ctx context.Context, req dto.LessonRequest) (*models.LessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lesson payload")
	}
	day, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	if err := s.ensureGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	var created *models.LessonDetail
	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		lesson := &models.Lesson{
			GroupID:   req.GroupID,
			Date:      day,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Topic:     req.Topic,
			CreatedAt: s.clock.Now().UTC(),
		}
		if err := s.insertWithPlaceholders(ctx, tx, lesson); err != nil {
			return err
		}
		var err error
		created, err = s.lessons.FindByID(ctx, tx, lesson.ID)
		if err != nil {
			return internalError(err, "failed to read back lesson")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLessonsCreated("manual", 1)
	return created, nil
}

// GenerateFromSchedule walks every day of [start, end] and creates a lesson
// on each day the group's schedule has a slot for, unless the group already
// has a lesson that day. Only the created lessons are returned; a group
// without schedule yields an empty list.
func (s *LessonService) GenerateFromSchedule(ctx context.Context, req dto.GenerateLessonsRequest) ([]models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid generation payload")
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must not be after end_date")
	}
	if end.After(start.AddDays(maxGenerateDays)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range is too long")
	}
	if err := s.ensureGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	created := make([]models.Lesson, 0)
	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		created = created[:0]
		schedule, err := s.groups.Schedule(ctx, tx, req.GroupID)
		if err != nil {
			return internalError(err, "failed to load schedule")
		}
		if len(schedule) == 0 {
			return nil
		}

		now := s.clock.Now().UTC()
		for day := start; !day.After(end); day = day.AddDays(1) {
			slot, ok := schedule.SlotFor(day.WeekdayIndex())
			if !ok {
				continue
			}
			exists, err := s.lessons.ExistsForGroupDate(ctx, tx, req.GroupID, day)
			if err != nil {
				return internalError(err, "failed to check existing lessons")
			}
			if exists {
				continue
			}
			lesson := models.Lesson{
				GroupID:   req.GroupID,
				Date:      day,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				CreatedAt: now,
			}
			if err := s.insertWithPlaceholders(ctx, tx, &lesson); err != nil {
				return err
			}
			created = append(created, lesson)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLessonsCreated("schedule", len(created))
	s.logger.Info("lessons generated",
		zap.Int64("group_id", req.GroupID),
		zap.String("start_date", start.String()),
		zap.String("end_date", end.String()),
		zap.Int("created", len(created)),
	)
	return created, nil
}

// Delete removes a lesson; its attendance rows go with it.
func (s *LessonService) Delete(ctx context.Context, id int64) error {
	if err := s.lessons.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return internalError(err, "failed to delete lesson")
	}
	return nil
}

func (s *LessonService) insertWithPlaceholders(ctx context.Context, tx *sqlx.Tx, lesson *models.Lesson) error {
	if err := s.lessons.Create(ctx, tx, lesson); err != nil {
		return internalError(err, "failed to create lesson")
	}
	members, err := s.groups.MemberIDs(ctx, tx, lesson.GroupID)
	if err != nil {
		return internalError(err, "failed to list group members")
	}
	if _, err := s.attendance.InsertPlaceholders(ctx, tx, lesson.ID, members, lesson.CreatedAt); err != nil {
		return internalError(err, "failed to create attendance placeholders")
	}
	return nil
}

func (s *LessonService) ensureGroup(ctx context.Context, groupID int64) error {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return internalError(err, "failed to load group")
	}
	return nil
}
