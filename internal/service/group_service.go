package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context) ([]models.GroupDetail, error)
	FindByID(ctx context.Context, id int64) (*models.GroupDetail, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, group *models.Group) error
	Update(ctx context.Context, exec sqlx.ExtContext, group *models.Group) error
	Delete(ctx context.Context, id int64) error
	Schedule(ctx context.Context, exec sqlx.ExtContext, groupID int64) (models.GroupSchedule, error)
	ReplaceSchedule(ctx context.Context, exec sqlx.ExtContext, groupID int64, slots []models.ScheduleSlot) error
	AddMember(ctx context.Context, exec sqlx.ExtContext, member models.GroupMember) (bool, error)
	RemoveMember(ctx context.Context, exec sqlx.ExtContext, groupID, clientID int64) (bool, error)
	Members(ctx context.Context, groupID int64) ([]models.GroupMemberDetail, error)
}

type memberAttendanceWriter interface {
	BackfillForMember(ctx context.Context, exec sqlx.ExtContext, groupID, clientID int64, from models.Date, at time.Time) (int, error)
	DeleteUnmarkedFrom(ctx context.Context, exec sqlx.ExtContext, groupID, clientID int64, from models.Date) (int, error)
}

type trainerReader interface {
	FindByID(ctx context.Context, id int64) (*models.Employee, error)
}

// GroupService manages groups, their weekly schedule and roster.
type GroupService struct {
	groups     groupRepository
	attendance memberAttendanceWriter
	clients    clientReader
	trainers   trainerReader
	tx         txProvider
	clock      clock.Clock
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewGroupService wires group dependencies.
func NewGroupService(
	groups groupRepository,
	attendance memberAttendanceWriter,
	clients clientReader,
	trainers trainerReader,
	tx txProvider,
	clk clock.Clock,
	validate *validator.Validate,
	logger *zap.Logger,
) *GroupService {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{
		groups:     groups,
		attendance: attendance,
		clients:    clients,
		trainers:   trainers,
		tx:         tx,
		clock:      clk,
		validator:  ensureValidator(validate),
		logger:     logger,
	}
}

// List returns all groups.
func (s *GroupService) List(ctx context.Context) ([]models.GroupDetail, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list groups")
	}
	return groups, nil
}

// Get returns a group by id.
func (s *GroupService) Get(ctx context.Context, id int64) (*models.GroupDetail, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, internalError(err, "failed to load group")
	}
	return group, nil
}

// Create stores a new group.
func (s *GroupService) Create(ctx context.Context, req dto.GroupRequest) (*models.GroupDetail, error) {
	group, err := s.buildGroup(ctx, 0, req)
	if err != nil {
		return nil, err
	}
	group.CreatedAt = s.clock.Now().UTC()
	if err := s.groups.Create(ctx, nil, group); err != nil {
		return nil, internalError(err, "failed to create group")
	}
	return s.Get(ctx, group.ID)
}

// Update edits a group.
func (s *GroupService) Update(ctx context.Context, id int64, req dto.GroupRequest) (*models.GroupDetail, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	group, err := s.buildGroup(ctx, id, req)
	if err != nil {
		return nil, err
	}
	group.ID = id
	group.CreatedAt = existing.CreatedAt
	group.UpdatedAt = s.clock.Now().UTC()
	if err := s.groups.Update(ctx, nil, group); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, internalError(err, "failed to update group")
	}
	return s.Get(ctx, id)
}

// Delete removes a group with its schedule, roster, lessons and attendance.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.groups.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return internalError(err, "failed to delete group")
	}
	s.logger.Info("group deleted", zap.Int64("group_id", id))
	return nil
}

// GetSchedule returns the weekly slots of a group.
func (s *GroupService) GetSchedule(ctx context.Context, groupID int64) (models.GroupSchedule, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	schedule, err := s.groups.Schedule(ctx, nil, groupID)
	if err != nil {
		return nil, internalError(err, "failed to load schedule")
	}
	return schedule, nil
}

// SetSchedule replaces the weekly slots of a group. A weekday may hold at
// most one slot.
func (s *GroupService) SetSchedule(ctx context.Context, groupID int64, req dto.ScheduleRequest) (models.GroupSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid schedule payload")
	}
	slots := make([]models.ScheduleSlot, 0, len(req.Slots))
	seen := make(map[int]struct{}, len(req.Slots))
	for _, slot := range req.Slots {
		if _, dup := seen[slot.DayOfWeek]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate day_of_week in schedule")
		}
		seen[slot.DayOfWeek] = struct{}{}
		if slot.StartTime >= slot.EndTime {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
		}
		slots = append(slots, models.ScheduleSlot{DayOfWeek: slot.DayOfWeek, StartTime: slot.StartTime, EndTime: slot.EndTime})
	}
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}

	err := inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.groups.ReplaceSchedule(ctx, tx, groupID, slots); err != nil {
			return internalError(err, "failed to save schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetSchedule(ctx, groupID)
}

// Members returns the roster of a group.
func (s *GroupService) Members(ctx context.Context, groupID int64) ([]models.GroupMemberDetail, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.groups.Members(ctx, groupID)
	if err != nil {
		return nil, internalError(err, "failed to list group members")
	}
	return members, nil
}

// AddMember enrolls a client and back-fills placeholders on every existing
// lesson of the group dated on or after the join date.
func (s *GroupService) AddMember(ctx context.Context, groupID int64, req dto.AddMemberRequest) (*models.GroupMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid member payload")
	}
	joined := today(s.clock)
	if req.JoinedAt != "" {
		var err error
		if joined, err = parseDate("joined_at", req.JoinedAt); err != nil {
			return nil, err
		}
	}
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	member := models.GroupMember{GroupID: groupID, ClientID: req.ClientID, JoinedAt: joined}
	var backfilled int
	err := inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		added, err := s.groups.AddMember(ctx, tx, member)
		if err != nil {
			return internalError(err, "failed to add group member")
		}
		if !added {
			return appErrors.Clone(appErrors.ErrConflict, "client is already a member of the group")
		}
		backfilled, err = s.attendance.BackfillForMember(ctx, tx, groupID, req.ClientID, joined, s.clock.Now().UTC())
		if err != nil {
			return internalError(err, "failed to back-fill attendance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("group member added",
		zap.Int64("group_id", groupID),
		zap.Int64("client_id", req.ClientID),
		zap.String("joined_at", joined.String()),
		zap.Int("placeholders", backfilled),
	)
	return &member, nil
}

// RemoveMember drops a client from a group together with their unmarked
// placeholders on lessons from today on. Past and marked rows are kept.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, clientID int64) error {
	err := inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		removed, err := s.groups.RemoveMember(ctx, tx, groupID, clientID)
		if err != nil {
			return internalError(err, "failed to remove group member")
		}
		if !removed {
			return appErrors.Clone(appErrors.ErrNotFound, "group member not found")
		}
		if _, err := s.attendance.DeleteUnmarkedFrom(ctx, tx, groupID, clientID, today(s.clock)); err != nil {
			return internalError(err, "failed to clear attendance placeholders")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("group member removed", zap.Int64("group_id", groupID), zap.Int64("client_id", clientID))
	return nil
}

func (s *GroupService) buildGroup(ctx context.Context, id int64, req dto.GroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	exists, err := s.groups.ExistsByName(ctx, name, id)
	if err != nil {
		return nil, internalError(err, "failed to check group name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group name already exists")
	}
	if req.TrainerID != nil {
		if _, err := s.trainers.FindByID(ctx, *req.TrainerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
			}
			return nil, internalError(err, "failed to load trainer")
		}
	}
	return &models.Group{Name: name, TrainerID: req.TrainerID, Description: req.Description}, nil
}

func (s *GroupService) ensureClient(ctx context.Context, clientID int64) error {
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return internalError(err, "failed to load client")
	}
	return nil
}
