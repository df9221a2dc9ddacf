package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error)
	FindByID(ctx context.Context, id int64) (*models.Employee, error)
	ExistsByLogin(ctx context.Context, login string, excludeID int64) (bool, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// EmployeeService handles staff management.
type EmployeeService struct {
	repo      employeeRepository
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService creates an instance of EmployeeService.
func NewEmployeeService(repo employeeRepository, clk clock.Clock, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, clock: clk, validator: ensureValidator(validate), logger: logger}
}

// List returns staff members.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	employees, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list employees")
	}
	return employees, nil
}

// Get returns a staff member by id.
func (s *EmployeeService) Get(ctx context.Context, id int64) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, internalError(err, "failed to load employee")
	}
	return employee, nil
}

// Create adds a staff member. A login requires a password.
func (s *EmployeeService) Create(ctx context.Context, req dto.EmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	login := trimOptional(req.Login)
	if login != nil && req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password is required when login is set")
	}
	if err := s.ensureLoginFree(ctx, login, 0); err != nil {
		return nil, err
	}

	employee := &models.Employee{
		FullName:  strings.TrimSpace(req.FullName),
		Phone:     trimOptional(req.Phone),
		Position:  trimOptional(req.Position),
		Login:     login,
		Role:      models.EmployeeRole(req.Role),
		Active:    true,
		CreatedAt: s.clock.Now().UTC(),
	}
	if req.Active != nil {
		employee.Active = *req.Active
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		h := string(hash)
		employee.PasswordHash = &h
	}

	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, internalError(err, "failed to create employee")
	}
	s.logger.Info("employee created", zap.Int64("employee_id", employee.ID), zap.String("role", string(employee.Role)))
	return employee, nil
}

// Update modifies a staff member; the password changes only when given.
func (s *EmployeeService) Update(ctx context.Context, id int64, req dto.EmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	login := trimOptional(req.Login)
	if login != nil && employee.PasswordHash == nil && req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password is required when login is set")
	}
	if err := s.ensureLoginFree(ctx, login, id); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	employee.FullName = strings.TrimSpace(req.FullName)
	employee.Phone = trimOptional(req.Phone)
	employee.Position = trimOptional(req.Position)
	employee.Login = login
	employee.Role = models.EmployeeRole(req.Role)
	if req.Active != nil {
		employee.Active = *req.Active
	}
	employee.UpdatedAt = now

	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, internalError(err, "failed to update employee")
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		if err := s.repo.UpdatePassword(ctx, id, string(hash), now); err != nil {
			return nil, internalError(err, "failed to update password")
		}
		h := string(hash)
		employee.PasswordHash = &h
	}
	return employee, nil
}

// Delete removes a staff member. Groups they trained lose their trainer.
func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return internalError(err, "failed to delete employee")
	}
	s.logger.Info("employee deleted", zap.Int64("employee_id", id))
	return nil
}

func (s *EmployeeService) ensureLoginFree(ctx context.Context, login *string, excludeID int64) error {
	if login == nil {
		return nil
	}
	taken, err := s.repo.ExistsByLogin(ctx, *login, excludeID)
	if err != nil {
		return internalError(err, "failed to check login uniqueness")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "login already exists")
	}
	return nil
}
