package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type clientRepository interface {
	List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error)
	FindByID(ctx context.Context, id int64) (*models.Client, error)
	ExistsByNameAndBirthDate(ctx context.Context, fullName string, birthDate *models.Date, excludeID int64) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, client *models.Client) error
	Update(ctx context.Context, exec sqlx.ExtContext, client *models.Client) error
	Delete(ctx context.Context, id int64) error
	ReplaceParents(ctx context.Context, exec sqlx.ExtContext, clientID int64, parents []models.ClientParent) error
}

// ClientService handles client CRUD and search.
type ClientService struct {
	repo      clientRepository
	tx        txProvider
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService constructs a ClientService.
func NewClientService(repo clientRepository, tx txProvider, clk clock.Clock, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{repo: repo, tx: tx, clock: clk, validator: ensureValidator(validate), logger: logger}
}

// List returns clients with pagination metadata. Search matches name or
// phone regardless of case.
func (s *ClientService) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	clients, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list clients")
	}
	return clients, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a client with guardians.
func (s *ClientService) Get(ctx context.Context, id int64) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, internalError(err, "failed to load client")
	}
	return client, nil
}

// Create stores a client and its guardians in one transaction.
func (s *ClientService) Create(ctx context.Context, req dto.ClientRequest) (*models.Client, error) {
	client, parents, err := s.build(ctx, 0, req)
	if err != nil {
		return nil, err
	}
	client.CreatedAt = s.clock.Now().UTC()

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, client); err != nil {
			return internalError(err, "failed to create client")
		}
		if err := s.repo.ReplaceParents(ctx, tx, client.ID, parents); err != nil {
			return internalError(err, "failed to save client parents")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("client created", zap.Int64("client_id", client.ID))
	return s.Get(ctx, client.ID)
}

// Update edits a client. Guardians are replaced only when the payload
// carries them.
func (s *ClientService) Update(ctx context.Context, id int64, req dto.ClientRequest) (*models.Client, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	client, parents, err := s.build(ctx, id, req)
	if err != nil {
		return nil, err
	}
	client.ID = id
	client.CreatedAt = existing.CreatedAt
	client.UpdatedAt = s.clock.Now().UTC()

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Update(ctx, tx, client); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "client not found")
			}
			return internalError(err, "failed to update client")
		}
		if req.Parents == nil {
			return nil
		}
		if err := s.repo.ReplaceParents(ctx, tx, id, parents); err != nil {
			return internalError(err, "failed to save client parents")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a client with guardians, memberships, assignments and
// attendance.
func (s *ClientService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return internalError(err, "failed to delete client")
	}
	s.logger.Info("client deleted", zap.Int64("client_id", id))
	return nil
}

func (s *ClientService) build(ctx context.Context, id int64, req dto.ClientRequest) (*models.Client, []models.ClientParent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err, "invalid client payload")
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "full_name is required")
	}
	birthDate, err := parseOptionalDate("birth_date", req.BirthDate)
	if err != nil {
		return nil, nil, err
	}

	dup, err := s.repo.ExistsByNameAndBirthDate(ctx, name, birthDate, id)
	if err != nil {
		return nil, nil, internalError(err, "failed to check duplicate client")
	}
	if dup {
		return nil, nil, appErrors.ErrDuplicateClient
	}

	client := &models.Client{
		FullName:       name,
		BirthDate:      birthDate,
		Phone:          trimOptional(req.Phone),
		DocumentType:   trimOptional(req.DocumentType),
		DocumentNumber: trimOptional(req.DocumentNumber),
		Notes:          req.Notes,
	}
	parents := make([]models.ClientParent, 0, len(req.Parents))
	for _, p := range req.Parents {
		parents = append(parents, models.ClientParent{
			FullName: strings.TrimSpace(p.FullName),
			Phone:    trimOptional(p.Phone),
			Relation: trimOptional(p.Relation),
		})
	}
	return client, parents, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
