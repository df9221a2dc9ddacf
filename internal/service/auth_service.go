package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type authEmployeeRepository interface {
	FindByLogin(ctx context.Context, login string) (*models.Employee, error)
	FindByID(ctx context.Context, id int64) (*models.Employee, error)
	UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService signs staff in and validates their access tokens.
type AuthService struct {
	repo      authEmployeeRepository
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authEmployeeRepository, clk clock.Clock, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "dojo-admin"
	}
	return &AuthService{repo: repo, clock: clk, validator: ensureValidator(validate), logger: logger, config: config}
}

// Login checks staff credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	employee, err := s.repo.FindByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, internalError(err, "failed to fetch employee")
	}
	if !employee.Active {
		return nil, appErrors.ErrInactiveAccount
	}
	if employee.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*employee.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, issuedAt, expiresAt, err := s.generateAccessToken(employee)
	if err != nil {
		return nil, internalError(err, "failed to create access token")
	}
	s.logger.Info("employee signed in", zap.Int64("employee_id", employee.ID))

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(expiresAt.Sub(issuedAt).Seconds()),
		IssuedAt:    issuedAt,
		Employee:    employeeInfo(employee),
	}, nil
}

// Me returns the profile behind a token's claims.
func (s *AuthService) Me(ctx context.Context, employeeID int64) (*models.EmployeeInfo, error) {
	employee, err := s.repo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, internalError(err, "failed to load employee")
	}
	info := employeeInfo(employee)
	return &info, nil
}

// ChangePassword replaces the password of the given employee after
// checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, employeeID int64, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}

	employee, err := s.repo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return internalError(err, "failed to load employee")
	}
	if employee.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*employee.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "current password does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return internalError(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, employeeID, string(hash), s.clock.Now().UTC()); err != nil {
		return internalError(err, "failed to update password")
	}
	s.logger.Info("employee password changed", zap.Int64("employee_id", employeeID))
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(employee *models.Employee) (string, time.Time, time.Time, error) {
	issuedAt := s.clock.Now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	login := ""
	if employee.Login != nil {
		login = *employee.Login
	}
	claims := &models.JWTClaims{
		EmployeeID: employee.ID,
		Login:      login,
		Role:       employee.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(employee.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return signed, issuedAt, expiresAt, nil
}

func employeeInfo(e *models.Employee) models.EmployeeInfo {
	info := models.EmployeeInfo{ID: e.ID, FullName: e.FullName, Role: e.Role}
	if e.Login != nil {
		info.Login = *e.Login
	}
	return info
}
