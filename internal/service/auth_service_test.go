package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type mockEmployeeRepo struct {
	employees         map[int64]*models.Employee
	updatePasswordErr error
}

func newMockEmployeeRepo(employees ...*models.Employee) *mockEmployeeRepo {
	repo := &mockEmployeeRepo{employees: map[int64]*models.Employee{}}
	for _, e := range employees {
		repo.employees[e.ID] = e
	}
	return repo
}

func (m *mockEmployeeRepo) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	var out []models.Employee
	for _, e := range m.employees {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEmployeeRepo) FindByID(ctx context.Context, id int64) (*models.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockEmployeeRepo) FindByLogin(ctx context.Context, login string) (*models.Employee, error) {
	for _, e := range m.employees {
		if e.Login != nil && *e.Login == login {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepo) ExistsByLogin(ctx context.Context, login string, excludeID int64) (bool, error) {
	for id, e := range m.employees {
		if id != excludeID && e.Login != nil && *e.Login == login {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEmployeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	employee.ID = int64(len(m.employees) + 1)
	m.employees[employee.ID] = employee
	return nil
}

func (m *mockEmployeeRepo) Update(ctx context.Context, employee *models.Employee) error {
	m.employees[employee.ID] = employee
	return nil
}

func (m *mockEmployeeRepo) UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	m.employees[id].PasswordHash = &hash
	return nil
}

func (m *mockEmployeeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.employees[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.employees, id)
	return nil
}

func staff(id int64, login, password string, active bool) *models.Employee {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	h := string(hash)
	return &models.Employee{ID: id, FullName: "Staff " + login, Login: &login, PasswordHash: &h, Role: models.EmployeeRoleAdmin, Active: active}
}

func newAuthFixture(repo *mockEmployeeRepo, clk clock.Clock) *AuthService {
	return NewAuthService(repo, clk, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	svc := newAuthFixture(newMockEmployeeRepo(staff(1, "sensei", "password", true)), clk)

	res, err := svc.Login(context.Background(), models.LoginRequest{Login: "sensei", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "sensei", res.Employee.Login)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.EmployeeID)
	assert.Equal(t, models.EmployeeRoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	repo := newMockEmployeeRepo(staff(1, "sensei", "password", true), staff(2, "retired", "password", false))
	svc := newAuthFixture(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "sensei", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Login: "ghost", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Login: "retired", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	_, err = svc.Login(context.Background(), models.LoginRequest{Login: "sensei"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	svc := newAuthFixture(newMockEmployeeRepo(staff(1, "sensei", "password", true)), clk)

	res, err := svc.Login(context.Background(), models.LoginRequest{Login: "sensei", Password: "password"})
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = svc.ValidateToken(res.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockEmployeeRepo(staff(1, "sensei", "password", true))
	svc := newAuthFixture(repo, nil)

	err := svc.ChangePassword(context.Background(), 1, models.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newsecret"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.ChangePassword(context.Background(), 1, models.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newsecret"}))
	_, err = svc.Login(context.Background(), models.LoginRequest{Login: "sensei", Password: "newsecret"})
	require.NoError(t, err)
}
