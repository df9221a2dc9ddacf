package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

func TestEmployeeRepositoryFindByLogin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "full_name", "phone", "position", "login", "password_hash", "role", "active", "created_at", "updated_at"}).
		AddRow(1, "Admin", nil, nil, "admin", "hash", "admin", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + employeeColumns + " FROM employees WHERE login = ? LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(rows)

	employee, err := repo.FindByLogin(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeRoleAdmin, employee.Role)
	require.NotNil(t, employee.PasswordHash)
	assert.Equal(t, "hash", *employee.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListFilters(t *testing.T) {
	f := newFixture(t)
	repo := NewEmployeeRepository(f.db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Employee{FullName: "Coach A", Role: models.EmployeeRoleTrainer, Active: true}))
	require.NoError(t, repo.Create(ctx, &models.Employee{FullName: "Coach B", Role: models.EmployeeRoleTrainer, Active: false}))

	role := models.EmployeeRoleTrainer
	active := true
	list, err := repo.List(ctx, models.EmployeeFilter{Role: &role, Active: &active})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Coach A", list[0].FullName)

	all, err := repo.List(ctx, models.EmployeeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	exists, err := repo.ExistsByLogin(ctx, "admin", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}
