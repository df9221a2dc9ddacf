package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestEmployeeServiceCreateHashesPassword(t *testing.T) {
	repo := newMockEmployeeRepo()
	svc := NewEmployeeService(repo, nil, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), dto.EmployeeRequest{
		FullName: " Hiro Tanaka ",
		Login:    strPtr("hiro"),
		Password: "secret1",
		Role:     "trainer",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hiro Tanaka", created.FullName)
	assert.True(t, created.Active)
	require.NotNil(t, created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*created.PasswordHash), []byte("secret1")))

	_, err = svc.Create(context.Background(), dto.EmployeeRequest{FullName: "Other", Login: strPtr("hiro"), Password: "secret2", Role: "admin"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestEmployeeServiceLoginNeedsPassword(t *testing.T) {
	repo := newMockEmployeeRepo()
	svc := NewEmployeeService(repo, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), dto.EmployeeRequest{FullName: "No Pass", Login: strPtr("nopass"), Role: "trainer"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	trainer, err := svc.Create(context.Background(), dto.EmployeeRequest{FullName: "Floor Trainer", Role: "trainer"})
	require.NoError(t, err)
	assert.Nil(t, trainer.PasswordHash)

	_, err = svc.Update(context.Background(), trainer.ID, dto.EmployeeRequest{FullName: "Floor Trainer", Login: strPtr("floor"), Role: "trainer"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	updated, err := svc.Update(context.Background(), trainer.ID, dto.EmployeeRequest{FullName: "Floor Trainer", Login: strPtr("floor"), Password: "secret9", Role: "trainer"})
	require.NoError(t, err)
	require.NotNil(t, updated.PasswordHash)

	_, err = svc.Create(context.Background(), dto.EmployeeRequest{FullName: "Bad Role", Role: "owner"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEmployeeServiceDeleteNotFound(t *testing.T) {
	svc := NewEmployeeService(newMockEmployeeRepo(), nil, nil, zap.NewNop())
	assert.ErrorIs(t, svc.Delete(context.Background(), 42), appErrors.ErrNotFound)
}
