package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestClientSearchIsCaseInsensitiveForCyrillic(t *testing.T) {
	f := newFixture(t)
	repo := NewClientRepository(f.db)
	ctx := context.Background()

	for _, c := range []*models.Client{
		{FullName: "Иванов Пётр", Phone: strPtr("+7 900 111-22-33")},
		{FullName: "Smith John"},
		{FullName: "Петрова Анна"},
	} {
		require.NoError(t, repo.Create(ctx, nil, c))
	}

	list, total, err := repo.List(ctx, models.ClientFilter{Search: "ИВАНОВ"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Иванов Пётр", list[0].FullName)

	list, _, err = repo.List(ctx, models.ClientFilter{Search: "петр"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, _, err = repo.List(ctx, models.ClientFilter{Search: "111-22"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, _, err = repo.List(ctx, models.ClientFilter{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClientDuplicateCheckTreatsNullBirthDate(t *testing.T) {
	f := newFixture(t)
	repo := NewClientRepository(f.db)
	ctx := context.Background()

	birth := models.MustParseDate("2012-05-04")
	withDate := &models.Client{FullName: "Anna", BirthDate: &birth}
	require.NoError(t, repo.Create(ctx, nil, withDate))
	require.NoError(t, repo.Create(ctx, nil, &models.Client{FullName: "Boris"}))

	dup, err := repo.ExistsByNameAndBirthDate(ctx, "Anna", &birth, 0)
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = repo.ExistsByNameAndBirthDate(ctx, "Anna", &birth, withDate.ID)
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = repo.ExistsByNameAndBirthDate(ctx, "Anna", nil, 0)
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = repo.ExistsByNameAndBirthDate(ctx, "Boris", nil, 0)
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestClientParentsReplacedAndCascaded(t *testing.T) {
	f := newFixture(t)
	repo := NewClientRepository(f.db)
	ctx := context.Background()

	client := &models.Client{FullName: "Kid"}
	require.NoError(t, repo.Create(ctx, nil, client))
	require.NoError(t, repo.ReplaceParents(ctx, nil, client.ID, []models.ClientParent{
		{FullName: "Mother", Relation: strPtr("mother")},
		{FullName: "Father"},
	}))
	require.NoError(t, repo.ReplaceParents(ctx, nil, client.ID, []models.ClientParent{{FullName: "Grandma"}}))

	stored, err := repo.FindByID(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, stored.Parents, 1)
	assert.Equal(t, "Grandma", stored.Parents[0].FullName)

	require.NoError(t, repo.Delete(ctx, client.ID))
	var parents int
	require.NoError(t, f.db.Get(&parents, `SELECT COUNT(*) FROM client_parents`))
	assert.Zero(t, parents)
}

func TestClientListFiltersByGroup(t *testing.T) {
	f := newFixture(t)
	repo := NewClientRepository(f.db)
	ctx := context.Background()

	groupID := f.group("Kids")
	inGroup := f.client("Alice")
	f.client("Bob")
	f.member(groupID, inGroup, "2025-01-01")

	list, total, err := repo.List(ctx, models.ClientFilter{GroupID: groupID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, inGroup, list[0].ID)
}
