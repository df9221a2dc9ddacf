package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

func TestLessonCreateListAndDeleteCascades(t *testing.T) {
	f := newFixture(t)
	lessons := NewLessonRepository(f.db)
	attendance := NewAttendanceRepository(f.db)
	ctx := context.Background()

	groupID := f.group("Kids")
	clientID := f.client("Masha")

	lesson := &models.Lesson{GroupID: groupID, Date: models.MustParseDate("2025-03-03"), StartTime: "18:00", EndTime: "19:00"}
	require.NoError(t, lessons.Create(ctx, nil, lesson))
	later := &models.Lesson{GroupID: groupID, Date: models.MustParseDate("2025-03-10"), StartTime: "18:00", EndTime: "19:00"}
	require.NoError(t, lessons.Create(ctx, nil, later))
	_, err := attendance.InsertPlaceholders(ctx, nil, lesson.ID, []int64{clientID}, lesson.CreatedAt)
	require.NoError(t, err)

	exists, err := lessons.ExistsForGroupDate(ctx, nil, groupID, models.MustParseDate("2025-03-03"))
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = lessons.ExistsForGroupDate(ctx, nil, groupID, models.MustParseDate("2025-03-04"))
	require.NoError(t, err)
	assert.False(t, exists)

	to := models.MustParseDate("2025-03-05")
	list, err := lessons.List(ctx, models.LessonFilter{GroupID: groupID, To: &to})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Kids", list[0].GroupName)

	require.NoError(t, lessons.Delete(ctx, lesson.ID))
	var rows int
	require.NoError(t, f.db.Get(&rows, `SELECT COUNT(*) FROM attendance`))
	assert.Zero(t, rows)
}
