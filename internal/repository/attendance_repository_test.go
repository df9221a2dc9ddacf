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

func TestInsertPlaceholdersUsesInsertOrIgnore(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	stmt := regexp.QuoteMeta("INSERT OR IGNORE INTO attendance (lesson_id, client_id, created_at) VALUES (?, ?, ?)")
	mock.ExpectExec(stmt).WithArgs(int64(5), int64(1), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(stmt).WithArgs(int64(5), int64(2), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.InsertPlaceholders(context.Background(), nil, 5, []int64{1, 2}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillStartsAtJoinDate(t *testing.T) {
	f := newFixture(t)
	repo := NewAttendanceRepository(f.db)
	ctx := context.Background()

	groupID := f.group("Kids")
	otherGroup := f.group("Adults")
	before := f.lesson(groupID, "2025-03-03")
	onJoin := f.lesson(groupID, "2025-03-05")
	after := f.lesson(groupID, "2025-03-10")
	f.lesson(otherGroup, "2025-03-10")
	clientID := f.client("Masha")

	n, err := repo.BackfillForMember(ctx, nil, groupID, clientID, models.MustParseDate("2025-03-05"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.Find(ctx, nil, before, clientID)
	assert.Error(t, err)
	for _, lessonID := range []int64{onJoin, after} {
		row, err := repo.Find(ctx, nil, lessonID, clientID)
		require.NoError(t, err)
		assert.Nil(t, row.Status)
	}

	n, err = repo.BackfillForMember(ctx, nil, groupID, clientID, models.MustParseDate("2025-03-01"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	f := newFixture(t)
	repo := NewAttendanceRepository(f.db)
	ctx := context.Background()

	groupID := f.group("Kids")
	lessonID := f.lesson(groupID, "2025-03-03")
	clientID := f.client("Masha")

	sick := models.AttendanceStatusSick
	require.NoError(t, repo.Upsert(ctx, nil, lessonID, clientID, &sick, time.Now()))
	row, err := repo.Find(ctx, nil, lessonID, clientID)
	require.NoError(t, err)
	require.NotNil(t, row.Status)
	assert.Equal(t, models.AttendanceStatusSick, *row.Status)
	require.NotNil(t, row.MarkedAt)

	require.NoError(t, repo.Upsert(ctx, nil, lessonID, clientID, nil, time.Now()))
	row2, err := repo.Find(ctx, nil, lessonID, clientID)
	require.NoError(t, err)
	assert.Equal(t, row.ID, row2.ID)
	assert.Nil(t, row2.Status)

	var count int
	require.NoError(t, f.db.Get(&count, `SELECT COUNT(*) FROM attendance`))
	assert.Equal(t, 1, count)
}

func TestDeleteUnmarkedFromKeepsMarkedAndPast(t *testing.T) {
	f := newFixture(t)
	repo := NewAttendanceRepository(f.db)
	ctx := context.Background()

	groupID := f.group("Kids")
	past := f.lesson(groupID, "2025-03-01")
	marked := f.lesson(groupID, "2025-03-10")
	open := f.lesson(groupID, "2025-03-12")
	clientID := f.client("Masha")

	_, err := repo.InsertPlaceholders(ctx, nil, past, []int64{clientID}, time.Now())
	require.NoError(t, err)
	_, err = repo.InsertPlaceholders(ctx, nil, open, []int64{clientID}, time.Now())
	require.NoError(t, err)
	absent := models.AttendanceStatusAbsent
	require.NoError(t, repo.Upsert(ctx, nil, marked, clientID, &absent, time.Now()))

	n, err := repo.DeleteUnmarkedFrom(ctx, nil, groupID, clientID, models.MustParseDate("2025-03-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	history, err := repo.History(ctx, clientID, nil, nil)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, past, history[0].LessonID)
	assert.Equal(t, marked, history[1].LessonID)
	assert.Equal(t, "Kids", history[1].GroupName)

	from := models.MustParseDate("2025-03-05")
	ranged, err := repo.History(ctx, clientID, &from, nil)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, models.MustParseDate("2025-03-10"), ranged[0].Date)
}

func TestListForLessonOrdersByName(t *testing.T) {
	f := newFixture(t)
	repo := NewAttendanceRepository(f.db)
	ctx := context.Background()

	groupID := f.group("Kids")
	lessonID := f.lesson(groupID, "2025-03-03")
	zoe := f.client("Zoe")
	adam := f.client("Adam")

	_, err := repo.InsertPlaceholders(ctx, nil, lessonID, []int64{zoe, adam}, time.Now())
	require.NoError(t, err)

	sheet, err := repo.ListForLesson(ctx, lessonID)
	require.NoError(t, err)
	require.Len(t, sheet, 2)
	assert.Equal(t, "Adam", sheet[0].ClientName)
	assert.Equal(t, "Zoe", sheet[1].ClientName)
}
