package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

func mustDate(s string) models.Date { return models.MustParseDate(s) }

func assignment(id int64, start, end string, paid bool, used, total int) models.ClientSubscription {
	return models.ClientSubscription{
		ID:          id,
		ClientID:    1,
		StartDate:   mustDate(start),
		EndDate:     mustDate(end),
		IsPaid:      paid,
		VisitsUsed:  used,
		VisitsTotal: total,
	}
}

func TestCurrentAssignment(t *testing.T) {
	today := mustDate("2025-03-15")

	tests := []struct {
		name   string
		list   []models.ClientSubscription
		wantID int64
	}{
		{name: "empty", list: nil},
		{name: "only future", list: []models.ClientSubscription{assignment(1, "2025-03-16", "2025-04-15", true, 0, 0)}},
		{
			name: "latest start wins even if expired",
			list: []models.ClientSubscription{
				assignment(1, "2025-03-01", "2025-03-31", true, 0, 8),
				assignment(2, "2025-03-10", "2025-03-12", true, 0, 8),
			},
			wantID: 2,
		},
		{
			name: "tie on start goes to highest id",
			list: []models.ClientSubscription{
				assignment(5, "2025-03-01", "2025-03-31", true, 0, 8),
				assignment(9, "2025-03-01", "2025-03-31", false, 0, 8),
				assignment(7, "2025-03-01", "2025-03-31", true, 0, 8),
			},
			wantID: 9,
		},
		{
			name:   "start today counts",
			list:   []models.ClientSubscription{assignment(3, "2025-03-15", "2025-04-14", true, 0, 0)},
			wantID: 3,
		},
		{
			name: "future rows ignored",
			list: []models.ClientSubscription{
				assignment(1, "2025-02-01", "2025-03-03", true, 0, 0),
				assignment(2, "2025-04-01", "2025-05-01", true, 0, 0),
			},
			wantID: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CurrentAssignment(tc.list, today)
			if tc.wantID == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantID, got.ID)
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	today := mustDate("2025-03-15")
	ptr := func(a models.ClientSubscription) *models.ClientSubscription { return &a }

	tests := []struct {
		name    string
		current *models.ClientSubscription
		want    models.SubscriptionStatus
	}{
		{"none", nil, models.SubscriptionStatusNone},
		{"unpaid", ptr(assignment(1, "2025-03-01", "2025-03-31", false, 0, 8)), models.SubscriptionStatusUnpaid},
		{"unpaid beats expired", ptr(assignment(1, "2025-01-01", "2025-01-31", false, 0, 8)), models.SubscriptionStatusUnpaid},
		{"past end", ptr(assignment(1, "2025-02-01", "2025-03-14", true, 0, 8)), models.SubscriptionStatusExpired},
		{"ends today still paid", ptr(assignment(1, "2025-02-13", "2025-03-15", true, 0, 8)), models.SubscriptionStatusPaid},
		{"visits exhausted", ptr(assignment(1, "2025-03-01", "2025-03-31", true, 8, 8)), models.SubscriptionStatusExpired},
		{"unlimited", ptr(assignment(1, "2025-03-01", "2025-03-31", true, 40, 0)), models.SubscriptionStatusPaid},
		{"paid with visits left", ptr(assignment(1, "2025-03-01", "2025-03-31", true, 7, 8)), models.SubscriptionStatusPaid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.current, today))
		})
	}
}

func TestActiveAssignment(t *testing.T) {
	today := mustDate("2025-03-15")

	tests := []struct {
		name   string
		list   []models.ClientSubscription
		wantID int64
	}{
		{name: "nothing usable", list: []models.ClientSubscription{
			assignment(1, "2025-02-01", "2025-03-14", true, 0, 8),
			assignment(2, "2025-03-01", "2025-03-31", true, 8, 8),
			assignment(3, "2025-03-16", "2025-04-15", true, 0, 8),
		}},
		{name: "paid before unpaid", list: []models.ClientSubscription{
			assignment(1, "2025-03-01", "2025-03-20", false, 0, 8),
			assignment(2, "2025-03-01", "2025-03-31", true, 0, 0),
		}, wantID: 2},
		{name: "limited before unlimited", list: []models.ClientSubscription{
			assignment(1, "2025-03-01", "2025-03-20", true, 0, 0),
			assignment(2, "2025-03-01", "2025-03-31", true, 0, 8),
		}, wantID: 2},
		{name: "soonest end", list: []models.ClientSubscription{
			assignment(1, "2025-03-01", "2025-03-31", true, 0, 8),
			assignment(2, "2025-03-01", "2025-03-20", true, 0, 8),
		}, wantID: 2},
		{name: "latest start", list: []models.ClientSubscription{
			assignment(1, "2025-03-01", "2025-03-20", true, 0, 8),
			assignment(2, "2025-03-10", "2025-03-20", true, 0, 8),
		}, wantID: 2},
		{name: "ends today is usable", list: []models.ClientSubscription{
			assignment(4, "2025-02-13", "2025-03-15", false, 3, 8),
		}, wantID: 4},
		{name: "skips exhausted current", list: []models.ClientSubscription{
			assignment(1, "2025-03-01", "2025-03-31", true, 0, 0),
			assignment(2, "2025-03-10", "2025-04-09", true, 8, 8),
		}, wantID: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ActiveAssignment(tc.list, today)
			if tc.wantID == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantID, got.ID)
		})
	}
}

func TestCurrentAndActiveCanDiffer(t *testing.T) {
	today := mustDate("2025-03-15")
	list := []models.ClientSubscription{
		assignment(1, "2025-03-01", "2025-03-31", true, 2, 0),
		assignment(2, "2025-03-10", "2025-04-09", true, 8, 8),
	}

	current := CurrentAssignment(list, today)
	require.NotNil(t, current)
	assert.Equal(t, int64(2), current.ID)
	assert.Equal(t, models.SubscriptionStatusExpired, DeriveStatus(current, today))

	active := ActiveAssignment(list, today)
	require.NotNil(t, active)
	assert.Equal(t, int64(1), active.ID)
}
