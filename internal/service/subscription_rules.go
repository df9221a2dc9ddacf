package service

import (
	"sort"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

// CurrentAssignment picks the assignment that defines a client's billing
// status: the latest start_date on or before today, ties going to the
// highest id. End dates and remaining visits are not considered, so the
// result may already be expired. It returns nil when every assignment
// starts after today.
func CurrentAssignment(assignments []models.ClientSubscription, today models.Date) *models.ClientSubscription {
	var current *models.ClientSubscription
	for i := range assignments {
		a := &assignments[i]
		if a.StartDate.After(today) {
			continue
		}
		if current == nil {
			current = a
			continue
		}
		switch cmp := a.StartDate.Compare(current.StartDate); {
		case cmp > 0, cmp == 0 && a.ID > current.ID:
			current = a
		}
	}
	if current == nil {
		return nil
	}
	out := *current
	return &out
}

// DeriveStatus maps the current assignment to a status. Payment is checked
// before expiry so an unpaid, lapsed assignment reports unpaid.
func DeriveStatus(current *models.ClientSubscription, today models.Date) models.SubscriptionStatus {
	switch {
	case current == nil:
		return models.SubscriptionStatusNone
	case !current.IsPaid:
		return models.SubscriptionStatusUnpaid
	case current.EndDate.Before(today), current.Exhausted():
		return models.SubscriptionStatusExpired
	default:
		return models.SubscriptionStatusPaid
	}
}

// Usable reports whether an assignment covers today and still has visits.
func Usable(a models.ClientSubscription, today models.Date) bool {
	return !a.StartDate.After(today) && !a.EndDate.Before(today) && !a.Exhausted()
}

// ActiveAssignment picks the assignment a visit should be charged to among
// the usable ones. Paid beats unpaid, capped plans beat unlimited ones, then
// the soonest end date wins, then the latest start date. It returns nil
// when nothing is usable.
func ActiveAssignment(assignments []models.ClientSubscription, today models.Date) *models.ClientSubscription {
	candidates := make([]models.ClientSubscription, 0, len(assignments))
	for _, a := range assignments {
		if Usable(a, today) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.IsPaid != b.IsPaid {
			return a.IsPaid
		}
		if a.Unlimited() != b.Unlimited() {
			return !a.Unlimited()
		}
		if c := a.EndDate.Compare(b.EndDate); c != 0 {
			return c < 0
		}
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c > 0
		}
		return a.ID > b.ID
	})
	best := candidates[0]
	return &best
}
