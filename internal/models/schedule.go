package models

// ScheduleSlot is one weekly recurring class of a group. DayOfWeek uses
// Monday=0 … Sunday=6; times are HH:MM.
type ScheduleSlot struct {
	ID        int64  `db:"id" json:"id"`
	GroupID   int64  `db:"group_id" json:"group_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// GroupSchedule is the weekly timetable of a group.
type GroupSchedule []ScheduleSlot

// SlotFor returns the slot scheduled on the given weekday index.
func (s GroupSchedule) SlotFor(dayIndex int) (ScheduleSlot, bool) {
	for _, slot := range s {
		if slot.DayOfWeek == dayIndex {
			return slot, true
		}
	}
	return ScheduleSlot{}, false
}
