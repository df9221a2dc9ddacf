package dto

// GroupRequest captures create/update payloads for groups.
type GroupRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	TrainerID   *int64  `json:"trainer_id,omitempty" validate:"omitempty,gt=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// ScheduleSlotRequest is one weekly slot; day_of_week uses Monday=0.
type ScheduleSlotRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// ScheduleRequest replaces the weekly timetable of a group.
type ScheduleRequest struct {
	Slots []ScheduleSlotRequest `json:"slots" validate:"dive"`
}

// AddMemberRequest enrolls a client. JoinedAt defaults to today.
type AddMemberRequest struct {
	ClientID int64  `json:"client_id" validate:"required,gt=0"`
	JoinedAt string `json:"joined_at,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
