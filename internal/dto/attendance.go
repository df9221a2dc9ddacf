package dto

// SetAttendanceRequest marks one client on a lesson. An empty status clears
// the mark.
type SetAttendanceRequest struct {
	ClientID int64  `json:"client_id" validate:"required,gt=0"`
	Status   string `json:"status" validate:"attendance_status"`
}

// AttendanceHistoryQuery bounds a client's history.
type AttendanceHistoryQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}
