package models

import "time"

// AttendanceStatus represents the mark recorded for a client on a lesson.
// An unmarked placeholder has no status (NULL).
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusSick    AttendanceStatus = "sick"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusSick:
		return true
	default:
		return false
	}
}

// IsPresent reports whether status points at present.
func IsPresent(status *AttendanceStatus) bool {
	return status != nil && *status == AttendanceStatusPresent
}

// Attendance is the row for one (lesson, client) pair.
type Attendance struct {
	ID        int64             `db:"id" json:"id"`
	LessonID  int64             `db:"lesson_id" json:"lesson_id"`
	ClientID  int64             `db:"client_id" json:"client_id"`
	Status    *AttendanceStatus `db:"status" json:"status"`
	MarkedAt  *time.Time        `db:"marked_at" json:"marked_at,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// AttendanceRecord extends the row with client metadata.
type AttendanceRecord struct {
	Attendance
	ClientName string `db:"client_name" json:"client_name"`
}

// AttendanceHistoryRow captures one lesson in a client's history.
type AttendanceHistoryRow struct {
	LessonID  int64             `db:"lesson_id" json:"lesson_id"`
	GroupID   int64             `db:"group_id" json:"group_id"`
	GroupName string            `db:"group_name" json:"group_name"`
	Date      Date              `db:"date" json:"date"`
	StartTime string            `db:"start_time" json:"start_time"`
	Status    *AttendanceStatus `db:"status" json:"status"`
}

// AttendanceSummary summarises counts for a client.
type AttendanceSummary struct {
	Present  int     `json:"present"`
	Absent   int     `json:"absent"`
	Sick     int     `json:"sick"`
	Unmarked int     `json:"unmarked"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}
