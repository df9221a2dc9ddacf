package models

import "time"

// Lesson is a concrete calendar occurrence of a group's class.
type Lesson struct {
	ID        int64     `db:"id" json:"id"`
	GroupID   int64     `db:"group_id" json:"group_id"`
	Date      Date      `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Topic     *string   `db:"topic" json:"topic,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LessonDetail enriches Lesson with the group name.
type LessonDetail struct {
	Lesson
	GroupName string `db:"group_name" json:"group_name"`
}

// LessonFilter scopes lesson listings.
type LessonFilter struct {
	GroupID int64
	From    *Date
	To      *Date
}
