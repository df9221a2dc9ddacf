package dto

// LessonRequest creates a single lesson.
type LessonRequest struct {
	GroupID   int64   `json:"group_id" validate:"required,gt=0"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string  `json:"end_time" validate:"required,datetime=15:04"`
	Topic     *string `json:"topic,omitempty" validate:"omitempty,max=200"`
}

// GenerateLessonsRequest expands a group schedule over an inclusive range.
type GenerateLessonsRequest struct {
	GroupID   int64  `json:"group_id" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// LessonQuery filters lesson listings.
type LessonQuery struct {
	GroupID int64  `form:"group_id" validate:"omitempty,gt=0"`
	From    string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To      string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}
