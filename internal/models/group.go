package models

import "time"

// Group is a cohort of clients training together.
type Group struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	TrainerID   *int64    `db:"trainer_id" json:"trainer_id,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GroupDetail enriches Group with trainer and roster info.
type GroupDetail struct {
	Group
	TrainerName *string `db:"trainer_name" json:"trainer_name,omitempty"`
	MemberCount int     `db:"member_count" json:"member_count"`
}

// GroupMember is a client's membership in a group.
type GroupMember struct {
	GroupID  int64 `db:"group_id" json:"group_id"`
	ClientID int64 `db:"client_id" json:"client_id"`
	JoinedAt Date  `db:"joined_at" json:"joined_at"`
}

// GroupMemberDetail adds client contact info to a membership.
type GroupMemberDetail struct {
	GroupMember
	FullName string  `db:"full_name" json:"full_name"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
}
