package models

import "time"

// Client is a person attending classes.
type Client struct {
	ID             int64          `db:"id" json:"id"`
	FullName       string         `db:"full_name" json:"full_name"`
	BirthDate      *Date          `db:"birth_date" json:"birth_date,omitempty"`
	Phone          *string        `db:"phone" json:"phone,omitempty"`
	DocumentType   *string        `db:"document_type" json:"document_type,omitempty"`
	DocumentNumber *string        `db:"document_number" json:"document_number,omitempty"`
	Notes          *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
	Parents        []ClientParent `db:"-" json:"parents,omitempty"`
}

// ClientParent is a guardian contact owned by a client.
type ClientParent struct {
	ID       int64   `db:"id" json:"id"`
	ClientID int64   `db:"client_id" json:"client_id"`
	FullName string  `db:"full_name" json:"full_name"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
	Relation *string `db:"relation" json:"relation,omitempty"`
}

// ClientFilter provides filters for listing clients.
type ClientFilter struct {
	Search    string
	GroupID   int64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
