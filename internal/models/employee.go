package models

import "time"

// EmployeeRole represents what a staff member may do in the application.
type EmployeeRole string

const (
	EmployeeRoleAdmin   EmployeeRole = "admin"
	EmployeeRoleTrainer EmployeeRole = "trainer"
)

// Valid reports whether the role is supported.
func (r EmployeeRole) Valid() bool {
	return r == EmployeeRoleAdmin || r == EmployeeRoleTrainer
}

// Employee is a staff member. Employees with a login may sign in; any
// employee may be assigned as a group trainer.
type Employee struct {
	ID           int64        `db:"id" json:"id"`
	FullName     string       `db:"full_name" json:"full_name"`
	Phone        *string      `db:"phone" json:"phone,omitempty"`
	Position     *string      `db:"position" json:"position,omitempty"`
	Login        *string      `db:"login" json:"login,omitempty"`
	PasswordHash *string      `db:"password_hash" json:"-"`
	Role         EmployeeRole `db:"role" json:"role"`
	Active       bool         `db:"active" json:"active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter captures listing criteria for staff.
type EmployeeFilter struct {
	Role   *EmployeeRole
	Active *bool
}
