package dto

// EmployeeRequest captures create/update payloads for staff. Password is
// only applied when non-empty.
type EmployeeRequest struct {
	FullName string  `json:"full_name" validate:"required,max=200"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Position *string `json:"position,omitempty" validate:"omitempty,max=120"`
	Login    *string `json:"login,omitempty" validate:"omitempty,min=3,max=64"`
	Password string  `json:"password,omitempty" validate:"omitempty,min=6,max=128"`
	Role     string  `json:"role" validate:"required,oneof=admin trainer"`
	Active   *bool   `json:"active,omitempty"`
}
