package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds staff credentials.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and staff info.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	Employee    EmployeeInfo `json:"employee"`
	IssuedAt    time.Time    `json:"issued_at"`
}

// EmployeeInfo describes the authenticated staff member in responses.
type EmployeeInfo struct {
	ID       int64        `json:"id"`
	Login    string       `json:"login"`
	FullName string       `json:"full_name"`
	Role     EmployeeRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	EmployeeID int64        `json:"employee_id"`
	Login      string       `json:"login"`
	Role       EmployeeRole `json:"role"`
	jwt.RegisteredClaims
}

// ChangePasswordRequest replaces the password of the signed-in employee.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=128"`
}
