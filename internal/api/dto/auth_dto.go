package dto

import (
	"time"

	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/service"
)

// ValidateTokenRequest payload for token introspection.
type ValidateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ValidateTokenResponse answers token introspection.
type ValidateTokenResponse struct {
	Valid bool     `json:"valid"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	Error string   `json:"error,omitempty"`
}

// NewValidateTokenResponse converts the service result.
func NewValidateTokenResponse(v service.TokenValidation) ValidateTokenResponse {
	resp := ValidateTokenResponse{Valid: v.Valid, Email: v.Email, Error: v.Error}
	if len(v.Roles) > 0 {
		resp.Roles = v.Roles.Strings()
	}
	return resp
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EmployeeResponse is the directory record of the caller.
type EmployeeResponse struct {
	ID             int64    `json:"employeeId"`
	Email          string   `json:"email"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Department     string   `json:"department,omitempty"`
	Title          string   `json:"title,omitempty"`
	PhotographPath string   `json:"photographPath,omitempty"`
	Roles          []string `json:"roles"`
}

// NewEmployeeResponse converts a directory record and the caller's roles.
func NewEmployeeResponse(e *domain.Employee, roles domain.Roles) EmployeeResponse {
	return EmployeeResponse{
		ID:             e.ID,
		Email:          e.Email,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Department:     e.Department,
		Title:          e.Title,
		PhotographPath: e.PhotographPath,
		Roles:          roles.Strings(),
	}
}
