package dto

import (
	"copydesk/internal/domain"
)

// UserOutput represents user details in API responses
type UserOutput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewUserOutput converts a domain user, dropping credentials
func NewUserOutput(user *domain.User) *UserOutput {
	return &UserOutput{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}
