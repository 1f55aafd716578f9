package handler

import (
	"time"

	"github.com/cugino/restaurant-auth/internal/core/domain"
)

type loginRequest struct {
	Name     string `json:"name"     validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name            string `json:"name"     validate:"required,min=2"`
	Password        string `json:"password" validate:"required"`
	Role            string `json:"role"     validate:"omitempty,oneof=admin manager server"`
	EstablishmentID *int64 `json:"establishment_id"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

type createUserRequest struct {
	Name            string `json:"name"     validate:"required,min=2"`
	Password        string `json:"password" validate:"required"`
	Role            string `json:"role"     validate:"required,oneof=admin manager server"`
	EstablishmentID *int64 `json:"establishment_id"`
}

type updateUserRequest struct {
	Name                *string `json:"name"     validate:"omitempty,min=2"`
	Password            *string `json:"password"`
	Role                *string `json:"role"     validate:"omitempty,oneof=admin manager server"`
	EstablishmentID     *int64  `json:"establishment_id"`
	RemoveEstablishment bool    `json:"remove_establishment"`
}

// userResponse is the public projection of a user. The password hash never
// leaves the service.
type userResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	EstablishmentID *int64    `json:"establishment_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:              u.ID(),
		Name:            u.Name(),
		Role:            string(u.Role()),
		EstablishmentID: u.EstablishmentID(),
		CreatedAt:       u.CreatedAt(),
		UpdatedAt:       u.UpdatedAt(),
	}
}

func newUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  userResponse `json:"user"`
}

type identityResponse struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	EstablishmentID *int64   `json:"establishment_id,omitempty"`
	Permissions     []string `json:"permissions"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type permissionsResponse struct {
	UserID      int64    `json:"user_id"`
	Permissions []string `json:"permissions"`
}
