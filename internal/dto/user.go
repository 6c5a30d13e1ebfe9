package dto

import "github.com/noah-isme/castaway-league-api/internal/models"

// UpdateUserRoleRequest assigns a new role to an account.
type UpdateUserRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=ADMIN MODERATOR PLAYER"`
}

// UpdateUserStatusRequest activates or deactivates an account.
type UpdateUserStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}
