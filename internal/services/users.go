package services

import (
	"context"
	"fmt"

	"appointment-booking-server/internal/models"
)

// UserService exposes the user directory.
type UserService struct {
	users UserStore
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// List returns users with the given role. Every authenticated user may list
// doctors so patients can pick one when booking; any other listing is admin only.
func (s *UserService) List(ctx context.Context, p models.Principal, role string) ([]models.UserSanitized, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: not authenticated", ErrUnauthorized)
	}

	var r models.Role
	if role != "" {
		parsed, err := models.ParseRole(role)
		if err != nil {
			return nil, validationf("role must be PATIENT, DOCTOR, or ADMIN")
		}
		r = parsed
	}
	if r != models.RoleDoctor && p.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can list %s", ErrUnauthorized, describeRole(r))
	}

	users, err := s.users.ListUsers(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]models.UserSanitized, len(users))
	for i := range users {
		out[i] = users[i].Sanitize()
	}
	return out, nil
}

func describeRole(r models.Role) string {
	if r == "" {
		return "all users"
	}
	return string(r) + " users"
}
