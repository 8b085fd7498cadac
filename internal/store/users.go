package store

import (
	"context"

	"gorm.io/gorm/clause"

	"appointment-booking-server/internal/models"
)

// CreateUser inserts u. A taken email yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error)
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetUserByEmail loads a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ListUsers returns users ordered by name. An empty role lists everyone.
func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	q := s.db.WithContext(ctx).Order("name asc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	users := []models.User{}
	if err := q.Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}
