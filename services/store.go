// services/store.go - Persistence boundary for user accounts
package services

import (
	"context"

	"lifequest/models"
)

// UserStore is the persistence boundary the auth service talks to. Lookups
// return apperrors.ErrUserNotFound when no row matches; Create returns the
// typed duplicate errors when a uniqueness constraint is violated.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByIdentifier matches either username or email in a single query.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
}
