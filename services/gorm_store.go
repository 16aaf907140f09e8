// services/gorm_store.go - GORM-backed UserStore
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lifequest/apperrors"
	"lifequest/models"
)

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateLookupError(err)
	}
	return &user, nil
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateLookupError(err)
	}
	return &user, nil
}

func (s *GormUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateLookupError(err)
	}
	return &user, nil
}

func (s *GormUserStore) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, translateLookupError(err)
	}
	return &user, nil
}

// Create inserts the user. The unique indexes on email and username are the
// authoritative duplicate check; when one fires, the colliding column is
// re-resolved so the caller gets the right typed error even when two
// registrations race.
func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var count int64
		s.db.WithContext(ctx).Model(&models.User{}).
			Where("email = ?", user.Email).Count(&count)
		if count > 0 {
			return apperrors.ErrDuplicateEmail
		}
		return apperrors.ErrDuplicateUsername
	}

	return fmt.Errorf("failed to create user: %w", err)
}

func (s *GormUserStore) Save(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func translateLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return err
}
