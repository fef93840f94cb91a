package persistence

import (
	"context"
	"errors"

	"github.com/stockwatch/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository implements user persistence using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Save inserts a user or refreshes the identity fields of an existing one.
func (r *GormUserRepository) Save(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "updated_at"}),
	}).Create(user).Error
}

// FindByID finds a user by chat id
func (r *GormUserRepository) FindByID(ctx context.Context, userID int64) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateLocation stores a resolved location against the user.
func (r *GormUserRepository) UpdateLocation(ctx context.Context, userID int64, postalCode, partitionID, partitionName string) error {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"postal_code":    postalCode,
			"partition_id":   partitionID,
			"partition_name": partitionName,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive toggles the user's active flag.
func (r *GormUserRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindActiveWithLocation returns every active user that has a location set.
// These are the users the monitor checks on each tick.
func (r *GormUserRepository) FindActiveWithLocation(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND postal_code <> '' AND partition_id <> ''", true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
