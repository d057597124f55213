package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cumulus-classroom/cumulus/internal/domains/user"
)

type GormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) user.UserRepository {
	return &GormUserRepo{db: db}
}

func (g *GormUserRepo) Create(ctx context.Context, u *user.User) error {
	entity := NewUserEntityFromDomain(u)
	if err := g.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	*u = *entity.ToDomain()
	return nil
}

func (g *GormUserRepo) first(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var entity UserEntity
	if err := g.db.WithContext(ctx).Where(query, arg).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return entity.ToDomain(), nil
}

func (g *GormUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	return g.first(ctx, "id = ?", id)
}

func (g *GormUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return g.first(ctx, "email = ?", email)
}

func (g *GormUserRepo) GetByDeviceID(ctx context.Context, deviceID string) (*user.User, error) {
	return g.first(ctx, "device_id = ?", deviceID)
}

func (g *GormUserRepo) Exists(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&UserEntity{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

func (g *GormUserRepo) SetDevice(ctx context.Context, id, deviceID string) error {
	result := g.db.WithContext(ctx).Model(&UserEntity{}).Where("id = ?", id).Update("device_id", deviceID)
	if result.Error != nil {
		return fmt.Errorf("failed to link device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
