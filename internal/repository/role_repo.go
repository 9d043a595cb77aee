package repository

import (
	"context"
	"errors"

	"authgate/internal/domain"

	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByAuthority(ctx context.Context, authority string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).Where("authority = ?", authority).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetOrCreate returns the role with the given authority, creating it when
// missing.
func (r *RoleRepository) GetOrCreate(ctx context.Context, authority string) (*domain.Role, error) {
	role, err := r.GetByAuthority(ctx, authority)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = &domain.Role{Authority: authority}
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}
