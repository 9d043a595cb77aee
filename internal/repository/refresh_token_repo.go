package repository

import (
	"context"
	"time"

	"authgate/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefreshTokenRepository provides DB access for refresh token rotation state.
// The username unique index enforces at most one live record per user.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Upsert writes the user's single rotation record in one atomic statement:
// an existing record is overwritten in place, otherwise a new one is created.
// Concurrent upserts for the same username serialize on the unique index,
// last writer wins.
func (r *RefreshTokenRepository) Upsert(ctx context.Context, username, digest string, now, expiresAt time.Time) (*domain.RefreshToken, error) {
	rec := &domain.RefreshToken{
		Username:    username,
		TokenDigest: digest,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_digest", "created_at", "expires_at"}),
	}).Create(rec).Error
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RefreshTokenRepository) GetByDigest(ctx context.Context, digest string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).Where("token_digest = ?", digest).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteByUsername removes the user's record. Deleting a non-existent record
// is not an error.
func (r *RefreshTokenRepository) DeleteByUsername(ctx context.Context, username string) error {
	return r.db.WithContext(ctx).
		Where("username = ?", username).
		Delete(&domain.RefreshToken{}).Error
}

func (r *RefreshTokenRepository) DeleteByDigest(ctx context.Context, digest string) error {
	return r.db.WithContext(ctx).
		Where("token_digest = ?", digest).
		Delete(&domain.RefreshToken{}).Error
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}
