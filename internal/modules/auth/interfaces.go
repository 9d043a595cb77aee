package auth

import (
	"context"
	"time"

	"authgate/internal/domain"

	"gorm.io/gorm"
)

// UserRepositoryInterface — only the methods the auth service uses.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	DB() *gorm.DB // rotation runs in a transaction on the shared handle
}

// RoleRepositoryInterface resolves authorities for registration.
type RoleRepositoryInterface interface {
	GetOrCreate(ctx context.Context, authority string) (*domain.Role, error)
}

// RefreshTokenRepositoryInterface — persisted rotation state, one live record
// per user.
type RefreshTokenRepositoryInterface interface {
	Upsert(ctx context.Context, username, digest string, now, expiresAt time.Time) (*domain.RefreshToken, error)
	GetByDigest(ctx context.Context, digest string) (*domain.RefreshToken, error)
	DeleteByUsername(ctx context.Context, username string) error
	DeleteByDigest(ctx context.Context, digest string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Authenticator is the external credential-verification collaborator.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}
