package auth

import (
	"context"
	"errors"

	"authgate/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PasswordAuthenticator verifies username/password pairs against stored
// bcrypt digests. It satisfies Authenticator for deployments that keep
// credentials in the local user table.
type PasswordAuthenticator struct {
	users UserRepositoryInterface
}

func NewPasswordAuthenticator(users UserRepositoryInterface) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users}
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
