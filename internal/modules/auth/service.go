package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"authgate/internal/domain"
	"authgate/internal/pkg/token"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultAuthority = "ROLE_USER"

// Service orchestrates login, refresh and logout on top of the token codec
// and the persisted rotation state.
type Service struct {
	users         UserRepositoryInterface
	roles         RoleRepositoryInterface
	tokens        RefreshTokenRepositoryInterface
	authenticator Authenticator
	codec         *token.Codec
	digester      *token.Digester
}

type LoginResult struct {
	Username string
	Pair     TokenPair
}

func NewService(
	users UserRepositoryInterface,
	roles RoleRepositoryInterface,
	tokens RefreshTokenRepositoryInterface,
	authenticator Authenticator,
	codec *token.Codec,
	digester *token.Digester,
) *Service {
	return &Service{
		users:         users,
		roles:         roles,
		tokens:        tokens,
		authenticator: authenticator,
		codec:         codec,
		digester:      digester,
	}
}

// Login verifies credentials through the authenticator collaborator, mints an
// access+refresh pair and persists the refresh rotation record.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.authenticator.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	pair, err := s.issuePair(ctx, user, now)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Username: user.Username, Pair: *pair}, nil
}

// Refresh rotates on use: the presented token is verified, matched against
// the persisted record by digest, and atomically replaced by a new pair.
// A structurally valid token without a live record is rejected fail-closed
// and any stale state for its subject is cleaned up.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrMissingRefreshToken
	}

	now := time.Now()
	subject, err := s.codec.VerifyRefreshToken(rawToken, now)
	if err != nil {
		return nil, errors.Join(ErrInvalidRefreshToken, err)
	}

	digest := s.digester.Digest(rawToken)

	var pair *TokenPair
	txErr := s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("token_digest = ?", digest)
		// Postgres takes a row lock so concurrent refreshes for the same
		// record serialize; sqlite serializes writers on its own.
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var rec domain.RefreshToken
		if err := q.First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRefreshTokenNotFound
			}
			return err
		}

		if !rec.IsLive(now) {
			if err := tx.Delete(&domain.RefreshToken{}, rec.ID).Error; err != nil {
				return err
			}
			return ErrRefreshTokenNotFound
		}

		var user domain.User
		if err := tx.Preload("Roles").Where("username = ?", rec.Username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownSubject
			}
			return err
		}

		newAccess, err := s.codec.IssueAccessToken(user.Username, user.Authorities(), now)
		if err != nil {
			return err
		}
		newRefresh, err := s.codec.IssueRefreshToken(user.Username, now)
		if err != nil {
			return err
		}

		if err := tx.Delete(&domain.RefreshToken{}, rec.ID).Error; err != nil {
			return err
		}
		if err := tx.Create(&domain.RefreshToken{
			Username:    user.Username,
			TokenDigest: s.digester.Digest(newRefresh),
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.codec.RefreshTTL()),
		}).Error; err != nil {
			return err
		}

		pair = &TokenPair{
			AccessToken:  newAccess,
			RefreshToken: newRefresh,
			TokenType:    "Bearer",
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrRefreshTokenNotFound) {
			// Stale or already-rotated token: drop whatever the subject
			// still has persisted.
			if err := s.tokens.DeleteByUsername(ctx, subject); err != nil {
				log.Printf("refresh cleanup failed username=%s: %v", subject, err)
			}
		}
		return nil, txErr
	}

	return pair, nil
}

// Logout drops the user's rotation record. Idempotent.
func (s *Service) Logout(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrMissingUsername
	}
	return s.tokens.DeleteByUsername(ctx, username)
}

// Register creates a new identity with the default authority.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role, err := s.roles.GetOrCreate(ctx, defaultAuthority)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		Roles:        []domain.Role{*role},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// issuePair mints a token pair for the user and upserts the rotation record.
func (s *Service) issuePair(ctx context.Context, user *domain.User, now time.Time) (*TokenPair, error) {
	accessToken, err := s.codec.IssueAccessToken(user.Username, user.Authorities(), now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.IssueRefreshToken(user.Username, now)
	if err != nil {
		return nil, err
	}

	if err := s.saveRefreshToken(ctx, user.Username, refreshToken, now); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}

// saveRefreshToken persists the digest of a freshly minted refresh token,
// replacing the user's previous record in place.
func (s *Service) saveRefreshToken(ctx context.Context, username, rawToken string, now time.Time) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUnknownSubject
	}

	_, err = s.tokens.Upsert(ctx, username, s.digester.Digest(rawToken), now, now.Add(s.codec.RefreshTTL()))
	return err
}
