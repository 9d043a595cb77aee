package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"authgate/internal/database"
	"authgate/internal/domain"
	"authgate/internal/pkg/token"
	"authgate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db       *gorm.DB
	service  *Service
	users    *repository.UserRepository
	tokens   *repository.RefreshTokenRepository
	digester *token.Digester
}

func setupService(t *testing.T) *serviceFixture {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Role{}, &domain.RefreshToken{}))

	users := repository.NewUserRepository(db)
	roles := repository.NewRoleRepository(db)
	tokens := repository.NewRefreshTokenRepository(db)

	codec := token.New(token.NewKeys("test-access-secret-32-chars-long!", "test-refresh-secret-32-chars-lng!"), 15*time.Minute, 24*time.Hour)
	digester := token.NewDigester("test-digest-secret")

	svc := NewService(users, roles, tokens, NewPasswordAuthenticator(users), codec, digester)

	return &serviceFixture{db: db, service: svc, users: users, tokens: tokens, digester: digester}
}

func (f *serviceFixture) createUser(t *testing.T, username, password string, authorities ...string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	roles := make([]domain.Role, 0, len(authorities))
	for _, a := range authorities {
		role, err := repository.NewRoleRepository(f.db).GetOrCreate(context.Background(), a)
		require.NoError(t, err)
		roles = append(roles, *role)
	}

	require.NoError(t, f.users.Create(context.Background(), &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Roles:        roles,
	}))
}

func (f *serviceFixture) recordCount(t *testing.T, username string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&domain.RefreshToken{}).Where("username = ?", username).Count(&count).Error)
	return count
}

func TestLoginSuccess(t *testing.T) {
	f := setupService(t)
	f.createUser(t, "marina", "user", "ROLE_USER")

	result, err := f.service.Login(context.Background(), LoginRequest{Username: "marina", Password: "user"})
	require.NoError(t, err)

	assert.Equal(t, "marina", result.Username)
	assert.NotEmpty(t, result.Pair.AccessToken)
	assert.NotEmpty(t, result.Pair.RefreshToken)
	assert.Equal(t, "Bearer", result.Pair.TokenType)

	// The stored representation must be a digest, never the raw token.
	rec, err := f.tokens.GetByDigest(context.Background(), f.digester.Digest(result.Pair.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, "marina", rec.Username)
	assert.NotEqual(t, result.Pair.RefreshToken, rec.TokenDigest)
	assert.EqualValues(t, 1, f.recordCount(t, "marina"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := setupService(t)
	f.createUser(t, "marina", "user", "ROLE_USER")

	_, err := f.service.Login(context.Background(), LoginRequest{Username: "marina", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.service.Login(context.Background(), LoginRequest{Username: "ghost", Password: "user"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// phantomAuthenticator authenticates an identity with no persisted record,
// which the rotation store must refuse to write state for.
type phantomAuthenticator struct{}

func (phantomAuthenticator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	return &domain.User{Username: "phantom"}, nil
}

func TestLoginUnknownSubject(t *testing.T) {
	f := setupService(t)
	svc := NewService(f.users, repository.NewRoleRepository(f.db), f.tokens, phantomAuthenticator{}, f.service.codec, f.digester)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "phantom", Password: "x"})
	assert.ErrorIs(t, err, ErrUnknownSubject)
}

func TestRefreshRotatesSingleUse(t *testing.T) {
	f := setupService(t)
	f.createUser(t, "marina", "user", "ROLE_USER")

	result, err := f.service.Login(context.Background(), LoginRequest{Username: "marina", Password: "user"})
	require.NoError(t, err)
	original := result.Pair.RefreshToken

	pair, err := f.service.Refresh(context.Background(), original)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, original, pair.RefreshToken)

	// The rotated token works.
	pair2, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	// The original token was consumed by rotation.
	_, err = f.service.Refresh(context.Background(), original)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	// Reuse tears down the subject's remaining state, so even the latest
	// token is now rejected.
	_, err = f.service.Refresh(context.Background(), pair2.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRefreshRotationKeepsOneRecord(t *testing.T) {
	f := setupService(t)
	f.createUser(t, "marina", "user", "ROLE_USER")

	result, err := f.service.Login(context.Background(), LoginRequest{Username: "marina", Password: "user"})
	require.NoError(t, err)

	current := result.Pair.RefreshToken
	for i := 0; i < 5; i++ {
		pair, err := f.service.Refresh(context.Background(), current)
		require.NoError(t, err, "refresh %d", i)
		current = pair.RefreshToken
	}

	assert.EqualValues(t, 1, f.recordCount(t, "marina"))
}

func TestRefreshMissingToken(t *testing.T) {
	f := setupService(t)

	for _, raw := range []string{"", "   "} {
		_, err := f.service.Refresh(context.Background(), raw)
		assert.ErrorIs(t, err, ErrMissingRefreshToken)
	}
}

func TestRefreshGarbageToken(t *testing.T) {
	f := setupService(t)

	_, err := f.service.Refresh(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	var verr *token.VerifyError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, token.KindMalformed, verr.Kind)
}

func TestRefreshAccessTokenRejected(t *testing.T) {
	f := setupService(t)
	f.createUser(t, "marina", "user", "ROLE_USER")

	result, err := f.service.Login(context.Background(), LoginRequest{Username: "marina", Password: "user"})
	require.NoError(t, err)

	// An access token must never be accepted as a refresh token.
	_, err = f.service.Refresh(context.Background(), result.Pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshExpiredRecordFailsClosedAndCleansUp(t *testing.T) {
	f := setupService(t)
	f.createUser(t, "marina", "user", "ROLE_USER")

	result, err := f.service.Login(context.Background(), LoginRequest{Username: "marina", Password: "user"})
	require.NoError(t, err)

	// Age the persisted record past its expiry; the token itself is still
	// structurally valid.
	require.NoError(t, f.db.Model(&domain.RefreshToken{}).
		Where("username = ?", "marina").
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	_, err = f.service.Refresh(context.Background(), result.Pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	assert.EqualValues(t, 0, f.recordCount(t, "marina"))
}

func TestRefreshAfterLogoutFailsClosed(t *testing.T) {
	f := setupService(t)
	f.createUser(t, "marina", "user", "ROLE_USER")

	result, err := f.service.Login(context.Background(), LoginRequest{Username: "marina", Password: "user"})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), "marina"))

	_, err = f.service.Refresh(context.Background(), result.Pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestLogout(t *testing.T) {
	f := setupService(t)

	// Unknown user: idempotent, no error.
	assert.NoError(t, f.service.Logout(context.Background(), "ghost"))

	assert.ErrorIs(t, f.service.Logout(context.Background(), ""), ErrMissingUsername)
}

func TestRegister(t *testing.T) {
	f := setupService(t)

	user, err := f.service.Register(context.Background(), RegisterRequest{
		FirstName: "New",
		LastName:  "User",
		Email:     "new@mail.ru",
		Username:  "newuser",
		Password:  "secret",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ROLE_USER"}, user.Authorities())
	assert.Empty(t, user.PasswordHash)

	_, err = f.service.Register(context.Background(), RegisterRequest{Username: "newuser", Password: "secret"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// Registered users can log in.
	result, err := f.service.Login(context.Background(), LoginRequest{Username: "newuser", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Pair.AccessToken)
}

func TestPasswordAuthenticatorErrors(t *testing.T) {
	f := setupService(t)
	f.createUser(t, "marina", "user", "ROLE_USER")
	a := NewPasswordAuthenticator(f.users)

	user, err := a.Authenticate(context.Background(), "marina", "user")
	require.NoError(t, err)
	assert.Equal(t, "marina", user.Username)

	_, err = a.Authenticate(context.Background(), "marina", "nope")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}
