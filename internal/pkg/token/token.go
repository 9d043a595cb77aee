package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	rolesClaim   = "roles"
	refreshClaim = "isRefresh"
)

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

// Keys holds the two independent symmetric signing keys. They are derived
// once at start-up and never change for the process lifetime.
type Keys struct {
	access  []byte
	refresh []byte
}

func NewKeys(accessSecret, refreshSecret string) Keys {
	return Keys{
		access:  []byte(accessSecret),
		refresh: []byte(refreshSecret),
	}
}

// Identity is the claim set reconstructed from a verified access token.
type Identity struct {
	Subject     string
	Authorities []string
}

// Codec mints and verifies self-contained HS512-signed tokens. It keeps no
// state beyond the read-only keys, so it is safe for concurrent use.
type Codec struct {
	keys       Keys
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(keys Keys, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		keys:       keys,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

type claims struct {
	Roles     string `json:"roles,omitempty"`
	IsRefresh bool   `json:"isRefresh,omitempty"`
	jwtlib.RegisteredClaims
}

// IssueAccessToken mints a short-lived access token embedding the subject and
// its authorities. Deterministic for identical inputs and instant.
func (c *Codec) IssueAccessToken(subject string, authorities []string, now time.Time) (string, error) {
	cl := claims{
		Roles: strings.Join(authorities, ","),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.accessTTL)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, cl).SignedString(c.keys.access)
}

// IssueRefreshToken mints a refresh token carrying the isRefresh marker so it
// can never pass access-token verification even if keys were shared. The jti
// keeps every minted token unique; without it two rotations inside the same
// second would produce byte-identical tokens and identical stored digests.
func (c *Codec) IssueRefreshToken(subject string, now time.Time) (string, error) {
	cl := claims{
		IsRefresh: true,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, cl).SignedString(c.keys.refresh)
}

// VerifyAccessToken checks structure, signature and expiry against the access
// key and returns the embedded identity. Failures are *VerifyError values.
func (c *Codec) VerifyAccessToken(tokenStr string, now time.Time) (*Identity, error) {
	cl, err := c.parse(tokenStr, c.keys.access, now)
	if err != nil {
		return nil, err
	}
	return &Identity{
		Subject:     cl.Subject,
		Authorities: splitAuthorities(cl.Roles),
	}, nil
}

// VerifyRefreshToken verifies against the refresh key and requires the
// isRefresh marker, so an access token can never be replayed as a refresh
// token. Returns the embedded subject.
func (c *Codec) VerifyRefreshToken(tokenStr string, now time.Time) (string, error) {
	cl, err := c.parse(tokenStr, c.keys.refresh, now)
	if err != nil {
		return "", err
	}
	if !cl.IsRefresh {
		return "", &VerifyError{Kind: KindInvalid, cause: errors.New("missing refresh marker")}
	}
	return cl.Subject, nil
}

func (c *Codec) parse(tokenStr string, key []byte, now time.Time) (*claims, error) {
	var cl claims
	tok, err := jwtlib.ParseWithClaims(tokenStr, &cl, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok || t.Method.Alg() != jwtlib.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("%w: %v", errUnexpectedSigningMethod, t.Header["alg"])
		}
		return key, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid {
		return nil, &VerifyError{Kind: KindInvalid, cause: errors.New("token not valid")}
	}
	return &cl, nil
}

// classify maps golang-jwt parse errors onto the verification taxonomy.
// Signature and structural defects are checked before expiry so a token
// signed with the wrong key is Invalid even when it is also expired.
func classify(err error) *VerifyError {
	switch {
	case errors.Is(err, errUnexpectedSigningMethod):
		return &VerifyError{Kind: KindUnsupported, cause: err}
	case errors.Is(err, jwtlib.ErrTokenMalformed):
		return &VerifyError{Kind: KindMalformed, cause: err}
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return &VerifyError{Kind: KindInvalid, cause: err}
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return &VerifyError{Kind: KindExpired, cause: err}
	default:
		return &VerifyError{Kind: KindInvalid, cause: err}
	}
}

func splitAuthorities(roles string) []string {
	if roles == "" {
		return nil
	}
	parts := strings.Split(roles, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
