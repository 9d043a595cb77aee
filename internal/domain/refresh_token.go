package domain

import "time"

// RefreshToken stores refresh token rotation state, one live record per user.
//
// Security notes:
// - We never store the raw token, only its keyed HMAC-SHA512 digest.
// - On refresh we rotate: the old record is replaced by a new one, so every
//   refresh token is single-use.
type RefreshToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	Username string `json:"username" gorm:"size:255;uniqueIndex;not null"`

	TokenDigest string `json:"-" gorm:"size:96;uniqueIndex;not null"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// IsLive reports whether the record is still valid at the given instant.
func (t *RefreshToken) IsLive(now time.Time) bool {
	return t.ExpiresAt.After(now)
}
