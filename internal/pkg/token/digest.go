package token

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
)

// Digester produces one-way keyed digests of refresh token secrets. Only the
// digest is ever persisted or compared; the raw token stays with the client.
type Digester struct {
	key []byte
}

func NewDigester(secret string) *Digester {
	return &Digester{key: []byte(secret)}
}

// Digest returns the base64-encoded HMAC-SHA512 of the raw value.
func (d *Digester) Digest(raw string) string {
	mac := hmac.New(sha512.New, d.key)
	mac.Write([]byte(raw))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
