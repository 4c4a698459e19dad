package domain

import "time"

// VerificationToken is the single outstanding email-verification token for
// an account. Only the SHA-256 fingerprint of the opaque token is stored.
// Issuing a new token overwrites the row, so a superseded token simply no
// longer exists and redeems as not-found.
type VerificationToken struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its TTL at the given instant.
func (t VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
