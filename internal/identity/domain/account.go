package domain

import "time"

// Account is an end-user identity. Email and username are case-normalized
// and globally unique. VerifiedAt is nil until the account completes email
// verification; the login service refuses unverified accounts.
type Account struct {
	ID           string
	Email        string // lowercased
	Username     string // display form; uniqueness enforced on lowercase
	PasswordHash string // argon2id, PHC encoded

	VerifiedAt *time.Time

	// Single-slot password reset token, inlined on the account. At most
	// one live reset token exists per account; issuing a new one
	// overwrites the slot.
	ResetTokenHash   *string
	ResetTokenExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Verified reports whether the account has completed email verification.
func (a Account) Verified() bool { return a.VerifiedAt != nil }
