package store

import (
	"context"
	"errors"
	"time"

	"github.com/pictogramapp/pictogram/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy; all multi-step
// operations that must be atomic go through WithTx so the services never
// hold in-process locks.
type Store interface {
	Accounts() Accounts
	VerificationTokens() VerificationTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It exposes the same repos plus
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail looks up by the case-normalized email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByUsername looks up by the case-normalized username.
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)

	// CreateAccount inserts a new unverified account (id is a ULID
	// provided by the app). A duplicate email or username fails the
	// whole insert with ErrAlreadyExists.
	CreateAccount(ctx context.Context, a domain.Account) error

	// MarkVerified sets verified_at for an unverified account.
	MarkVerified(ctx context.Context, accountID string, at time.Time) error

	// SetResetToken overwrites the account's inline reset-token slot. A
	// fingerprint collision with another account's slot fails with
	// ErrAlreadyExists; the issuer regenerates on that.
	SetResetToken(ctx context.Context, accountID, tokenHash string, expiry time.Time) error

	// GetAccountByResetTokenHash finds the account currently holding the
	// given reset token fingerprint.
	GetAccountByResetTokenHash(ctx context.Context, tokenHash string) (domain.Account, error)

	// ConsumeResetToken atomically replaces the password hash and clears
	// the reset slot, but only if the slot still holds tokenHash. Returns
	// ErrNotFound when the slot was already consumed or overwritten; this
	// is the compare-and-swap that makes redemption single-use.
	ConsumeResetToken(ctx context.Context, accountID, tokenHash, newPasswordHash string) error

	// ClearResetToken empties the slot if it still holds tokenHash. Used
	// for lazy expiry cleanup; clearing an already-changed slot is a no-op.
	ClearResetToken(ctx context.Context, accountID, tokenHash string) error

	// ListUnverifiedCreatedBefore returns accounts that never verified
	// and were created before the cutoff. Reaper candidate selection.
	ListUnverifiedCreatedBefore(ctx context.Context, cutoff time.Time) ([]domain.Account, error)

	// DeleteAccountIfUnverified deletes the account only if verified_at
	// is still null, reporting whether a row was removed. The condition
	// guards the reaper against racing a concurrent verification.
	DeleteAccountIfUnverified(ctx context.Context, accountID string) (bool, error)

	// DeleteAccount removes an account unconditionally (account closure).
	// Verification tokens cascade per schema.
	DeleteAccount(ctx context.Context, accountID string) error
}

type VerificationTokens interface {
	// UpsertForAccount writes the account's single verification token,
	// replacing any previous one (re-issue supersedes by overwrite). A
	// fingerprint collision with another account's token fails with
	// ErrAlreadyExists; the issuer regenerates on that.
	UpsertForAccount(ctx context.Context, t domain.VerificationToken) error

	// GetByTokenHash returns the token row by fingerprint.
	GetByTokenHash(ctx context.Context, tokenHash string) (domain.VerificationToken, error)

	// DeleteByTokenHash removes the token row, reporting whether it still
	// existed. Exactly one of N concurrent redeemers sees true.
	DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error)

	// DeleteAllForAccount removes any tokens owned by the account.
	DeleteAllForAccount(ctx context.Context, accountID string) error

	// DeleteExpired is housekeeping for rows past their TTL.
	DeleteExpired(ctx context.Context, now time.Time) error
}
