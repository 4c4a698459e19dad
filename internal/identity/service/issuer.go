package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pictogramapp/pictogram/internal/identity/domain"
	"github.com/pictogramapp/pictogram/internal/identity/store"
	"github.com/pictogramapp/pictogram/pkg/cryptox"
	"github.com/pictogramapp/pictogram/pkg/idx"
	"github.com/pictogramapp/pictogram/pkg/slogx"
)

// Default token lifetimes. Verification links travel by email and are
// expected to be clicked within a day; reset links are more sensitive and
// get a much shorter window.
const (
	DefaultVerificationTTL = 24 * time.Hour
	DefaultResetTTL        = time.Hour
)

// tokenRetryAttempts bounds regeneration when a fingerprint collides with
// an existing row. With 256-bit tokens a single collision is already
// beyond unlikely; the bound exists so a store bug cannot loop forever.
const tokenRetryAttempts = 3

// TokenIssuer mints opaque verification and password-reset tokens and
// persists their fingerprints. Issuing for an account that already has an
// outstanding token of the same purpose supersedes it: only the stored
// fingerprint redeems, so the old value becomes permanently worthless.
type TokenIssuer struct {
	Store store.Store

	VerificationTTL time.Duration // 0 means DefaultVerificationTTL
	ResetTTL        time.Duration // 0 means DefaultResetTTL
}

// IssueVerificationToken creates a fresh email-verification token for the
// account and returns the raw value for the outbound email. The store row
// for the account is overwritten, never accumulated.
func (s *TokenIssuer) IssueVerificationToken(ctx context.Context, accountID string) (string, error) {
	log := slogx.FromContext(ctx)

	ttl := s.VerificationTTL
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}

	if _, err := s.Store.Accounts().GetAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return "", err
	}

	expiresAt := time.Now().UTC().Add(ttl)

	for attempt := 0; attempt < tokenRetryAttempts; attempt++ {
		token, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			log.Error("failed to generate verification token", slog.Any("error", err))
			return "", err
		}

		record := domain.VerificationToken{
			ID:        idx.New().String(),
			AccountID: accountID,
			TokenHash: cryptox.FingerprintToken(token),
			ExpiresAt: expiresAt,
		}

		err = s.Store.VerificationTokens().UpsertForAccount(ctx, record)
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("verification token fingerprint collision, regenerating",
				slog.String("account_id", accountID),
			)
			continue
		}
		if err != nil {
			log.Error("failed to store verification token", slog.Any("error", err))
			return "", err
		}

		log.Debug("verification token issued",
			slog.String("account_id", accountID),
			slog.Time("expires_at", expiresAt),
		)
		return token, nil
	}

	return "", fmt.Errorf("token generation kept colliding after %d attempts", tokenRetryAttempts)
}

// IssueResetToken creates a password-reset token for the account,
// overwriting any prior value in the account's single reset slot. Unknown
// accounts fail with ErrAccountNotFound; hiding that from unauthenticated
// callers is the transport layer's job.
func (s *TokenIssuer) IssueResetToken(ctx context.Context, accountID string) (string, error) {
	log := slogx.FromContext(ctx)

	ttl := s.ResetTTL
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}

	expiresAt := time.Now().UTC().Add(ttl)

	for attempt := 0; attempt < tokenRetryAttempts; attempt++ {
		token, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			log.Error("failed to generate reset token", slog.Any("error", err))
			return "", err
		}

		err = s.Store.Accounts().SetResetToken(ctx, accountID, cryptox.FingerprintToken(token), expiresAt)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return "", ErrAccountNotFound
		case errors.Is(err, store.ErrAlreadyExists):
			log.Warn("reset token fingerprint collision, regenerating",
				slog.String("account_id", accountID),
			)
			continue
		case err != nil:
			log.Error("failed to store reset token", slog.Any("error", err))
			return "", err
		}

		log.Debug("reset token issued",
			slog.String("account_id", accountID),
			slog.Time("expires_at", expiresAt),
		)
		return token, nil
	}

	return "", fmt.Errorf("token generation kept colliding after %d attempts", tokenRetryAttempts)
}
