package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pictogramapp/pictogram/internal/identity/store"
	"github.com/pictogramapp/pictogram/pkg/cryptox"
	"github.com/pictogramapp/pictogram/pkg/slogx"
)

// TokenRedeemer validates and atomically consumes tokens. Per (account,
// purpose) a token is either outstanding, redeemed (removed, effect
// applied) or expired (removed, no effect); there is no way back from a
// terminal state without a fresh issue.
//
// The only-once guarantee does not use in-process locks: for verification
// the conditional row delete and the account update share one store
// transaction, for resets a single compare-and-swap UPDATE does both. Of N
// concurrent redemptions of the same token exactly one applies the effect.
type TokenRedeemer struct {
	Store store.Store
}

// RedeemVerification consumes an email-verification token and marks the
// owning account verified. Absent tokens — never issued, already redeemed
// or superseded by a re-issue — all report ErrTokenNotFound.
func (s *TokenRedeemer) RedeemVerification(ctx context.Context, token string) error {
	log := slogx.FromContext(ctx)

	if token == "" {
		return ErrTokenNotFound
	}

	fingerprint := cryptox.FingerprintToken(token)

	record, err := s.Store.VerificationTokens().GetByTokenHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("verification attempted with unknown token")
			return ErrTokenNotFound
		}
		log.Error("failed to fetch verification token", slog.Any("error", err))
		return err
	}

	now := time.Now().UTC()
	if record.Expired(now) {
		// Lazy expiry: remove the dead row so it cannot be retried, then
		// report expiry. Deletion failure is only logged; the token is
		// unredeemable either way.
		if _, err := s.Store.VerificationTokens().DeleteByTokenHash(ctx, fingerprint); err != nil {
			log.Error("failed to delete expired verification token", slog.Any("error", err))
		}
		log.Warn("verification attempted with expired token",
			slog.String("account_id", record.AccountID),
		)
		return ErrTokenExpired
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		deleted, err := tx.VerificationTokens().DeleteByTokenHash(ctx, fingerprint)
		if err != nil {
			return err
		}
		if !deleted {
			// A concurrent redemption or re-issue won the race.
			return ErrTokenNotFound
		}
		return tx.Accounts().MarkVerified(ctx, record.AccountID, now)
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			log.Warn("verification token consumed concurrently",
				slog.String("account_id", record.AccountID),
			)
			return ErrTokenNotFound
		}
		if errors.Is(err, store.ErrNotFound) {
			// Account vanished between lookup and effect (reaper or
			// closure). The rollback keeps the row and effect consistent.
			return ErrTokenNotFound
		}
		log.Error("failed to redeem verification token", slog.Any("error", err))
		return err
	}

	log.Info("account verified",
		slog.String("account_id", record.AccountID),
	)
	return nil
}

// RedeemPasswordReset consumes a reset token and replaces the account's
// password hash. The new password is validated before any store access and
// hashed before the atomic consume step, so the expensive hash never runs
// inside the critical section.
func (s *TokenRedeemer) RedeemPasswordReset(ctx context.Context, token, newPassword string) error {
	log := slogx.FromContext(ctx)

	if token == "" {
		return ErrTokenNotFound
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	fingerprint := cryptox.FingerprintToken(token)

	account, err := s.Store.Accounts().GetAccountByResetTokenHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("password reset attempted with unknown token")
			return ErrTokenNotFound
		}
		log.Error("failed to fetch account by reset token", slog.Any("error", err))
		return err
	}

	now := time.Now().UTC()
	if account.ResetTokenExpiry == nil || !now.Before(*account.ResetTokenExpiry) {
		// Treated as absent once expired; clear the slot on this read.
		if err := s.Store.Accounts().ClearResetToken(ctx, account.ID, fingerprint); err != nil {
			log.Error("failed to clear expired reset token", slog.Any("error", err))
		}
		log.Warn("password reset attempted with expired token",
			slog.String("account_id", account.ID),
		)
		return ErrTokenExpired
	}

	passwordHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	// Compare-and-swap: replaces the hash and clears the slot only while
	// the slot still holds this fingerprint.
	err = s.Store.Accounts().ConsumeResetToken(ctx, account.ID, fingerprint, passwordHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("reset token consumed or superseded concurrently",
				slog.String("account_id", account.ID),
			)
			return ErrTokenNotFound
		}
		log.Error("failed to consume reset token", slog.Any("error", err))
		return err
	}

	log.Info("password reset completed",
		slog.String("account_id", account.ID),
	)
	return nil
}
