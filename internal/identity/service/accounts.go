package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pictogramapp/pictogram/internal/identity/domain"
	"github.com/pictogramapp/pictogram/internal/identity/store"
	"github.com/pictogramapp/pictogram/pkg/cryptox"
	"github.com/pictogramapp/pictogram/pkg/idx"
	"github.com/pictogramapp/pictogram/pkg/slogx"
)

// AccountService owns account rows and the verification state gate. The
// login collaborator calls IsVerified to decide whether sign-in proceeds;
// no token logic lives here.
type AccountService struct {
	Store  store.Store
	Issuer *TokenIssuer
	Mailer Mailer
}

// Register validates credentials, creates an unverified account, issues a
// verification token and hands it to the mailer. The uniqueness checks run
// first for friendly errors, but the INSERT itself is what enforces
// uniqueness: a lost race fails the whole write with a conflict error
// rather than half-creating an account.
func (s *AccountService) Register(ctx context.Context, email, username, password string) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)

	emailAvailable, err := s.EmailAvailable(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}
	if err := ValidateEmail(email, emailAvailable); err != nil {
		return domain.Account{}, err
	}

	usernameAvailable, err := s.UsernameAvailable(ctx, username)
	if err != nil {
		return domain.Account{}, err
	}
	if err := ValidateUsername(username, usernameAvailable); err != nil {
		return domain.Account{}, err
	}

	if err := ValidatePassword(password); err != nil {
		return domain.Account{}, err
	}

	// Argon2id is CPU-expensive; hash before touching the store.
	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Raced another registration between check and insert. The
			// store cannot tell us which column clashed, so re-check.
			if avail, availErr := s.EmailAvailable(ctx, email); availErr == nil && !avail {
				return domain.Account{}, ErrEmailTaken
			}
			return domain.Account{}, ErrUsernameTaken
		}
		log.Error("failed to create account",
			slog.String("username", username),
			slog.Any("error", err),
		)
		return domain.Account{}, err
	}

	log.Info("account registered",
		slog.String("account_id", account.ID),
		slog.String("username", account.Username),
	)

	// Token issuance and delivery are best-effort at this point: the
	// account exists either way and the user can request a resend.
	token, err := s.Issuer.IssueVerificationToken(ctx, account.ID)
	if err != nil {
		log.Error("failed to issue verification token after registration",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return account, nil
	}
	if err := s.Mailer.SendVerification(ctx, account.Email, account.Username, token); err != nil {
		log.Error("failed to send verification email",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
	}

	return account, nil
}

// EmailAvailable reports whether no account holds the normalized email.
func (s *AccountService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	_, err := s.Store.Accounts().GetAccountByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// UsernameAvailable reports whether no account holds the username
// (case-insensitive).
func (s *AccountService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.Store.Accounts().GetAccountByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// ResendVerification issues a fresh verification token for the email's
// account, superseding any outstanding one, and mails it. Unknown emails
// fail with ErrAccountNotFound; already verified accounts are a no-op.
// Hiding either outcome from unauthenticated callers is the transport
// layer's job.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	account, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account.Verified() {
		return nil
	}

	token, err := s.Issuer.IssueVerificationToken(ctx, account.ID)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendVerification(ctx, account.Email, account.Username, token); err != nil {
		log.Error("failed to send verification email",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// RequestPasswordReset issues a reset token for the email's account,
// superseding any outstanding one, and mails it. Unknown emails fail with
// ErrAccountNotFound.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	account, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.Issuer.IssueResetToken(ctx, account.ID)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordReset(ctx, account.Email, account.Username, token); err != nil {
		log.Error("failed to send password reset email",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// GetByEmail fetches an account by its normalized email.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetAccountByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, err
}

// IsVerified is the gate the session/login service consults before
// accepting credentials.
func (s *AccountService) IsVerified(ctx context.Context, accountID string) (bool, error) {
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrAccountNotFound
		}
		return false, err
	}
	return account.Verified(), nil
}

// Close deletes an account and every token it owns.
func (s *AccountService) Close(ctx context.Context, accountID string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.VerificationTokens().DeleteAllForAccount(ctx, accountID); err != nil {
			return err
		}
		return tx.Accounts().DeleteAccount(ctx, accountID)
	})
	if err != nil {
		log.Error("failed to close account",
			slog.String("account_id", accountID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("account closed", slog.String("account_id", accountID))
	return nil
}
