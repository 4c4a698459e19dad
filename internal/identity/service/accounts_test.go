package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pictogramapp/pictogram/internal/identity/store"
	"github.com/pictogramapp/pictogram/pkg/cryptox"
)

func TestRegister(t *testing.T) {
	st := newTestStore(t)
	svc, mailer := newTestAccountService(t, st)
	ctx := context.Background()

	t.Run("creates an unverified account and mails a token", func(t *testing.T) {
		account, err := svc.Register(ctx, "New@Example.COM", "new_user", "Abcdef1!")
		require.NoError(t, err)
		require.NotEmpty(t, account.ID)
		require.Equal(t, "new@example.com", account.Email)
		require.Equal(t, "new_user", account.Username)
		require.False(t, account.Verified())

		// The stored hash is not the password and verifies against it.
		stored, err := st.Accounts().GetAccountByID(ctx, account.ID)
		require.NoError(t, err)
		require.NotEqual(t, "Abcdef1!", stored.PasswordHash)
		require.NoError(t, cryptox.VerifyPassword("Abcdef1!", stored.PasswordHash))

		token := mailer.lastVerification()
		require.NotEmpty(t, token)
		record, err := st.VerificationTokens().GetByTokenHash(ctx, cryptox.FingerprintToken(token))
		require.NoError(t, err)
		require.Equal(t, account.ID, record.AccountID)
	})

	t.Run("rejects duplicate email case-insensitively", func(t *testing.T) {
		_, err := svc.Register(ctx, "NEW@example.com", "other_user", "Abcdef1!")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("rejects duplicate username case-insensitively", func(t *testing.T) {
		_, err := svc.Register(ctx, "other@example.com", "NEW_USER", "Abcdef1!")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("rejects invalid input before touching the store", func(t *testing.T) {
		_, err := svc.Register(ctx, "not-an-email", "someone", "Abcdef1!")
		require.ErrorIs(t, err, ErrEmailFormat)

		_, err = svc.Register(ctx, "someone@example.com", "ab", "Abcdef1!")
		require.ErrorIs(t, err, ErrUsernameFormat)

		_, err = svc.Register(ctx, "someone@example.com", "someone", "abc")
		require.ErrorIs(t, err, ErrPasswordFormat)

		_, err = st.Accounts().GetAccountByEmail(ctx, "someone@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestAvailability(t *testing.T) {
	st := newTestStore(t)
	svc, _ := newTestAccountService(t, st)
	ctx := context.Background()

	registerTestAccount(t, svc, "taken@example.com", "taken_user")

	available, err := svc.EmailAvailable(ctx, "Taken@Example.com")
	require.NoError(t, err)
	require.False(t, available)

	available, err = svc.EmailAvailable(ctx, "free@example.com")
	require.NoError(t, err)
	require.True(t, available)

	available, err = svc.UsernameAvailable(ctx, "TAKEN_USER")
	require.NoError(t, err)
	require.False(t, available)

	available, err = svc.UsernameAvailable(ctx, "free_user")
	require.NoError(t, err)
	require.True(t, available)
}

func TestIsVerified(t *testing.T) {
	st := newTestStore(t)
	svc, mailer := newTestAccountService(t, st)
	redeemer := &TokenRedeemer{Store: st}
	ctx := context.Background()

	accountID := registerTestAccount(t, svc, "gate@example.com", "gate_user")

	verified, err := svc.IsVerified(ctx, accountID)
	require.NoError(t, err)
	require.False(t, verified)

	require.NoError(t, redeemer.RedeemVerification(ctx, mailer.lastVerification()))

	verified, err = svc.IsVerified(ctx, accountID)
	require.NoError(t, err)
	require.True(t, verified)

	_, err = svc.IsVerified(ctx, "01K00000000000000000000000")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestResendVerification(t *testing.T) {
	st := newTestStore(t)
	svc, mailer := newTestAccountService(t, st)
	redeemer := &TokenRedeemer{Store: st}
	ctx := context.Background()

	registerTestAccount(t, svc, "resend@example.com", "resend_user")
	first := mailer.lastVerification()

	t.Run("supersedes the outstanding token", func(t *testing.T) {
		require.NoError(t, svc.ResendVerification(ctx, "Resend@Example.com"))
		second := mailer.lastVerification()
		require.NotEqual(t, first, second)

		require.ErrorIs(t, redeemer.RedeemVerification(ctx, first), ErrTokenNotFound)
		require.NoError(t, redeemer.RedeemVerification(ctx, second))
	})

	t.Run("verified account is a no-op", func(t *testing.T) {
		before := mailer.lastVerification()
		require.NoError(t, svc.ResendVerification(ctx, "resend@example.com"))
		require.Equal(t, before, mailer.lastVerification())
	})

	t.Run("unknown email", func(t *testing.T) {
		require.ErrorIs(t, svc.ResendVerification(ctx, "nobody@example.com"), ErrAccountNotFound)
	})
}

func TestRequestPasswordReset(t *testing.T) {
	st := newTestStore(t)
	svc, mailer := newTestAccountService(t, st)
	redeemer := &TokenRedeemer{Store: st}
	ctx := context.Background()

	registerTestAccount(t, svc, "forgot@example.com", "forgot_user")

	require.NoError(t, svc.RequestPasswordReset(ctx, "Forgot@Example.com"))
	token := mailer.lastReset()
	require.NotEmpty(t, token)

	require.NoError(t, redeemer.RedeemPasswordReset(ctx, token, "N3w-Passw0rd!"))

	require.ErrorIs(t, svc.RequestPasswordReset(ctx, "nobody@example.com"), ErrAccountNotFound)
}

func TestClose(t *testing.T) {
	st := newTestStore(t)
	svc, mailer := newTestAccountService(t, st)
	ctx := context.Background()

	accountID := registerTestAccount(t, svc, "close@example.com", "close_user")
	token := mailer.lastVerification()

	require.NoError(t, svc.Close(ctx, accountID))

	_, err := st.Accounts().GetAccountByID(ctx, accountID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.VerificationTokens().GetByTokenHash(ctx, cryptox.FingerprintToken(token))
	require.ErrorIs(t, err, store.ErrNotFound)
}
