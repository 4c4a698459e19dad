package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pictogramapp/pictogram/internal/identity/store"
	"github.com/pictogramapp/pictogram/pkg/cryptox"
)

func TestIssueVerificationToken(t *testing.T) {
	st := newTestStore(t)
	svc, _ := newTestAccountService(t, st)
	issuer := svc.Issuer
	ctx := context.Background()

	accountID := registerTestAccount(t, svc, "issue@example.com", "issue_user")

	t.Run("stores only the fingerprint", func(t *testing.T) {
		token, err := issuer.IssueVerificationToken(ctx, accountID)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		record, err := st.VerificationTokens().GetByTokenHash(ctx, cryptox.FingerprintToken(token))
		require.NoError(t, err)
		require.Equal(t, accountID, record.AccountID)
		require.NotEqual(t, token, record.TokenHash)
	})

	t.Run("re-issue supersedes the previous token", func(t *testing.T) {
		first, err := issuer.IssueVerificationToken(ctx, accountID)
		require.NoError(t, err)
		second, err := issuer.IssueVerificationToken(ctx, accountID)
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		_, err = st.VerificationTokens().GetByTokenHash(ctx, cryptox.FingerprintToken(first))
		require.ErrorIs(t, err, store.ErrNotFound)

		record, err := st.VerificationTokens().GetByTokenHash(ctx, cryptox.FingerprintToken(second))
		require.NoError(t, err)
		require.Equal(t, accountID, record.AccountID)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := issuer.IssueVerificationToken(ctx, "01K00000000000000000000000")
		require.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestIssueResetToken(t *testing.T) {
	st := newTestStore(t)
	svc, _ := newTestAccountService(t, st)
	issuer := svc.Issuer
	ctx := context.Background()

	accountID := registerTestAccount(t, svc, "reset-issue@example.com", "reset_issue")

	t.Run("fills the account's reset slot", func(t *testing.T) {
		token, err := issuer.IssueResetToken(ctx, accountID)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		account, err := st.Accounts().GetAccountByID(ctx, accountID)
		require.NoError(t, err)
		require.NotNil(t, account.ResetTokenHash)
		require.Equal(t, cryptox.FingerprintToken(token), *account.ResetTokenHash)
		require.NotNil(t, account.ResetTokenExpiry)
		require.True(t, account.ResetTokenExpiry.After(time.Now()))
	})

	t.Run("re-issue overwrites the slot", func(t *testing.T) {
		first, err := issuer.IssueResetToken(ctx, accountID)
		require.NoError(t, err)
		second, err := issuer.IssueResetToken(ctx, accountID)
		require.NoError(t, err)

		_, err = st.Accounts().GetAccountByResetTokenHash(ctx, cryptox.FingerprintToken(first))
		require.ErrorIs(t, err, store.ErrNotFound)

		account, err := st.Accounts().GetAccountByResetTokenHash(ctx, cryptox.FingerprintToken(second))
		require.NoError(t, err)
		require.Equal(t, accountID, account.ID)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := issuer.IssueResetToken(ctx, "01K00000000000000000000000")
		require.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestIssueHonoursConfiguredTTLs(t *testing.T) {
	st := newTestStore(t)
	svc, _ := newTestAccountService(t, st)
	ctx := context.Background()

	accountID := registerTestAccount(t, svc, "ttl@example.com", "ttl_user")

	issuer := &TokenIssuer{Store: st, VerificationTTL: 10 * time.Minute, ResetTTL: 2 * time.Minute}

	token, err := issuer.IssueVerificationToken(ctx, accountID)
	require.NoError(t, err)
	record, err := st.VerificationTokens().GetByTokenHash(ctx, cryptox.FingerprintToken(token))
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC().Add(10*time.Minute), record.ExpiresAt, 30*time.Second)

	_, err = issuer.IssueResetToken(ctx, accountID)
	require.NoError(t, err)
	account, err := st.Accounts().GetAccountByID(ctx, accountID)
	require.NoError(t, err)
	require.NotNil(t, account.ResetTokenExpiry)
	require.WithinDuration(t, time.Now().UTC().Add(2*time.Minute), *account.ResetTokenExpiry, 30*time.Second)
}
