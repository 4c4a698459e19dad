package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pictogramapp/pictogram/internal/identity/domain"
	"github.com/pictogramapp/pictogram/internal/identity/store"
	"github.com/pictogramapp/pictogram/internal/identity/store/drivers/sqlite"
	"github.com/pictogramapp/pictogram/pkg/idx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "identity.db") + "?_pragma=busy_timeout(10000)"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())

	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newAccount(email, username string) domain.Account {
	return domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: "hash",
	}
}

func TestAccountUniqueness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Accounts().CreateAccount(ctx, newAccount("a@example.com", "alice")))

	t.Run("duplicate email", func(t *testing.T) {
		err := st.Accounts().CreateAccount(ctx, newAccount("a@example.com", "bob"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("duplicate email, different case", func(t *testing.T) {
		err := st.Accounts().CreateAccount(ctx, newAccount("A@Example.com", "carol"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("duplicate username, different case", func(t *testing.T) {
		err := st.Accounts().CreateAccount(ctx, newAccount("b@example.com", "ALICE"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("original casing of username is preserved", func(t *testing.T) {
		account, err := st.Accounts().GetAccountByUsername(ctx, "Alice")
		require.NoError(t, err)
		require.Equal(t, "alice", account.Username)
	})
}

func TestAccountLookups(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created := newAccount("lookup@example.com", "Look_Up")
	require.NoError(t, st.Accounts().CreateAccount(ctx, created))

	byID, err := st.Accounts().GetAccountByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "lookup@example.com", byID.Email)
	require.Equal(t, "Look_Up", byID.Username)
	require.Nil(t, byID.VerifiedAt)
	require.False(t, byID.CreatedAt.IsZero())

	_, err = st.Accounts().GetAccountByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Accounts().GetAccountByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkVerified(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created := newAccount("mv@example.com", "mv_user")
	require.NoError(t, st.Accounts().CreateAccount(ctx, created))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.Accounts().MarkVerified(ctx, created.ID, at))

	account, err := st.Accounts().GetAccountByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, account.VerifiedAt)
	require.True(t, account.Verified())

	require.ErrorIs(t, st.Accounts().MarkVerified(ctx, "missing", at), store.ErrNotFound)
}

func TestVerificationTokenUpsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	account := newAccount("tok@example.com", "tok_user")
	require.NoError(t, st.Accounts().CreateAccount(ctx, account))

	first := domain.VerificationToken{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: "hash-one",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, st.VerificationTokens().UpsertForAccount(ctx, first))

	t.Run("second upsert replaces the row", func(t *testing.T) {
		second := domain.VerificationToken{
			ID:        idx.New().String(),
			AccountID: account.ID,
			TokenHash: "hash-two",
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		}
		require.NoError(t, st.VerificationTokens().UpsertForAccount(ctx, second))

		_, err := st.VerificationTokens().GetByTokenHash(ctx, "hash-one")
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err := st.VerificationTokens().GetByTokenHash(ctx, "hash-two")
		require.NoError(t, err)
		require.Equal(t, account.ID, got.AccountID)
	})

	t.Run("fingerprint collision across accounts", func(t *testing.T) {
		other := newAccount("tok2@example.com", "tok2_user")
		require.NoError(t, st.Accounts().CreateAccount(ctx, other))

		err := st.VerificationTokens().UpsertForAccount(ctx, domain.VerificationToken{
			ID:        idx.New().String(),
			AccountID: other.ID,
			TokenHash: "hash-two",
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestDeleteByTokenHashReportsConsumption(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	account := newAccount("del@example.com", "del_user")
	require.NoError(t, st.Accounts().CreateAccount(ctx, account))
	require.NoError(t, st.VerificationTokens().UpsertForAccount(ctx, domain.VerificationToken{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: "del-hash",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))

	deleted, err := st.VerificationTokens().DeleteByTokenHash(ctx, "del-hash")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = st.VerificationTokens().DeleteByTokenHash(ctx, "del-hash")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestDeleteExpiredTokens(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live := newAccount("live@example.com", "live_user")
	dead := newAccount("dead@example.com", "dead_user")
	require.NoError(t, st.Accounts().CreateAccount(ctx, live))
	require.NoError(t, st.Accounts().CreateAccount(ctx, dead))

	require.NoError(t, st.VerificationTokens().UpsertForAccount(ctx, domain.VerificationToken{
		ID: idx.New().String(), AccountID: live.ID, TokenHash: "live-hash",
		ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, st.VerificationTokens().UpsertForAccount(ctx, domain.VerificationToken{
		ID: idx.New().String(), AccountID: dead.ID, TokenHash: "dead-hash",
		ExpiresAt: now.Add(-time.Hour),
	}))

	require.NoError(t, st.VerificationTokens().DeleteExpired(ctx, now))

	_, err := st.VerificationTokens().GetByTokenHash(ctx, "live-hash")
	require.NoError(t, err)
	_, err = st.VerificationTokens().GetByTokenHash(ctx, "dead-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestResetTokenSlot(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	expiry := time.Now().UTC().Add(time.Hour)

	account := newAccount("slot@example.com", "slot_user")
	require.NoError(t, st.Accounts().CreateAccount(ctx, account))

	t.Run("set and lookup", func(t *testing.T) {
		require.NoError(t, st.Accounts().SetResetToken(ctx, account.ID, "reset-hash", expiry))

		got, err := st.Accounts().GetAccountByResetTokenHash(ctx, "reset-hash")
		require.NoError(t, err)
		require.Equal(t, account.ID, got.ID)
	})

	t.Run("fingerprint collision across accounts", func(t *testing.T) {
		other := newAccount("slot2@example.com", "slot2_user")
		require.NoError(t, st.Accounts().CreateAccount(ctx, other))

		err := st.Accounts().SetResetToken(ctx, other.ID, "reset-hash", expiry)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("consume is compare-and-swap", func(t *testing.T) {
		require.NoError(t, st.Accounts().ConsumeResetToken(ctx, account.ID, "reset-hash", "new-hash"))

		got, err := st.Accounts().GetAccountByID(ctx, account.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)
		require.Nil(t, got.ResetTokenHash)
		require.Nil(t, got.ResetTokenExpiry)

		// Slot no longer holds the hash, the swap must miss.
		err = st.Accounts().ConsumeResetToken(ctx, account.ID, "reset-hash", "evil-hash")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("clear is a no-op when the slot changed", func(t *testing.T) {
		require.NoError(t, st.Accounts().SetResetToken(ctx, account.ID, "hash-a", expiry))
		require.NoError(t, st.Accounts().ClearResetToken(ctx, account.ID, "stale-hash"))

		got, err := st.Accounts().GetAccountByID(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ResetTokenHash)

		require.NoError(t, st.Accounts().ClearResetToken(ctx, account.ID, "hash-a"))
		got, err = st.Accounts().GetAccountByID(ctx, account.ID)
		require.NoError(t, err)
		require.Nil(t, got.ResetTokenHash)
	})

	t.Run("unknown account", func(t *testing.T) {
		err := st.Accounts().SetResetToken(ctx, "missing", "x-hash", expiry)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestListUnverifiedCreatedBefore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := newAccount("stale@example.com", "stale_user")
	stale.CreatedAt = now.Add(-72 * time.Hour)
	fresh := newAccount("fresh@example.com", "fresh_user")
	verified := newAccount("done@example.com", "done_user")
	verified.CreatedAt = now.Add(-72 * time.Hour)

	for _, a := range []domain.Account{stale, fresh, verified} {
		require.NoError(t, st.Accounts().CreateAccount(ctx, a))
	}
	require.NoError(t, st.Accounts().MarkVerified(ctx, verified.ID, now))

	got, err := st.Accounts().ListUnverifiedCreatedBefore(ctx, now.Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, stale.ID, got[0].ID)
}

func TestDeleteAccountIfUnverified(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	unverified := newAccount("u@example.com", "u_user")
	verified := newAccount("v@example.com", "v_user")
	require.NoError(t, st.Accounts().CreateAccount(ctx, unverified))
	require.NoError(t, st.Accounts().CreateAccount(ctx, verified))
	require.NoError(t, st.Accounts().MarkVerified(ctx, verified.ID, time.Now().UTC()))

	deleted, err := st.Accounts().DeleteAccountIfUnverified(ctx, unverified.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = st.Accounts().DeleteAccountIfUnverified(ctx, verified.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = st.Accounts().GetAccountByID(ctx, verified.ID)
	require.NoError(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	account := newAccount("tx@example.com", "tx_user")
	require.NoError(t, st.Accounts().CreateAccount(ctx, account))
	require.NoError(t, st.VerificationTokens().UpsertForAccount(ctx, domain.VerificationToken{
		ID: idx.New().String(), AccountID: account.ID, TokenHash: "tx-hash",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))

	sentinel := errors.New("abort")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.VerificationTokens().DeleteAllForAccount(ctx, account.ID); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// Rolled back, the token is still there.
	_, err = st.VerificationTokens().GetByTokenHash(ctx, "tx-hash")
	require.NoError(t, err)
}

func TestDeleteAccountCascadesTokens(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	account := newAccount("cascade@example.com", "cascade_u")
	require.NoError(t, st.Accounts().CreateAccount(ctx, account))
	require.NoError(t, st.VerificationTokens().UpsertForAccount(ctx, domain.VerificationToken{
		ID: idx.New().String(), AccountID: account.ID, TokenHash: "cascade-hash",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))

	require.NoError(t, st.Accounts().DeleteAccount(ctx, account.ID))

	_, err := st.VerificationTokens().GetByTokenHash(ctx, "cascade-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}
