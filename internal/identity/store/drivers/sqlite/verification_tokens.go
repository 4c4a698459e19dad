package sqlite

import (
	"context"
	"time"

	"github.com/pictogramapp/pictogram/internal/identity/domain"
)

type verificationTokensRepo struct {
	db dbtx
}

// UpsertForAccount relies on the UNIQUE(account_id) constraint: re-issuing
// physically overwrites the previous row, which is what makes a superseded
// token permanently unredeemable. A clash on the global token_hash index
// surfaces as store.ErrAlreadyExists for the issuer to retry.
func (r *verificationTokensRepo) UpsertForAccount(ctx context.Context, t domain.VerificationToken) error {
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_tokens (id, account_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			id = excluded.id,
			token_hash = excluded.token_hash,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		t.ID, t.AccountID, t.TokenHash, t.ExpiresAt.UTC(), created)
	return mapConstraint(err)
}

func (r *verificationTokensRepo) GetByTokenHash(ctx context.Context, tokenHash string) (domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, token_hash, expires_at, created_at
		FROM verification_tokens WHERE token_hash = ?`,
		tokenHash).Scan(&t.ID, &t.AccountID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.VerificationToken{}, mapNotFound(err)
	}
	return t, nil
}

// DeleteByTokenHash reports whether the row still existed; the redeemer
// uses that as its only-once gate under concurrency.
func (r *verificationTokensRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *verificationTokensRepo) DeleteAllForAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE account_id = ?`, accountID)
	return err
}

func (r *verificationTokensRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE expires_at <= ?`, now.UTC())
	return err
}
