package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pictogramapp/pictogram/internal/identity/domain"
	"github.com/pictogramapp/pictogram/internal/identity/store"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, email, username, password_hash, verified_at,
	reset_token_hash, reset_token_expiry, created_at, updated_at`

func (r *accountsRepo) scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a           domain.Account
		verifiedAt  sql.NullTime
		resetHash   sql.NullString
		resetExpiry sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.Username, &a.PasswordHash,
		&verifiedAt, &resetHash, &resetExpiry,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.VerifiedAt = mapNullTimePtr(verifiedAt)
	a.ResetTokenHash = mapNullStringPtr(resetHash)
	a.ResetTokenExpiry = mapNullTimePtr(resetExpiry)
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return r.scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`,
		strings.ToLower(email))
	return r.scanAccount(row)
}

func (r *accountsRepo) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username_key = ?`,
		strings.ToLower(username))
	return r.scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	created := a.CreatedAt
	if created.IsZero() {
		created = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (
			id, email, username, username_key, password_hash,
			verified_at, reset_token_hash, reset_token_expiry,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		strings.ToLower(a.Email),
		a.Username,
		strings.ToLower(a.Username),
		a.PasswordHash,
		mapOptionalTime(a.VerifiedAt),
		mapOptionalString(a.ResetTokenHash),
		mapOptionalTime(a.ResetTokenExpiry),
		created,
		now,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) MarkVerified(ctx context.Context, accountID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET verified_at = ?, updated_at = ?
		WHERE id = ?`,
		at.UTC(), time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) SetResetToken(ctx context.Context, accountID, tokenHash string, expiry time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET reset_token_hash = ?, reset_token_expiry = ?, updated_at = ?
		WHERE id = ?`,
		tokenHash, expiry.UTC(), time.Now().UTC(), accountID)
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) GetAccountByResetTokenHash(ctx context.Context, tokenHash string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE reset_token_hash = ?`,
		tokenHash)
	return r.scanAccount(row)
}

// ConsumeResetToken is the single-use gate for password resets: the UPDATE
// only matches while the slot still holds tokenHash, so one of any number
// of concurrent redeemers wins and the rest see ErrNotFound.
func (r *accountsRepo) ConsumeResetToken(ctx context.Context, accountID, tokenHash, newPasswordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET password_hash = ?, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = ?
		WHERE id = ? AND reset_token_hash = ?`,
		newPasswordHash, time.Now().UTC(), accountID, tokenHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) ClearResetToken(ctx context.Context, accountID, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = ?
		WHERE id = ? AND reset_token_hash = ?`,
		time.Now().UTC(), accountID, tokenHash)
	return err
}

func (r *accountsRepo) ListUnverifiedCreatedBefore(ctx context.Context, cutoff time.Time) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE verified_at IS NULL AND created_at < ?
		ORDER BY created_at`,
		cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var (
			a           domain.Account
			verifiedAt  sql.NullTime
			resetHash   sql.NullString
			resetExpiry sql.NullTime
		)
		if err := rows.Scan(
			&a.ID, &a.Email, &a.Username, &a.PasswordHash,
			&verifiedAt, &resetHash, &resetExpiry,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.VerifiedAt = mapNullTimePtr(verifiedAt)
		a.ResetTokenHash = mapNullStringPtr(resetHash)
		a.ResetTokenExpiry = mapNullTimePtr(resetExpiry)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAccountIfUnverified re-checks the verification condition as part of
// the delete, so an account that verified between selection and deletion
// survives the sweep.
func (r *accountsRepo) DeleteAccountIfUnverified(ctx context.Context, accountID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND verified_at IS NULL`, accountID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	return err
}
