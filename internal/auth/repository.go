package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository is the session store: it owns persistence of refresh,
// verification, and password-reset tokens. Lookups surface sql.ErrNoRows for
// absent rows; expiry checks belong to the caller (lazy expiry, no sweeper on
// the request path).
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type CleanupResult struct {
	DeletedRefreshTokens      int64 `json:"deleted_refresh_tokens"`
	DeletedVerificationTokens int64 `json:"deleted_verification_tokens"`
	DeletedResetTokens        int64 `json:"deleted_reset_tokens"`
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

func (r *Repository) FindRefreshToken(ctx context.Context, token string) (RefreshTokenRecord, error) {
	var record RefreshTokenRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`, token).Scan(&record.Token, &record.UserID, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RefreshTokenRecord{}, err
		}
		return RefreshTokenRecord{}, fmt.Errorf("query refresh token: %w", err)
	}

	return record, nil
}

// DeleteRefreshToken is an idempotent no-op when the row is absent.
func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	return nil
}

func (r *Repository) DeleteRefreshTokensForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user refresh tokens: %w", err)
	}

	return nil
}

func (r *Repository) SaveVerificationToken(ctx context.Context, email, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_tokens (token, email, expires_at)
		VALUES ($1, $2, $3)
	`, token, email, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert verification token: %w", err)
	}

	return nil
}

func (r *Repository) FindVerificationToken(ctx context.Context, token string) (VerificationTokenRecord, error) {
	var record VerificationTokenRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT token, email, expires_at
		FROM verification_tokens
		WHERE token = $1
	`, token).Scan(&record.Token, &record.Email, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VerificationTokenRecord{}, err
		}
		return VerificationTokenRecord{}, fmt.Errorf("query verification token: %w", err)
	}

	return record, nil
}

// DeleteVerificationToken reports sql.ErrNoRows when the row was already
// gone, so concurrent redemptions resolve to exactly one winner.
func (r *Repository) DeleteVerificationToken(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete verification token: %w", err)
	}

	return requireRow(res)
}

func (r *Repository) SavePasswordResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert password reset token: %w", err)
	}

	return nil
}

func (r *Repository) FindPasswordResetToken(ctx context.Context, token string) (PasswordResetTokenRecord, error) {
	var record PasswordResetTokenRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at
		FROM password_reset_tokens
		WHERE token = $1
	`, token).Scan(&record.Token, &record.UserID, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PasswordResetTokenRecord{}, err
		}
		return PasswordResetTokenRecord{}, fmt.Errorf("query password reset token: %w", err)
	}

	return record, nil
}

// DeletePasswordResetToken reports sql.ErrNoRows when the row was already
// gone, giving at-most-once redemption without a lock.
func (r *Repository) DeletePasswordResetToken(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete password reset token: %w", err)
	}

	return requireRow(res)
}

func (r *Repository) DeletePasswordResetTokensForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user password reset tokens: %w", err)
	}

	return nil
}

// CleanupStaleTokens batch-deletes expired rows from all three token tables.
// Request paths never depend on it; they check expiry themselves.
func (r *Repository) CleanupStaleTokens(ctx context.Context, batchSize int) (CleanupResult, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	var result CleanupResult
	var err error

	if result.DeletedRefreshTokens, err = r.deleteExpired(ctx, "refresh_tokens", batchSize); err != nil {
		return CleanupResult{}, err
	}
	if result.DeletedVerificationTokens, err = r.deleteExpired(ctx, "verification_tokens", batchSize); err != nil {
		return CleanupResult{}, err
	}
	if result.DeletedResetTokens, err = r.deleteExpired(ctx, "password_reset_tokens", batchSize); err != nil {
		return CleanupResult{}, err
	}

	return result, nil
}

func (r *Repository) deleteExpired(ctx context.Context, table string, batchSize int) (int64, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		WITH stale AS (
			SELECT token
			FROM %s
			WHERE expires_at < NOW()
			ORDER BY expires_at ASC
			LIMIT $1
		)
		DELETE FROM %s t
		USING stale
		WHERE t.token = stale.token
	`, table, table), batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale rows from %s: %w", table, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale %s rows affected: %w", table, err)
	}

	return affected, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
