package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash'
// column). A token belongs either to a global user or to a tenant
// customer; exactly one of the two owner columns is set per row.
type TokenRepo struct{ DB *sql.DB }

// NewTokenRepo returns a TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row for a global user.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// StoreTurfRefresh inserts a refresh token hash row for a tenant customer.
func (r *TokenRepo) StoreTurfRefresh(ctx context.Context, turfUserID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (turf_user_id, token_hash, expires_at) VALUES (?,?,?)",
		turfUserID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the owning user/turf-user IDs if a
// non-revoked, non-expired token exists. Exactly one of the returned
// IDs is non-zero. sql.ErrNoRows covers all invalid cases.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (userID, turfUserID uint64, err error) {
	var (
		uid       sql.NullInt64
		tuid      sql.NullInt64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err = r.DB.QueryRowContext(ctx,
		"SELECT user_id, turf_user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&uid, &tuid, &expiresAt, &revokedAt)
	if err != nil {
		return 0, 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, 0, sql.ErrNoRows
	}
	if uid.Valid {
		userID = uint64(uid.Int64)
	}
	if tuid.Valid {
		turfUserID = uint64(tuid.Int64)
	}
	return userID, turfUserID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all of a global user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
