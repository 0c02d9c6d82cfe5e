package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/utils"
)

// TurfUserRepo persists tenant customers. Every lookup is scoped by
// facility: the same email may exist independently at two turfs.
type TurfUserRepo struct{ DB *sql.DB }

// NewTurfUserRepo returns a TurfUserRepo bound to the given database.
func NewTurfUserRepo(db *sql.DB) *TurfUserRepo { return &TurfUserRepo{DB: db} }

// Create inserts a tenant customer under a facility and returns its ID.
// A duplicate (facility, email) pair yields ErrEmailExists.
func (r *TurfUserRepo) Create(ctx context.Context, profileID uint64, email, password, name, phone string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO turf_users (turf_profile_id, email, password_hash, name, phone) VALUES (?,?,?,?,?)",
		profileID, email, hash, name, phone)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const turfUserCols = `id, turf_profile_id, email, password_hash, name, phone, created_at, updated_at`

func scanTurfUser(row *sql.Row) (model.TurfUser, error) {
	var u model.TurfUser
	err := row.Scan(&u.ID, &u.TurfProfileID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByEmail fetches a tenant customer by facility and normalized
// email. sql.ErrNoRows is returned on a miss so login can treat it as
// invalid credentials.
func (r *TurfUserRepo) GetByEmail(ctx context.Context, profileID uint64, email string) (model.TurfUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanTurfUser(r.DB.QueryRowContext(ctx,
		"SELECT "+turfUserCols+" FROM turf_users WHERE turf_profile_id=? AND email=? LIMIT 1",
		profileID, email))
}

// GetByID fetches a tenant customer by id.
func (r *TurfUserRepo) GetByID(ctx context.Context, id uint64) (model.TurfUser, error) {
	u, err := scanTurfUser(r.DB.QueryRowContext(ctx,
		"SELECT "+turfUserCols+" FROM turf_users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.TurfUser{}, err
	}
	return u, err
}
