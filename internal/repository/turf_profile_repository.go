package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/turf-booking/internal/model"
)

// TurfProfileRepo provides methods to create and retrieve facilities.
type TurfProfileRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewTurfProfileRepo constructs a TurfProfileRepo with the given DB handle.
func NewTurfProfileRepo(db *sql.DB) *TurfProfileRepo {
	return &TurfProfileRepo{db: db}
}

const turfProfileCols = `id, owner_id, slug, name, location, created_at, updated_at`

func scanTurfProfile(row *sql.Row) (*model.TurfProfile, error) {
	var p model.TurfProfile
	err := row.Scan(&p.ID, &p.OwnerID, &p.Slug, &p.Name, &p.Location, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new facility. The slug is normalized to lower case
// before insertion; a duplicate slug surfaces MySQL error 1062 which
// callers may treat as a validation failure. After insert the row is
// read back so timestamps are populated.
func (r *TurfProfileRepo) Create(ctx context.Context, p *model.TurfProfile) error {
	p.Slug = strings.ToLower(strings.TrimSpace(p.Slug))
	const qInsert = `INSERT INTO turf_profiles (owner_id, slug, name, location) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, p.OwnerID, p.Slug, p.Name, p.Location)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	const qSelect = `SELECT ` + turfProfileCols + ` FROM turf_profiles WHERE id = ?`
	got, err := scanTurfProfile(r.db.QueryRowContext(ctx, qSelect, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByID retrieves a facility by its ID. It returns ErrProfileNotFound
// when no row exists.
func (r *TurfProfileRepo) GetByID(ctx context.Context, id uint64) (*model.TurfProfile, error) {
	const q = `SELECT ` + turfProfileCols + ` FROM turf_profiles WHERE id = ?`
	return scanTurfProfile(r.db.QueryRowContext(ctx, q, id))
}

// GetBySlug retrieves a facility by its slug handle. Used by
// tenant-scoped auth and by the payment callback to build the
// facility-scoped redirect.
func (r *TurfProfileRepo) GetBySlug(ctx context.Context, slug string) (*model.TurfProfile, error) {
	const q = `SELECT ` + turfProfileCols + ` FROM turf_profiles WHERE slug = ?`
	return scanTurfProfile(r.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(slug))))
}

// GetByIDAndOwner retrieves a facility only if it belongs to the given
// owner. This helper enforces resource ownership on the owner CRUD
// endpoints. ErrForbidden is returned when the facility exists but is
// owned by someone else.
func (r *TurfProfileRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.TurfProfile, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return p, nil
}
