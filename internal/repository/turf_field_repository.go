package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/turf-booking/internal/model"
)

// TurfFieldRepo provides methods to create, update and retrieve fields.
// Fields are never deleted; IsActive soft-disables them which also
// hides them from the reservation path.
type TurfFieldRepo struct {
	db *sql.DB
}

// NewTurfFieldRepo constructs a TurfFieldRepo with the given DB handle.
func NewTurfFieldRepo(db *sql.DB) *TurfFieldRepo {
	return &TurfFieldRepo{db: db}
}

const turfFieldCols = `id, turf_profile_id, name, open_hour, close_hour, slot_duration, price_per_slot, is_active, created_at, updated_at`

func scanTurfField(scan func(dest ...any) error) (*model.TurfField, error) {
	var f model.TurfField
	err := scan(&f.ID, &f.TurfProfileID, &f.Name, &f.OpenHour, &f.CloseHour,
		&f.SlotDuration, &f.PricePerSlot, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFieldNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Create inserts a new field under a facility. SlotDuration falls back
// to the default when unset. After insert the row is read back so
// defaults and timestamps are populated.
func (r *TurfFieldRepo) Create(ctx context.Context, f *model.TurfField) error {
	if f.SlotDuration <= 0 {
		f.SlotDuration = model.DefaultSlotDuration
	}
	const qInsert = `INSERT INTO turf_fields (turf_profile_id, name, open_hour, close_hour, slot_duration, price_per_slot)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, f.TurfProfileID, f.Name, f.OpenHour, f.CloseHour, f.SlotDuration, f.PricePerSlot)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)

	const qSelect = `SELECT ` + turfFieldCols + ` FROM turf_fields WHERE id = ?`
	got, err := scanTurfField(r.db.QueryRowContext(ctx, qSelect, f.ID).Scan)
	if err != nil {
		return err
	}
	*f = *got
	return nil
}

// GetByID retrieves a field regardless of facility. It returns
// ErrFieldNotFound when no row is found.
func (r *TurfFieldRepo) GetByID(ctx context.Context, id uint64) (*model.TurfField, error) {
	const q = `SELECT ` + turfFieldCols + ` FROM turf_fields WHERE id = ?`
	return scanTurfField(r.db.QueryRowContext(ctx, q, id).Scan)
}

// GetByIDForProfile retrieves an active field only when it belongs to
// the given facility. The reservation path uses this as the
// authoritative price lookup; a deactivated field is treated the same
// as a missing one.
func (r *TurfFieldRepo) GetByIDForProfile(ctx context.Context, fieldID, profileID uint64) (*model.TurfField, error) {
	const q = `SELECT ` + turfFieldCols + ` FROM turf_fields WHERE id = ? AND turf_profile_id = ? AND is_active = 1`
	return scanTurfField(r.db.QueryRowContext(ctx, q, fieldID, profileID).Scan)
}

// ListByProfile returns all fields of a facility ordered by name.
func (r *TurfFieldRepo) ListByProfile(ctx context.Context, profileID uint64) ([]model.TurfField, error) {
	const q = `SELECT ` + turfFieldCols + ` FROM turf_fields WHERE turf_profile_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	fields := make([]model.TurfField, 0)
	for rows.Next() {
		f, err := scanTurfField(rows.Scan)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

// Update persists hour, duration, price and active-flag changes to a
// field. The caller is expected to have verified ownership already.
func (r *TurfFieldRepo) Update(ctx context.Context, f *model.TurfField) error {
	const q = `UPDATE turf_fields
	           SET name = ?, open_hour = ?, close_hour = ?, slot_duration = ?, price_per_slot = ?, is_active = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, f.Name, f.OpenHour, f.CloseHour, f.SlotDuration, f.PricePerSlot, f.IsActive, f.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the field is gone or nothing changed; read back to
		// distinguish the two.
		if _, err := r.GetByID(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}
