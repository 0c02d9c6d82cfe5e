package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/turf-booking/internal/model"
)

// BookingRepo provides the reservation write path and booking reads.
// Bookings are created only here (together with their payment row) and
// mutated only by the settlement path in PaymentRepo; nothing else
// writes these tables.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// payerColumns splits a tagged payer reference into the two nullable
// foreign-key columns of the bookings table. Exactly one of the
// returned values is non-NULL; PayerRef validity is checked by the
// service before the row ever reaches the repository.
func payerColumns(p model.PayerRef) (userID, turfUserID any) {
	switch p.Kind {
	case model.PayerGlobalUser:
		return p.ID, nil
	case model.PayerTenantCustomer:
		return nil, p.ID
	}
	return nil, nil
}

func scanPayer(userID, turfUserID sql.NullInt64) model.PayerRef {
	if userID.Valid {
		return model.PayerRef{Kind: model.PayerGlobalUser, ID: uint64(userID.Int64)}
	}
	if turfUserID.Valid {
		return model.PayerRef{Kind: model.PayerTenantCustomer, ID: uint64(turfUserID.Int64)}
	}
	return model.PayerRef{}
}

// CreateBookingAndPayment durably creates a booking in state PENDING
// and its linked payment in state PENDING as one transaction. Inside
// the transaction it re-runs the overlap check against live data with
// a locking read, so two concurrent attempts on overlapping intervals
// cannot both commit: the database transaction is the enforcement
// mechanism, not application-level locking. The earlier read-time
// availability check is advisory only.
//
// On conflict ErrSlotUnavailable is returned and nothing is written.
// Any other failure rolls back the whole transaction, so a booking
// without a payment is never observable.
func (r *BookingRepo) CreateBookingAndPayment(ctx context.Context, b *model.Booking, p *model.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Authoritative conflict re-check. Half-open intervals: a booking
	// ending exactly at the requested start does not conflict. FOR
	// UPDATE locks the matched index range so a concurrent insert of
	// an overlapping interval serializes behind this transaction.
	const qConflict = `SELECT id FROM bookings
	                   WHERE turf_field_id = ?
	                     AND status IN ('PENDING','CONFIRMED')
	                     AND start_time < ? AND end_time > ?
	                   LIMIT 1
	                   FOR UPDATE`
	var conflictID uint64
	err = tx.QueryRowContext(ctx, qConflict, b.TurfFieldID, b.EndTime, b.StartTime).Scan(&conflictID)
	if err == nil {
		return ErrSlotUnavailable
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	userID, turfUserID := payerColumns(b.Payer)
	const qBooking = `INSERT INTO bookings
	                  (turf_profile_id, turf_field_id, user_id, turf_user_id, start_time, end_time, status, payment_status, payment_amount)
	                  VALUES (?, ?, ?, ?, ?, ?, 'PENDING', 'PENDING', ?)`
	res, err := tx.ExecContext(ctx, qBooking,
		b.TurfProfileID, b.TurfFieldID, userID, turfUserID, b.StartTime, b.EndTime, b.PaymentAmount)
	if err != nil {
		return err
	}
	bid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(bid)
	b.Status = model.BookingPending
	b.PaymentStatus = model.PaymentPending

	if p.PublicID == "" {
		p.PublicID = uuid.NewString()
	}
	p.BookingID = b.ID
	p.Provider = model.ProviderBkash
	const qPayment = `INSERT INTO payments
	                  (public_id, booking_id, amount, status, payer_name, payer_email, provider)
	                  VALUES (?, ?, ?, 'PENDING', ?, ?, ?)`
	res, err = tx.ExecContext(ctx, qPayment,
		p.PublicID, p.BookingID, p.Amount, p.PayerName, p.PayerEmail, p.Provider)
	if err != nil {
		return err
	}
	pid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(pid)
	p.Status = model.PaymentPending

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

const bookingCols = `id, turf_profile_id, turf_field_id, user_id, turf_user_id, start_time, end_time, status, payment_status, payment_amount, created_at, updated_at`

func scanBooking(scan func(dest ...any) error) (*model.Booking, error) {
	var b model.Booking
	var userID, turfUserID sql.NullInt64
	err := scan(&b.ID, &b.TurfProfileID, &b.TurfFieldID, &userID, &turfUserID,
		&b.StartTime, &b.EndTime, &b.Status, &b.PaymentStatus, &b.PaymentAmount,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	b.Payer = scanPayer(userID, turfUserID)
	return &b, nil
}

// GetByID retrieves a booking by its ID.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ?`
	return scanBooking(r.db.QueryRowContext(ctx, q, id).Scan)
}

// ListForFieldBetween returns non-cancelled bookings on a field whose
// interval intersects [from, to). This feeds the read-time BOOKED
// overlay on slot listings; it never holds locks and is inherently
// racy against concurrent writers, which is acceptable for display.
func (r *BookingRepo) ListForFieldBetween(ctx context.Context, fieldID uint64, from, to time.Time) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
	           WHERE turf_field_id = ?
	             AND status IN ('PENDING','CONFIRMED')
	             AND start_time < ? AND end_time > ?
	           ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, q, fieldID, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByPayer returns all bookings attributed to the given payer,
// newest first. Tenant customers only ever see bookings inside their
// own facility because their payer reference is facility-scoped.
func (r *BookingRepo) ListByPayer(ctx context.Context, payer model.PayerRef) ([]model.Booking, error) {
	var q string
	switch payer.Kind {
	case model.PayerGlobalUser:
		q = `SELECT ` + bookingCols + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	case model.PayerTenantCustomer:
		q = `SELECT ` + bookingCols + ` FROM bookings WHERE turf_user_id = ? ORDER BY created_at DESC`
	default:
		return nil, model.ErrNoPayer
	}
	rows, err := r.db.QueryContext(ctx, q, payer.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
