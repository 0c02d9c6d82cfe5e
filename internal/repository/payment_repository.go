package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/turf-booking/internal/model"
)

// PaymentRepo provides payment reads, the provider-session attachment
// and the settlement write path. Settlement is the only place a
// payment leaves PENDING and the only place a booking is promoted to
// CONFIRMED; both updates happen in one transaction.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, public_id, booking_id, amount, status, payer_name, payer_email, provider,
	provider_payment_id, trx_id, provider_status, provider_payload, amount_paid, paid_at, created_at, updated_at`

func scanPayment(row *sql.Row) (*model.Payment, error) {
	var p model.Payment
	var providerPaymentID, trxID, providerStatus sql.NullString
	var payload []byte
	var amountPaid sql.NullInt64
	var paidAt sql.NullTime
	err := row.Scan(&p.ID, &p.PublicID, &p.BookingID, &p.Amount, &p.Status,
		&p.PayerName, &p.PayerEmail, &p.Provider,
		&providerPaymentID, &trxID, &providerStatus, &payload, &amountPaid, &paidAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if providerPaymentID.Valid {
		v := providerPaymentID.String
		p.ProviderPaymentID = &v
	}
	if trxID.Valid {
		v := trxID.String
		p.TrxID = &v
	}
	if providerStatus.Valid {
		v := providerStatus.String
		p.ProviderStatus = &v
	}
	p.ProviderPayload = payload
	if amountPaid.Valid {
		v := amountPaid.Int64
		p.AmountPaid = &v
	}
	if paidAt.Valid {
		v := paidAt.Time.UTC()
		p.PaidAt = &v
	}
	return &p, nil
}

// GetByPublicID retrieves a payment by its UUID correlation token.
func (r *PaymentRepo) GetByPublicID(ctx context.Context, publicID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE public_id = ?`
	return scanPayment(r.db.QueryRowContext(ctx, q, publicID))
}

// GetByBookingID retrieves the payment linked to a booking.
func (r *PaymentRepo) GetByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE booking_id = ?`
	return scanPayment(r.db.QueryRowContext(ctx, q, bookingID))
}

// AttachProviderSession stores the provider's payment handle and raw
// create response after a session is created. The status is left
// untouched: session creation only yields a redirect URL, it is not
// settlement, so the payment must stay PENDING here.
func (r *PaymentRepo) AttachProviderSession(ctx context.Context, publicID, providerPaymentID string, payload []byte) error {
	const q = `UPDATE payments
	           SET provider_payment_id = ?, provider_payload = ?
	           WHERE public_id = ? AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, q, providerPaymentID, payload, publicID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// Settlement carries the provider's execute response fields applied to
// a successful payment.
type Settlement struct {
	PaymentPublicID   string    // correlation token = payments.public_id
	BookingID         uint64    // provider's echoed payer reference
	TrxID             string    // provider transaction ID
	ProviderPaymentID string    // provider payment handle
	ProviderStatus    string    // provider transaction status string
	AmountPaid        int64     // settled amount in minor units
	Payload           []byte    // raw provider response
	PaidAt            time.Time // settlement instant
}

// Settle applies a successful provider execution: payment to PAID with
// all correlation fields, booking to CONFIRMED, both in one
// transaction so a reader can never observe a PAID payment on a
// PENDING booking or vice versa.
//
// Idempotence: the payment update is conditional on status='PENDING'.
// When a duplicate or out-of-order callback arrives after the payment
// reached a terminal state, zero rows match, nothing is written and
// (false, nil) is returned so the caller can still answer the provider
// with a success redirect. Financial state transitions are never
// re-applied and a CONFIRMED booking is never regressed.
func (r *PaymentRepo) Settle(ctx context.Context, s Settlement) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qPayment = `UPDATE payments
	                  SET status = 'PAID', trx_id = ?, provider_status = ?, provider_payment_id = ?,
	                      amount_paid = ?, provider_payload = ?, paid_at = ?
	                  WHERE public_id = ? AND status = 'PENDING'`
	res, err := tx.ExecContext(ctx, qPayment,
		s.TrxID, s.ProviderStatus, s.ProviderPaymentID, s.AmountPaid, s.Payload, s.PaidAt.UTC(), s.PaymentPublicID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Already settled (or the payment vanished): replay detected,
		// leave every row untouched.
		return false, nil
	}

	const qBooking = `UPDATE bookings
	                  SET status = 'CONFIRMED', payment_status = 'PAID'
	                  WHERE id = ?`
	if _, err := tx.ExecContext(ctx, qBooking, s.BookingID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// MarkFailed moves a still-PENDING payment to the given terminal
// failure state (FAILED or CANCELLED) and records whatever provider
// correlation data is available. Payments already in a terminal state
// are left untouched; the booking row is not modified, its interval is
// recovered by cancellation or a reconciliation sweep outside this
// core.
func (r *PaymentRepo) MarkFailed(ctx context.Context, publicID string, status model.PaymentStatus, providerStatus string, payload []byte) error {
	if status != model.PaymentFailed && status != model.PaymentCancelled {
		return errors.New("MarkFailed accepts only FAILED or CANCELLED")
	}
	const q = `UPDATE payments
	           SET status = ?, provider_status = ?, provider_payload = ?
	           WHERE public_id = ? AND status = 'PENDING'`
	_, err := r.db.ExecContext(ctx, q, status, nullIfEmpty(providerStatus), payload, publicID)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
