package model

import "time"

// PaymentStatus enumerates the lifecycle states of a payment.
type PaymentStatus string

// Payment states.  Transitions are monotonic: once a payment leaves
// PENDING for any of the terminal states it never changes again.
const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// ProviderBkash is the only payment provider currently integrated.
const ProviderBkash = "BKASH"

// Payment is the financial record linked 1:1 with a booking.  PublicID
// is a UUID used as the correlation token embedded in provider callback
// URLs, so the numeric primary key never leaves the service.  Payer
// name and email are snapshots captured at booking time; they survive
// later changes to the payer's account.  Provider correlation fields
// are populated during session creation and settlement.
//
// Fields:
//  ID                – primary key identifier.
//  PublicID          – UUID correlation token for callback URLs.
//  BookingID         – the booking this payment settles (unique).
//  Amount            – amount due, minor currency units.
//  Status            – PENDING, PAID, FAILED or CANCELLED.
//  PayerName         – payer display name at booking time.
//  PayerEmail        – payer email at booking time.
//  Provider          – provider code, currently always BKASH.
//  ProviderPaymentID – provider's payment handle (nil until created).
//  TrxID             – provider transaction ID (nil until settled).
//  ProviderStatus    – provider's transaction status string.
//  ProviderPayload   – raw provider response retained for audit.
//  AmountPaid        – settled amount parsed from the provider (nil until settled).
//  PaidAt            – settlement instant (nil until settled).
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Payment struct {
	ID                uint64        `json:"id"`                            // payments.id
	PublicID          string        `json:"public_id"`                     // payments.public_id
	BookingID         uint64        `json:"booking_id"`                    // payments.booking_id
	Amount            int64         `json:"amount"`                        // payments.amount
	Status            PaymentStatus `json:"status"`                        // payments.status
	PayerName         string        `json:"payer_name"`                    // payments.payer_name
	PayerEmail        string        `json:"payer_email"`                   // payments.payer_email
	Provider          string        `json:"provider"`                      // payments.provider
	ProviderPaymentID *string       `json:"provider_payment_id,omitempty"` // payments.provider_payment_id (nullable)
	TrxID             *string       `json:"trx_id,omitempty"`              // payments.trx_id (nullable)
	ProviderStatus    *string       `json:"provider_status,omitempty"`     // payments.provider_status (nullable)
	ProviderPayload   []byte        `json:"-"`                             // payments.provider_payload (nullable)
	AmountPaid        *int64        `json:"amount_paid,omitempty"`         // payments.amount_paid (nullable)
	PaidAt            *time.Time    `json:"paid_at,omitempty"`             // payments.paid_at (nullable)
	CreatedAt         time.Time     `json:"created_at"`                    // payments.created_at
	UpdatedAt         time.Time     `json:"updated_at"`                    // payments.updated_at
}

// Terminal reports whether the payment has reached a state that must
// never change again.
func (p *Payment) Terminal() bool {
	return p.Status != PaymentPending
}
