// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when settlement confirms a booking.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID       uint64 `json:"booking_id"`
	TurfProfileID   uint64 `json:"turf_profile_id"`
	TurfName        string `json:"turf_name"`
	TurfFieldID     uint64 `json:"turf_field_id"`
	FieldName       string `json:"field_name"`
	PaymentPublicID string `json:"payment_public_id"`
	TrxID           string `json:"trx_id"`
	AmountMinor     int64  `json:"amount_minor"`
	StartsAt        string `json:"starts_at"`
	EndsAt          string `json:"ends_at"`
	ConfirmedAt     string `json:"confirmed_at"`
}
