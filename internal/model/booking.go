package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.
type BookingStatus string

// Booking states.  A booking starts PENDING, is promoted to CONFIRMED
// only by payment settlement, and may be CANCELLED which returns its
// interval to the available pool.
const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking records the reservation of an exact half-open time interval
// [StartTime, EndTime) on one field.  The facility reference is
// denormalized so tenant-scoped queries need no join.  The payer is a
// tagged reference so exactly one of the two underlying columns is
// ever set (see PayerRef).
//
// Invariant: for a given field no two bookings with status PENDING or
// CONFIRMED may have overlapping intervals.  The reservation
// transaction enforces this inside the database transaction; nothing
// else writes bookings.
//
// Fields:
//  ID            – primary key identifier.
//  TurfProfileID – facility the booked field belongs to.
//  TurfFieldID   – field being booked.
//  Payer         – tagged payer reference (global user or tenant customer).
//  StartTime     – interval start, UTC instant (inclusive).
//  EndTime       – interval end, UTC instant (exclusive).
//  Status        – PENDING, CONFIRMED or CANCELLED.
//  PaymentStatus – mirror of the linked payment's status for listing.
//  PaymentAmount – price charged, in minor currency units.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64        `json:"id"`              // bookings.id
	TurfProfileID uint64        `json:"turf_profile_id"` // bookings.turf_profile_id
	TurfFieldID   uint64        `json:"turf_field_id"`   // bookings.turf_field_id
	Payer         PayerRef      `json:"payer"`           // bookings.user_id XOR bookings.turf_user_id
	StartTime     time.Time     `json:"start_time"`      // bookings.start_time
	EndTime       time.Time     `json:"end_time"`        // bookings.end_time
	Status        BookingStatus `json:"status"`          // bookings.status
	PaymentStatus PaymentStatus `json:"payment_status"`  // bookings.payment_status
	PaymentAmount int64         `json:"payment_amount"`  // bookings.payment_amount
	CreatedAt     time.Time     `json:"created_at"`      // bookings.created_at
	UpdatedAt     time.Time     `json:"updated_at"`      // bookings.updated_at
}
