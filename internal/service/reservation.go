// Package service holds the reservation and settlement flows on top of
// small store interfaces, so the transactional semantics can be tested
// without a live database.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/slot"
)

// Validation errors surfaced before any transaction opens. Handlers
// translate them into client errors, distinct from ErrSlotUnavailable
// which means "refresh and pick another interval".
var (
	ErrInvalidInterval  = errors.New("start time must be before end time")
	ErrMissingReference = errors.New("facility and field references are required")
	ErrWrongFacility    = errors.New("identity does not belong to this facility")
)

// FieldStore is the field lookup surface the reservation flow needs.
type FieldStore interface {
	GetByID(ctx context.Context, id uint64) (*model.TurfField, error)
	GetByIDForProfile(ctx context.Context, fieldID, profileID uint64) (*model.TurfField, error)
}

// BookingStore is the booking surface the reservation flow needs.
// CreateBookingAndPayment must be atomic and must re-run the overlap
// check against live data inside its transaction; the implementation
// in the repository package does so with a locking read.
type BookingStore interface {
	CreateBookingAndPayment(ctx context.Context, b *model.Booking, p *model.Payment) error
	ListForFieldBetween(ctx context.Context, fieldID uint64, from, to time.Time) ([]model.Booking, error)
	ListByPayer(ctx context.Context, payer model.PayerRef) ([]model.Booking, error)
}

// ReservationService derives slot listings and turns slot picks into
// durable booking+payment pairs.
type ReservationService struct {
	fields   FieldStore
	bookings BookingStore
	now      func() time.Time
}

// NewReservationService wires a ReservationService. The clock is
// injectable for tests and defaults to time.Now.
func NewReservationService(fields FieldStore, bookings BookingStore) *ReservationService {
	return &ReservationService{fields: fields, bookings: bookings, now: time.Now}
}

// FieldSlots returns the ordered slot listing for a field on one
// calendar day with the BOOKED overlay applied. The listing is
// display state: it is recomputed on every call and is inherently racy
// against concurrent writers, which is fine because the authoritative
// availability check runs inside the reservation transaction.
func (s *ReservationService) FieldSlots(ctx context.Context, fieldID uint64, date time.Time) ([]slot.Slot, error) {
	f, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	slots, err := slot.Generate(date, f.OpenHour, f.CloseHour, f.SlotDuration, s.now().UTC())
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	booked, err := s.bookings.ListForFieldBetween(ctx, fieldID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	intervals := make([]slot.Interval, 0, len(booked))
	for _, b := range booked {
		intervals = append(intervals, slot.Interval{Start: b.StartTime, End: b.EndTime})
	}
	return slot.Annotate(slots, intervals), nil
}

// ReserveRequest is one reservation attempt: an exact half-open
// interval on one field, attributed to the caller's identity.
type ReserveRequest struct {
	TurfProfileID uint64
	TurfFieldID   uint64
	StartTime     time.Time
	EndTime       time.Time
	Identity      model.Identity
}

// Reserve executes the reservation write path. After validation it
// resolves the payer variant from the identity, fetches the
// authoritative price from the field and creates the booking (PENDING)
// and payment (PENDING) through the store's single atomic unit. Either
// both rows exist afterwards or neither does.
//
// Failure modes the caller can act on: ErrSlotUnavailable (pick a
// different interval after refreshing), repository.ErrFieldNotFound
// (the field does not exist under this facility), and the validation
// errors above (fix the request).
func (s *ReservationService) Reserve(ctx context.Context, req ReserveRequest) (*model.Booking, *model.Payment, error) {
	if req.TurfProfileID == 0 || req.TurfFieldID == 0 {
		return nil, nil, ErrMissingReference
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() || !req.StartTime.Before(req.EndTime) {
		return nil, nil, ErrInvalidInterval
	}
	payer, err := req.Identity.Payer()
	if err != nil {
		return nil, nil, err
	}
	// A tenant customer can only book inside their own facility; the
	// global roles may book anywhere.
	if req.Identity.Role == model.RoleTurfUser && req.Identity.TurfProfileID != req.TurfProfileID {
		return nil, nil, ErrWrongFacility
	}

	field, err := s.fields.GetByIDForProfile(ctx, req.TurfFieldID, req.TurfProfileID)
	if err != nil {
		return nil, nil, err
	}

	booking := &model.Booking{
		TurfProfileID: req.TurfProfileID,
		TurfFieldID:   req.TurfFieldID,
		Payer:         payer,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.EndTime.UTC(),
		PaymentAmount: field.PricePerSlot,
	}
	// Snapshot the payer's contact details onto the payment row so it
	// survives later changes to the payer's account.
	payment := &model.Payment{
		Amount:     field.PricePerSlot,
		PayerName:  req.Identity.Name,
		PayerEmail: req.Identity.Email,
	}
	if err := s.bookings.CreateBookingAndPayment(ctx, booking, payment); err != nil {
		return nil, nil, err
	}
	return booking, payment, nil
}

// MyBookings lists the caller's bookings resolved through their payer
// variant, newest first.
func (s *ReservationService) MyBookings(ctx context.Context, identity model.Identity) ([]model.Booking, error) {
	payer, err := identity.Payer()
	if err != nil {
		return nil, err
	}
	return s.bookings.ListByPayer(ctx, payer)
}
