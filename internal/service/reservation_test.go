package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/slot"
)

func reservationFixture() (*ReservationService, *fakeBookingStore) {
	fields := &fakeFieldStore{fields: map[uint64]model.TurfField{
		7: {ID: 7, TurfProfileID: 3, Name: "Field A", OpenHour: "08:00", CloseHour: "23:00",
			SlotDuration: 90, PricePerSlot: 150000, IsActive: true},
		8: {ID: 8, TurfProfileID: 3, Name: "Closed", OpenHour: "08:00", CloseHour: "23:00",
			SlotDuration: 90, PricePerSlot: 150000, IsActive: false},
	}}
	bookings := newFakeBookingStore()
	svc := NewReservationService(fields, bookings)
	svc.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return svc, bookings
}

func day(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func customer() model.Identity {
	return model.Identity{Role: model.RoleUser, UserID: 42, Name: "Rahim", Email: "rahim@example.com"}
}

func TestFieldSlotsOverlay(t *testing.T) {
	svc, bookings := reservationFixture()
	ctx := context.Background()

	_, _, err := svc.Reserve(ctx, ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(10, 0), EndTime: day(11, 30),
		Identity: customer(),
	})
	require.NoError(t, err)
	require.Len(t, bookings.bookings, 1)

	slots, err := svc.FieldSlots(ctx, 7, day(0, 0))
	require.NoError(t, err)
	require.Len(t, slots, 10) // 08:00..23:00 at 90 min

	byStart := map[string]slot.Status{}
	for _, s := range slots {
		byStart[s.StartLocal] = s.Status
	}
	// 10:00-11:30 booked; the 09:30-11:00 and 11:00-12:30 slots overlap it.
	assert.Equal(t, slot.StatusBooked, byStart["09:30"])
	assert.Equal(t, slot.StatusBooked, byStart["11:00"])
	assert.Equal(t, slot.StatusAvailable, byStart["12:30"])
	assert.Equal(t, slot.StatusAvailable, byStart["08:00"])
}

func TestReserveCreatesPendingPair(t *testing.T) {
	svc, bookings := reservationFixture()

	b, p, err := svc.Reserve(context.Background(), ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(18, 0), EndTime: day(19, 30),
		Identity: customer(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, model.PaymentPending, b.PaymentStatus)
	assert.Equal(t, int64(150000), b.PaymentAmount) // field price, not client input
	assert.Equal(t, model.PayerRef{Kind: model.PayerGlobalUser, ID: 42}, b.Payer)

	assert.Equal(t, model.PaymentPending, p.Status)
	assert.Equal(t, b.ID, p.BookingID)
	assert.Equal(t, int64(150000), p.Amount)
	assert.NotEmpty(t, p.PublicID)
	assert.Equal(t, model.ProviderBkash, p.Provider)
	assert.Equal(t, "Rahim", p.PayerName)

	stored, err := bookings.payments.GetByPublicID(context.Background(), p.PublicID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.BookingID)
}

func TestReserveRejectsOverlap(t *testing.T) {
	svc, _ := reservationFixture()
	ctx := context.Background()

	_, _, err := svc.Reserve(ctx, ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(18, 0), EndTime: day(19, 30),
		Identity: customer(),
	})
	require.NoError(t, err)

	// Straddles the booked interval.
	_, _, err = svc.Reserve(ctx, ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(18, 30), EndTime: day(20, 0),
		Identity: customer(),
	})
	assert.ErrorIs(t, err, repository.ErrSlotUnavailable)

	// Touching end-to-start is not a conflict.
	_, _, err = svc.Reserve(ctx, ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(19, 30), EndTime: day(21, 0),
		Identity: customer(),
	})
	assert.NoError(t, err)
}

func TestReserveAtomicity(t *testing.T) {
	svc, bookings := reservationFixture()
	bookings.failPaymentInsert = true

	_, _, err := svc.Reserve(context.Background(), ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(18, 0), EndTime: day(19, 30),
		Identity: customer(),
	})
	require.Error(t, err)
	// Neither half of the pair survived the failed transaction.
	assert.Empty(t, bookings.bookings)
	assert.Empty(t, bookings.payments.byPublicID)
}

func TestReserveValidation(t *testing.T) {
	svc, _ := reservationFixture()
	ctx := context.Background()

	_, _, err := svc.Reserve(ctx, ReserveRequest{TurfFieldID: 7, StartTime: day(18, 0), EndTime: day(19, 30), Identity: customer()})
	assert.ErrorIs(t, err, ErrMissingReference)

	_, _, err = svc.Reserve(ctx, ReserveRequest{TurfProfileID: 3, TurfFieldID: 7, StartTime: day(19, 30), EndTime: day(18, 0), Identity: customer()})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, _, err = svc.Reserve(ctx, ReserveRequest{TurfProfileID: 3, TurfFieldID: 7, StartTime: day(18, 0), EndTime: day(18, 0), Identity: customer()})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, _, err = svc.Reserve(ctx, ReserveRequest{TurfProfileID: 3, TurfFieldID: 7, StartTime: day(18, 0), EndTime: day(19, 30)})
	assert.ErrorIs(t, err, model.ErrNoPayer)

	// Inactive field is not bookable.
	_, _, err = svc.Reserve(ctx, ReserveRequest{TurfProfileID: 3, TurfFieldID: 8, StartTime: day(18, 0), EndTime: day(19, 30), Identity: customer()})
	assert.ErrorIs(t, err, repository.ErrFieldNotFound)
}

func TestReserveTenantCustomerScoping(t *testing.T) {
	svc, _ := reservationFixture()
	ctx := context.Background()
	tenant := model.Identity{Role: model.RoleTurfUser, TurfUserID: 9, TurfProfileID: 3, Name: "Karim"}

	b, _, err := svc.Reserve(ctx, ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(8, 0), EndTime: day(9, 30),
		Identity: tenant,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PayerRef{Kind: model.PayerTenantCustomer, ID: 9}, b.Payer)

	// Same customer against a foreign facility.
	tenant.TurfProfileID = 4
	_, _, err = svc.Reserve(ctx, ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(10, 0), EndTime: day(11, 30),
		Identity: tenant,
	})
	assert.ErrorIs(t, err, ErrWrongFacility)
}

func TestMyBookings(t *testing.T) {
	svc, _ := reservationFixture()
	ctx := context.Background()

	_, _, err := svc.Reserve(ctx, ReserveRequest{TurfProfileID: 3, TurfFieldID: 7, StartTime: day(8, 0), EndTime: day(9, 30), Identity: customer()})
	require.NoError(t, err)
	_, _, err = svc.Reserve(ctx, ReserveRequest{TurfProfileID: 3, TurfFieldID: 7, StartTime: day(10, 0), EndTime: day(11, 30), Identity: customer()})
	require.NoError(t, err)

	other := model.Identity{Role: model.RoleUser, UserID: 77, Name: "Other"}
	_, _, err = svc.Reserve(ctx, ReserveRequest{TurfProfileID: 3, TurfFieldID: 7, StartTime: day(12, 0), EndTime: day(13, 30), Identity: other})
	require.NoError(t, err)

	mine, err := svc.MyBookings(ctx, customer())
	require.NoError(t, err)
	require.Len(t, mine, 2)
	// Newest first.
	assert.True(t, mine[0].ID > mine[1].ID)

	_, err = svc.MyBookings(ctx, model.Identity{})
	assert.ErrorIs(t, err, model.ErrNoPayer)
}

func TestReserveUnknownFieldError(t *testing.T) {
	svc, _ := reservationFixture()
	_, _, err := svc.Reserve(context.Background(), ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 99,
		StartTime: day(18, 0), EndTime: day(19, 30),
		Identity: customer(),
	})
	assert.True(t, errors.Is(err, repository.ErrFieldNotFound))
}
