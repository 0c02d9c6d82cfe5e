package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/turf-booking/internal/bkash"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/queue"
	"github.com/iliyamo/turf-booking/internal/repository"
)

type settlementFixture struct {
	svc      *SettlementService
	gateway  *fakeGateway
	bookings *fakeBookingStore
	payments *fakePaymentStore
	payment  *model.Payment
	booking  *model.Booking
	events   *int32
}

// newSettlementFixture seeds one PENDING booking+payment pair with an
// attached provider session, ready for a callback.
func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	fields := &fakeFieldStore{fields: map[uint64]model.TurfField{
		7: {ID: 7, TurfProfileID: 3, Name: "Field A", OpenHour: "08:00", CloseHour: "23:00",
			SlotDuration: 90, PricePerSlot: 150000, IsActive: true},
	}}
	profiles := &fakeProfileStore{profiles: map[uint64]model.TurfProfile{
		3: {ID: 3, OwnerID: 1, Slug: "green-arena", Name: "Green Arena"},
	}}
	bookings := newFakeBookingStore()
	gateway := &fakeGateway{}

	resSvc := NewReservationService(fields, bookings)
	b, p, err := resSvc.Reserve(context.Background(), ReserveRequest{
		TurfProfileID: 3, TurfFieldID: 7,
		StartTime: day(18, 0), EndTime: day(19, 30),
		Identity: customer(),
	})
	require.NoError(t, err)
	require.NoError(t, bookings.payments.AttachProviderSession(context.Background(), p.PublicID, "TR0011abc", nil))

	svc := NewSettlementService(bookings.payments, bookings, profiles, fields, gateway, "https://front.example")
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 19, 45, 0, 0, time.UTC) }

	var events int32
	svc.publish = func(_ context.Context, _ queue.BookingConfirmedEvent) error {
		atomic.AddInt32(&events, 1)
		return nil
	}
	return &settlementFixture{
		svc: svc, gateway: gateway, bookings: bookings, payments: bookings.payments,
		payment: p, booking: b, events: &events,
	}
}

func successExec(invoice string) *bkash.ExecuteSessionResponse {
	return &bkash.ExecuteSessionResponse{
		PaymentID:             "TR0011abc",
		TrxID:                 "TRX999",
		TransactionStatus:     "Completed",
		Amount:                "1500.00",
		Currency:              "BDT",
		MerchantInvoiceNumber: invoice,
		PayerReference:        "1",
		StatusCode:            bkash.StatusSuccess,
		Raw:                   []byte(`{"statusCode":"0000"}`),
	}
}

func TestSettleSuccess(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.execResp = successExec(f.payment.PublicID)

	redirect := f.svc.Settle(context.Background(), CallbackQuery{
		Ref: f.payment.PublicID, TurfSlug: "green-arena",
		ProviderPaymentID: "TR0011abc", Status: "success",
	})
	assert.Equal(t, "https://front.example/turf/green-arena/payment/success?booking=1", redirect)

	pay, err := f.payments.GetByPublicID(context.Background(), f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, pay.Status)
	require.NotNil(t, pay.TrxID)
	assert.Equal(t, "TRX999", *pay.TrxID)
	require.NotNil(t, pay.AmountPaid)
	assert.Equal(t, int64(150000), *pay.AmountPaid)
	require.NotNil(t, pay.PaidAt)

	booking, err := f.bookings.GetByID(context.Background(), f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, booking.Status)
	assert.Equal(t, model.PaymentPaid, booking.PaymentStatus)

	assert.Equal(t, int32(1), atomic.LoadInt32(f.events))
}

func TestSettleIdempotentOnReplay(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.execResp = successExec(f.payment.PublicID)
	ctx := context.Background()
	cb := CallbackQuery{Ref: f.payment.PublicID, TurfSlug: "green-arena", ProviderPaymentID: "TR0011abc", Status: "success"}

	first := f.svc.Settle(ctx, cb)
	paidOnce, err := f.payments.GetByPublicID(ctx, f.payment.PublicID)
	require.NoError(t, err)

	// Replay with a different provider transaction.
	f.gateway.execResp = successExec(f.payment.PublicID)
	f.gateway.execResp.TrxID = "TRX-DIFFERENT"
	second := f.svc.Settle(ctx, cb)

	// Same success page, zero additional mutation.
	assert.Equal(t, first, second)
	replayed, err := f.payments.GetByPublicID(ctx, f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "TRX999", *replayed.TrxID)
	assert.Equal(t, *paidOnce.PaidAt, *replayed.PaidAt)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.events))

	// The terminal short-circuit never re-executes the session.
	assert.Equal(t, 1, f.gateway.execCalls)
}

func TestSettleMissingRef(t *testing.T) {
	f := newSettlementFixture(t)

	redirect := f.svc.Settle(context.Background(), CallbackQuery{TurfSlug: "green-arena", ProviderPaymentID: "TR0011abc"})
	assert.Equal(t, "https://front.example/payment/cancel", redirect)

	// Nothing resolved, nothing touched.
	pay, err := f.payments.GetByPublicID(context.Background(), f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, pay.Status)
	assert.Equal(t, 0, f.gateway.execCalls)
}

func TestSettleUnknownRef(t *testing.T) {
	f := newSettlementFixture(t)
	redirect := f.svc.Settle(context.Background(), CallbackQuery{Ref: "no-such-payment", Status: "success"})
	assert.Equal(t, "https://front.example/payment/cancel", redirect)
	assert.Equal(t, 0, f.gateway.execCalls)
}

func TestSettlePayerCancelled(t *testing.T) {
	f := newSettlementFixture(t)

	redirect := f.svc.Settle(context.Background(), CallbackQuery{
		Ref: f.payment.PublicID, TurfSlug: "green-arena",
		ProviderPaymentID: "TR0011abc", Status: "cancel",
	})
	assert.Equal(t, "https://front.example/turf/green-arena/payment/cancel", redirect)

	pay, err := f.payments.GetByPublicID(context.Background(), f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCancelled, pay.Status)

	// The booking row is not touched by a failed payment.
	booking, err := f.bookings.GetByID(context.Background(), f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, booking.Status)
	assert.Equal(t, 0, f.gateway.execCalls)
}

func TestSettleExecuteRejected(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.execResp = &bkash.ExecuteSessionResponse{
		StatusCode: "2062", StatusMessage: "The payment has already been completed",
		TransactionStatus: "Failed",
		Raw:               []byte(`{"statusCode":"2062"}`),
	}

	redirect := f.svc.Settle(context.Background(), CallbackQuery{
		Ref: f.payment.PublicID, TurfSlug: "green-arena",
		ProviderPaymentID: "TR0011abc", Status: "success",
	})
	assert.Equal(t, "https://front.example/turf/green-arena/payment/cancel", redirect)

	pay, err := f.payments.GetByPublicID(context.Background(), f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, pay.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(f.events))
}

func TestSettleTransportFailureKeepsPending(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.execErr = assert.AnError

	redirect := f.svc.Settle(context.Background(), CallbackQuery{
		Ref: f.payment.PublicID, TurfSlug: "green-arena",
		ProviderPaymentID: "TR0011abc", Status: "success",
	})
	assert.Equal(t, "https://front.example/turf/green-arena/payment/cancel", redirect)

	// A provider retry can still settle this payment later.
	pay, err := f.payments.GetByPublicID(context.Background(), f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, pay.Status)
}

func TestSettleInvoiceMismatch(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.execResp = successExec("some-other-payment")

	redirect := f.svc.Settle(context.Background(), CallbackQuery{
		Ref: f.payment.PublicID, TurfSlug: "green-arena",
		ProviderPaymentID: "TR0011abc", Status: "success",
	})
	assert.Equal(t, "https://front.example/turf/green-arena/payment/cancel", redirect)

	pay, err := f.payments.GetByPublicID(context.Background(), f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, pay.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(f.events))
}

func TestMakeSession(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.createResp = &bkash.CreateSessionResponse{
		PaymentID: "TR0022xyz", BkashURL: "https://pay.example/TR0022xyz",
		StatusCode: bkash.StatusSuccess, Raw: []byte(`{"statusCode":"0000"}`),
	}
	profiles := &fakeProfileStore{profiles: map[uint64]model.TurfProfile{
		3: {ID: 3, Slug: "green-arena", Name: "Green Arena"},
	}}
	svc := NewPaymentService(f.payments, f.bookings, profiles, f.gateway, "https://api.example")

	redirect, err := svc.MakeSession(context.Background(), f.payment.PublicID, customer())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/TR0022xyz", redirect)

	// The callback carries the correlation token and facility slug.
	assert.Contains(t, f.gateway.lastCreate.CallbackURL, "ref="+f.payment.PublicID)
	assert.Contains(t, f.gateway.lastCreate.CallbackURL, "turf=green-arena")
	assert.Equal(t, f.payment.PublicID, f.gateway.lastCreate.MerchantInvoiceNumber)
	assert.Equal(t, "1", f.gateway.lastCreate.PayerReference)
	assert.Equal(t, int64(150000), f.gateway.lastCreate.Amount)

	// Session creation is not settlement: still PENDING, handle stored.
	pay, err := f.payments.GetByPublicID(context.Background(), f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, pay.Status)
	require.NotNil(t, pay.ProviderPaymentID)
	assert.Equal(t, "TR0022xyz", *pay.ProviderPaymentID)
}

func TestMakeSessionProviderRejected(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.createResp = &bkash.CreateSessionResponse{StatusCode: "2023", StatusMessage: "Insufficient Balance"}
	profiles := &fakeProfileStore{profiles: map[uint64]model.TurfProfile{3: {ID: 3, Slug: "green-arena"}}}
	svc := NewPaymentService(f.payments, f.bookings, profiles, f.gateway, "https://api.example")

	_, err := svc.MakeSession(context.Background(), f.payment.PublicID, customer())
	assert.ErrorIs(t, err, ErrProviderRejected)

	// Still PENDING so the payer can retry.
	pay, err := f.payments.GetByPublicID(context.Background(), f.payment.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, pay.Status)
}

func TestMakeSessionWrongPayer(t *testing.T) {
	f := newSettlementFixture(t)
	profiles := &fakeProfileStore{profiles: map[uint64]model.TurfProfile{3: {ID: 3, Slug: "green-arena"}}}
	svc := NewPaymentService(f.payments, f.bookings, profiles, f.gateway, "https://api.example")

	stranger := model.Identity{Role: model.RoleUser, UserID: 999, Name: "Stranger"}
	_, err := svc.MakeSession(context.Background(), f.payment.PublicID, stranger)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.Equal(t, 0, f.gateway.createCalls)
}

func TestMakeSessionTerminalPayment(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.execResp = successExec(f.payment.PublicID)
	_ = f.svc.Settle(context.Background(), CallbackQuery{
		Ref: f.payment.PublicID, ProviderPaymentID: "TR0011abc", Status: "success",
	})

	profiles := &fakeProfileStore{profiles: map[uint64]model.TurfProfile{3: {ID: 3, Slug: "green-arena"}}}
	svc := NewPaymentService(f.payments, f.bookings, profiles, f.gateway, "https://api.example")
	_, err := svc.MakeSession(context.Background(), f.payment.PublicID, customer())
	assert.ErrorIs(t, err, ErrPaymentNotPending)
}
