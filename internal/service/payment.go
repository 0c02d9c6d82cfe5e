package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/iliyamo/turf-booking/internal/bkash"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/repository"
)

// PaymentGateway is the two-operation provider contract. Session
// creation yields a redirect URL and never settles anything; execution
// finalizes a session and is only ever driven by the provider's
// callback.
type PaymentGateway interface {
	CreateSession(ctx context.Context, in bkash.CreateSessionRequest) (*bkash.CreateSessionResponse, error)
	ExecuteSession(ctx context.Context, providerPaymentID string) (*bkash.ExecuteSessionResponse, error)
}

// PaymentStore is the payment persistence surface the payment flows
// need. Settle must be atomic and conditional on the payment still
// being PENDING; the repository implements it that way.
type PaymentStore interface {
	GetByPublicID(ctx context.Context, publicID string) (*model.Payment, error)
	AttachProviderSession(ctx context.Context, publicID, providerPaymentID string, payload []byte) error
	Settle(ctx context.Context, s repository.Settlement) (bool, error)
	MarkFailed(ctx context.Context, publicID string, status model.PaymentStatus, providerStatus string, payload []byte) error
}

// BookingReader resolves bookings for payment flows.
type BookingReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
}

// ProfileReader resolves facilities for redirect scoping.
type ProfileReader interface {
	GetByID(ctx context.Context, id uint64) (*model.TurfProfile, error)
	GetBySlug(ctx context.Context, slug string) (*model.TurfProfile, error)
}

var (
	// ErrPaymentNotPending is returned when a session is requested for a
	// payment that already reached a terminal state.
	ErrPaymentNotPending = errors.New("payment is not pending")
	// ErrProviderRejected is returned when the provider refuses to open a
	// session. The payment stays PENDING so the payer can retry.
	ErrProviderRejected = errors.New("payment provider rejected the session")
)

// PaymentService opens provider checkout sessions for pending payments.
type PaymentService struct {
	payments PaymentStore
	bookings BookingReader
	profiles ProfileReader
	gateway  PaymentGateway
	baseURL  string // public base URL of this API, for the provider callback
}

// NewPaymentService wires a PaymentService.
func NewPaymentService(payments PaymentStore, bookings BookingReader, profiles ProfileReader, gateway PaymentGateway, baseURL string) *PaymentService {
	return &PaymentService{payments: payments, bookings: bookings, profiles: profiles, gateway: gateway, baseURL: baseURL}
}

// callbackURL builds the provider callback carrying the payment's
// public ID as the correlation token plus the facility slug, so the
// callback can route redirects without a session.
func (s *PaymentService) callbackURL(publicID, slug string) string {
	v := url.Values{}
	v.Set("ref", publicID)
	v.Set("turf", slug)
	return fmt.Sprintf("%s/v1/payments/bkash/callback?%s", s.baseURL, v.Encode())
}

// MakeSession opens a checkout session for a pending payment and
// returns the provider URL to redirect the payer to. Only the payer
// who owns the underlying booking may open a session for it.
//
// The payment stays PENDING throughout: a created session is an offer
// to pay, not a settlement, and the status only moves when the
// provider's callback is reconciled.
func (s *PaymentService) MakeSession(ctx context.Context, paymentPublicID string, identity model.Identity) (string, error) {
	payer, err := identity.Payer()
	if err != nil {
		return "", err
	}
	pay, err := s.payments.GetByPublicID(ctx, paymentPublicID)
	if err != nil {
		return "", err
	}
	if pay.Terminal() {
		return "", ErrPaymentNotPending
	}
	booking, err := s.bookings.GetByID(ctx, pay.BookingID)
	if err != nil {
		return "", err
	}
	if booking.Payer != payer {
		return "", repository.ErrForbidden
	}
	profile, err := s.profiles.GetByID(ctx, booking.TurfProfileID)
	if err != nil {
		return "", err
	}

	resp, err := s.gateway.CreateSession(ctx, bkash.CreateSessionRequest{
		Amount:                pay.Amount,
		CallbackURL:           s.callbackURL(pay.PublicID, profile.Slug),
		MerchantInvoiceNumber: pay.PublicID,
		PayerReference:        strconv.FormatUint(booking.ID, 10),
	})
	if err != nil {
		return "", err
	}
	if !resp.Success() {
		return "", fmt.Errorf("%w: status %s %s", ErrProviderRejected, resp.StatusCode, resp.StatusMessage)
	}
	if err := s.payments.AttachProviderSession(ctx, pay.PublicID, resp.PaymentID, resp.Raw); err != nil {
		return "", err
	}
	return resp.BkashURL, nil
}
