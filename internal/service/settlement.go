package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/queue"
	"github.com/iliyamo/turf-booking/internal/repository"
)

// CallbackQuery is the parsed provider callback, resolved once at the
// top of settlement. Ref is the payment's public ID (the correlation
// token embedded at session creation); Status is the provider's
// success/failure/cancel hint, which is only a hint: money moves only
// on a verified execute response.
type CallbackQuery struct {
	Ref               string // payments.public_id
	TurfSlug          string // facility slug for redirect scoping
	ProviderPaymentID string // provider session handle
	Status            string // success | failure | cancel
}

// SettlementService reconciles provider callbacks into final payment
// and booking state. It never returns an error to the provider: every
// outcome maps to a browser redirect, and all internal failures are
// logged and answered with a cancel page so the payer is never left on
// a broken URL.
type SettlementService struct {
	payments PaymentStore
	bookings BookingReader
	profiles ProfileReader
	fields   FieldStore
	gateway  PaymentGateway

	frontendURL string
	publish     func(ctx context.Context, ev queue.BookingConfirmedEvent) error
	now         func() time.Time
}

// NewSettlementService wires a SettlementService. Events go to the
// booking.confirmed queue; the publisher is injectable for tests.
func NewSettlementService(payments PaymentStore, bookings BookingReader, profiles ProfileReader, fields FieldStore, gateway PaymentGateway, frontendURL string) *SettlementService {
	return &SettlementService{
		payments:    payments,
		bookings:    bookings,
		profiles:    profiles,
		fields:      fields,
		gateway:     gateway,
		frontendURL: frontendURL,
		publish:     queue.PublishBookingConfirmed,
		now:         time.Now,
	}
}

func (s *SettlementService) genericCancelURL() string {
	return s.frontendURL + "/payment/cancel"
}

func (s *SettlementService) cancelURL(slug string) string {
	if slug == "" {
		return s.genericCancelURL()
	}
	return fmt.Sprintf("%s/turf/%s/payment/cancel", s.frontendURL, slug)
}

func (s *SettlementService) successURL(slug string, bookingID uint64) string {
	if slug == "" {
		return fmt.Sprintf("%s/payment/success?booking=%d", s.frontendURL, bookingID)
	}
	return fmt.Sprintf("%s/turf/%s/payment/success?booking=%d", s.frontendURL, slug, bookingID)
}

// Settle processes one provider callback and returns the URL the
// payer's browser is redirected to. The flow:
//
//   - no correlation token: nothing can be resolved, no row is touched,
//     generic cancel page.
//   - payment already terminal: replay. No mutation; a PAID payment
//     still answers with the success page so the payer's second
//     arrival looks identical to the first.
//   - provider says failure/cancel: the payment moves to a terminal
//     failure state, the booking is left alone.
//   - otherwise the session is executed against the provider and only
//     a verified success settles: payment PAID and booking CONFIRMED
//     in one atomic store operation, conditional on the payment still
//     being PENDING. A lost race to a concurrent callback is not an
//     error, just a replay.
func (s *SettlementService) Settle(ctx context.Context, cb CallbackQuery) string {
	if cb.Ref == "" {
		return s.genericCancelURL()
	}
	pay, err := s.payments.GetByPublicID(ctx, cb.Ref)
	if err != nil {
		log.Printf("settlement: unknown payment ref %q: %v", cb.Ref, err)
		return s.genericCancelURL()
	}
	slug := s.resolveSlug(ctx, pay.BookingID, cb.TurfSlug)

	if pay.Terminal() {
		if pay.Status == model.PaymentPaid {
			return s.successURL(slug, pay.BookingID)
		}
		return s.cancelURL(slug)
	}

	switch cb.Status {
	case "cancel":
		if err := s.payments.MarkFailed(ctx, pay.PublicID, model.PaymentCancelled, cb.Status, nil); err != nil {
			log.Printf("settlement: mark cancelled %s: %v", pay.PublicID, err)
		}
		return s.cancelURL(slug)
	case "failure":
		if err := s.payments.MarkFailed(ctx, pay.PublicID, model.PaymentFailed, cb.Status, nil); err != nil {
			log.Printf("settlement: mark failed %s: %v", pay.PublicID, err)
		}
		return s.cancelURL(slug)
	}

	if cb.ProviderPaymentID == "" {
		log.Printf("settlement: callback for %s without provider payment ID", pay.PublicID)
		return s.cancelURL(slug)
	}

	exec, err := s.gateway.ExecuteSession(ctx, cb.ProviderPaymentID)
	if err != nil {
		// Transport failure: the payment stays PENDING and the provider's
		// retry or a later sweep can still settle it.
		log.Printf("settlement: execute %s: %v", pay.PublicID, err)
		return s.cancelURL(slug)
	}
	if !exec.Success() {
		if err := s.payments.MarkFailed(ctx, pay.PublicID, model.PaymentFailed, exec.TransactionStatus, exec.Raw); err != nil {
			log.Printf("settlement: mark failed %s: %v", pay.PublicID, err)
		}
		return s.cancelURL(slug)
	}
	if exec.MerchantInvoiceNumber != pay.PublicID {
		// Correlation mismatch: the execute response belongs to a
		// different payment. Touch nothing.
		log.Printf("settlement: invoice mismatch for %s: got %q", pay.PublicID, exec.MerchantInvoiceNumber)
		return s.cancelURL(slug)
	}

	amount := pay.Amount
	if settled, ok := exec.SettledAmount(); ok {
		amount = settled
	}
	paidAt := s.now().UTC()
	applied, err := s.payments.Settle(ctx, repository.Settlement{
		PaymentPublicID:   pay.PublicID,
		BookingID:         pay.BookingID,
		TrxID:             exec.TrxID,
		ProviderPaymentID: cb.ProviderPaymentID,
		ProviderStatus:    exec.TransactionStatus,
		AmountPaid:        amount,
		Payload:           exec.Raw,
		PaidAt:            paidAt,
	})
	if err != nil {
		log.Printf("settlement: settle %s: %v", pay.PublicID, err)
		return s.cancelURL(slug)
	}
	if applied {
		s.publishConfirmed(ctx, pay, exec.TrxID, amount, paidAt)
	}
	return s.successURL(slug, pay.BookingID)
}

// resolveSlug prefers the facility slug from the booking's own profile
// row and falls back to the slug echoed through the callback URL.
// Redirect scoping is display-only, so a failed lookup never blocks
// settlement.
func (s *SettlementService) resolveSlug(ctx context.Context, bookingID uint64, fromCallback string) string {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fromCallback
	}
	profile, err := s.profiles.GetByID(ctx, booking.TurfProfileID)
	if err != nil {
		return fromCallback
	}
	return profile.Slug
}

// publishConfirmed emits the booking.confirmed event. Publishing is
// best-effort: a broker outage must not fail a settled payment.
func (s *SettlementService) publishConfirmed(ctx context.Context, pay *model.Payment, trxID string, amount int64, paidAt time.Time) {
	booking, err := s.bookings.GetByID(ctx, pay.BookingID)
	if err != nil {
		log.Printf("settlement: event lookup booking %d: %v", pay.BookingID, err)
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:       booking.ID,
		TurfProfileID:   booking.TurfProfileID,
		TurfFieldID:     booking.TurfFieldID,
		PaymentPublicID: pay.PublicID,
		TrxID:           trxID,
		AmountMinor:     amount,
		StartsAt:        booking.StartTime.UTC().Format(time.RFC3339),
		EndsAt:          booking.EndTime.UTC().Format(time.RFC3339),
		ConfirmedAt:     paidAt.Format(time.RFC3339),
	}
	if profile, err := s.profiles.GetByID(ctx, booking.TurfProfileID); err == nil {
		ev.TurfName = profile.Name
	}
	if field, err := s.fields.GetByID(ctx, booking.TurfFieldID); err == nil {
		ev.FieldName = field.Name
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("settlement: publish booking.confirmed %d: %v", booking.ID, err)
	}
}
