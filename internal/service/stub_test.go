package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/turf-booking/internal/bkash"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/slot"
)

// In-memory stand-ins for the repositories. They reproduce the two
// behaviours the services lean on: the conflict re-check inside
// CreateBookingAndPayment and the conditional status='PENDING' update
// inside Settle and MarkFailed.

type fakeFieldStore struct {
	fields map[uint64]model.TurfField
}

func (f *fakeFieldStore) GetByID(_ context.Context, id uint64) (*model.TurfField, error) {
	fl, ok := f.fields[id]
	if !ok {
		return nil, repository.ErrFieldNotFound
	}
	return &fl, nil
}

func (f *fakeFieldStore) GetByIDForProfile(_ context.Context, fieldID, profileID uint64) (*model.TurfField, error) {
	fl, ok := f.fields[fieldID]
	if !ok || fl.TurfProfileID != profileID || !fl.IsActive {
		return nil, repository.ErrFieldNotFound
	}
	return &fl, nil
}

type fakeProfileStore struct {
	profiles map[uint64]model.TurfProfile
}

func (f *fakeProfileStore) GetByID(_ context.Context, id uint64) (*model.TurfProfile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

func (f *fakeProfileStore) GetBySlug(_ context.Context, slug string) (*model.TurfProfile, error) {
	for _, p := range f.profiles {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, repository.ErrProfileNotFound
}

type fakeBookingStore struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]*model.Booking

	failPaymentInsert bool
	payments          *fakePaymentStore // rows created together with bookings
}

func newFakeBookingStore() *fakeBookingStore {
	b := &fakeBookingStore{bookings: make(map[uint64]*model.Booking)}
	b.payments = &fakePaymentStore{byPublicID: make(map[string]*model.Payment), bookings: b}
	return b
}

func (f *fakeBookingStore) CreateBookingAndPayment(_ context.Context, b *model.Booking, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.bookings {
		if existing.TurfFieldID != b.TurfFieldID || existing.Status == model.BookingCancelled {
			continue
		}
		if slot.Overlaps(existing.StartTime, existing.EndTime, b.StartTime, b.EndTime) {
			return repository.ErrSlotUnavailable
		}
	}
	if f.failPaymentInsert {
		// Nothing was stored: the transaction rolled back whole.
		return errors.New("payment insert failed")
	}
	f.nextID++
	b.ID = f.nextID
	b.Status = model.BookingPending
	b.PaymentStatus = model.PaymentPending
	cp := *b
	f.bookings[b.ID] = &cp

	if p.PublicID == "" {
		p.PublicID = uuid.NewString()
	}
	f.nextID++
	p.ID = f.nextID
	p.BookingID = b.ID
	p.Status = model.PaymentPending
	p.Provider = model.ProviderBkash
	pc := *p
	f.payments.byPublicID[p.PublicID] = &pc
	return nil
}

func (f *fakeBookingStore) ListForFieldBetween(_ context.Context, fieldID uint64, from, to time.Time) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.bookings {
		if b.TurfFieldID != fieldID || b.Status == model.BookingCancelled {
			continue
		}
		if slot.Overlaps(b.StartTime, b.EndTime, from, to) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeBookingStore) ListByPayer(_ context.Context, payer model.PayerRef) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.bookings {
		if b.Payer == payer {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

type fakePaymentStore struct {
	mu         sync.Mutex
	byPublicID map[string]*model.Payment
	bookings   *fakeBookingStore
}

func (f *fakePaymentStore) GetByPublicID(_ context.Context, publicID string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byPublicID[publicID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentStore) AttachProviderSession(_ context.Context, publicID, providerPaymentID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byPublicID[publicID]
	if !ok || p.Status != model.PaymentPending {
		return repository.ErrPaymentNotFound
	}
	p.ProviderPaymentID = &providerPaymentID
	p.ProviderPayload = payload
	return nil
}

func (f *fakePaymentStore) Settle(_ context.Context, s repository.Settlement) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byPublicID[s.PaymentPublicID]
	if !ok || p.Status != model.PaymentPending {
		return false, nil
	}
	p.Status = model.PaymentPaid
	p.TrxID = &s.TrxID
	p.ProviderPaymentID = &s.ProviderPaymentID
	p.ProviderStatus = &s.ProviderStatus
	p.AmountPaid = &s.AmountPaid
	p.ProviderPayload = s.Payload
	paidAt := s.PaidAt
	p.PaidAt = &paidAt

	f.bookings.mu.Lock()
	if b, ok := f.bookings.bookings[s.BookingID]; ok {
		b.Status = model.BookingConfirmed
		b.PaymentStatus = model.PaymentPaid
	}
	f.bookings.mu.Unlock()
	return true, nil
}

func (f *fakePaymentStore) MarkFailed(_ context.Context, publicID string, status model.PaymentStatus, providerStatus string, payload []byte) error {
	if status != model.PaymentFailed && status != model.PaymentCancelled {
		return errors.New("MarkFailed accepts only FAILED or CANCELLED")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byPublicID[publicID]
	if !ok || p.Status != model.PaymentPending {
		return nil
	}
	p.Status = status
	if providerStatus != "" {
		ps := providerStatus
		p.ProviderStatus = &ps
	}
	p.ProviderPayload = payload
	return nil
}

type fakeGateway struct {
	mu          sync.Mutex
	createResp  *bkash.CreateSessionResponse
	createErr   error
	lastCreate  bkash.CreateSessionRequest
	execResp    *bkash.ExecuteSessionResponse
	execErr     error
	execCalls   int
	createCalls int
}

func (g *fakeGateway) CreateSession(_ context.Context, in bkash.CreateSessionRequest) (*bkash.CreateSessionResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	g.lastCreate = in
	return g.createResp, g.createErr
}

func (g *fakeGateway) ExecuteSession(_ context.Context, _ string) (*bkash.ExecuteSessionResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.execCalls++
	return g.execResp, g.execErr
}
