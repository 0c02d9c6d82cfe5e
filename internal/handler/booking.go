package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/middleware"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/service"
)

// BookingHandler exposes the public browse endpoints (facility page,
// slot listing) and the authenticated reservation endpoints.
type BookingHandler struct {
	Reservations *service.ReservationService
	Profiles     *repository.TurfProfileRepo
	Fields       *repository.TurfFieldRepo
}

func NewBookingHandler(r *service.ReservationService, p *repository.TurfProfileRepo, f *repository.TurfFieldRepo) *BookingHandler {
	return &BookingHandler{Reservations: r, Profiles: p, Fields: f}
}

type createBookingReq struct {
	TurfProfileID uint64    `json:"turf_profile_id"`
	TurfFieldID   uint64    `json:"turf_field_id"`
	StartTime     time.Time `json:"start_time"` // RFC 3339
	EndTime       time.Time `json:"end_time"`   // RFC 3339
}

type bookingResp struct {
	Booking *model.Booking `json:"booking"`
	Payment paymentPart    `json:"payment"`
}

// paymentPart is the client-facing slice of a payment row; internal
// provider bookkeeping stays server-side.
type paymentPart struct {
	PublicID string              `json:"public_id"`
	Amount   int64               `json:"amount"`
	Status   model.PaymentStatus `json:"status"`
}

// GetTurf returns a facility's public page: profile plus its fields.
func (h *BookingHandler) GetTurf(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Profiles.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == repository.ErrProfileNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "turf not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load turf failed"})
	}
	fields, err := h.Fields.ListByProfile(ctx, profile.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load fields failed"})
	}
	// Hide deactivated fields from guests.
	active := make([]model.TurfField, 0, len(fields))
	for _, f := range fields {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"turf": profile, "fields": active})
}

// FieldSlots returns the derived slot listing of a field for one day.
// The date is passed as ?date=YYYY-MM-DD; responses are cacheable for a
// short TTL because the listing is display state only.
func (h *BookingHandler) FieldSlots(c echo.Context) error {
	fieldID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field id"})
	}
	date, err := time.ParseInLocation("2006-01-02", c.QueryParam("date"), time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	slots, err := h.Reservations.FieldSlots(ctx, fieldID, date)
	if err != nil {
		if err == repository.ErrFieldNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load slots failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": c.QueryParam("date"), "slots": slots})
}

// CreateBooking reserves an interval for the authenticated caller. On
// success the booking and its payment are created atomically, both
// PENDING, and the payment's public ID is returned for the checkout
// step.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	id, ok := middleware.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, payment, err := h.Reservations.Reserve(ctx, service.ReserveRequest{
		TurfProfileID: req.TurfProfileID,
		TurfFieldID:   req.TurfFieldID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Identity:      id,
	})
	if err != nil {
		return reserveError(c, err)
	}
	return c.JSON(http.StatusCreated, bookingResp{
		Booking: booking,
		Payment: paymentPart{PublicID: payment.PublicID, Amount: payment.Amount, Status: payment.Status},
	})
}

// reserveError maps reservation failures onto HTTP responses.  The
// conflict case is the interesting one: 409 tells the client to refresh
// the slot listing and pick again.
func reserveError(c echo.Context, err error) error {
	switch err {
	case repository.ErrSlotUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable"})
	case repository.ErrFieldNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
	case service.ErrInvalidInterval, service.ErrMissingReference:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case service.ErrWrongFacility:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case model.ErrNoPayer:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
}

// MyBookings lists the caller's bookings, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	id, ok := middleware.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Reservations.MyBookings(ctx, id)
	if err != nil {
		if err == model.ErrNoPayer {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
