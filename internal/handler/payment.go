package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/middleware"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/service"
)

// PaymentHandler exposes checkout session creation and the provider's
// browser callback.
type PaymentHandler struct {
	Payments   *service.PaymentService
	Settlement *service.SettlementService
}

func NewPaymentHandler(p *service.PaymentService, s *service.SettlementService) *PaymentHandler {
	return &PaymentHandler{Payments: p, Settlement: s}
}

type makePaymentReq struct {
	PaymentID string `json:"payment_id"` // payments.public_id from the booking response
}

// MakePayment opens a provider checkout session for a pending payment
// and returns the URL to redirect the payer's browser to.
func (h *PaymentHandler) MakePayment(c echo.Context) error {
	id, ok := middleware.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req makePaymentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.PaymentID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_id required"})
	}

	// Creating a session calls out to the provider, so allow more than
	// the usual DB timeout.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	url, err := h.Payments.MakeSession(ctx, strings.TrimSpace(req.PaymentID), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound), errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, service.ErrPaymentNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment already settled"})
		case errors.Is(err, service.ErrProviderRejected):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider rejected the session"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment session failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"bkash_url": url})
}

// BkashCallback handles the provider's browser redirect after checkout.
// The route is unauthenticated: the payer arrives here from the
// provider's page, and the correlation token in the query identifies
// the payment.  Whatever happens inside settlement, the response is a
// 302 to a frontend page.
func (h *PaymentHandler) BkashCallback(c echo.Context) error {
	cb := service.CallbackQuery{
		Ref:               c.QueryParam("ref"),
		TurfSlug:          c.QueryParam("turf"),
		ProviderPaymentID: c.QueryParam("paymentID"),
		Status:            c.QueryParam("status"),
	}
	redirect := h.Settlement.Settle(c.Request().Context(), cb)
	return c.Redirect(http.StatusFound, redirect)
}
