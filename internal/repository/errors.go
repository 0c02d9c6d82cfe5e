// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios with errors.Is instead of string matching. The reservation
// path in particular must keep "pick another slot" (ErrSlotUnavailable)
// separate from "this field does not exist" (ErrFieldNotFound) so the
// caller knows whether retrying the same request can ever succeed.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrSlotUnavailable is returned by the reservation transaction when a
// conflicting PENDING or CONFIRMED booking already occupies part of
// the requested interval. The caller must refresh the slot list and
// retry with a different interval; retrying the same one cannot
// succeed until the conflicting booking is cancelled.
var ErrSlotUnavailable = errors.New("slot unavailable")

// ErrFieldNotFound is returned when a turf field does not exist under
// the given facility, or exists but has been deactivated.
var ErrFieldNotFound = errors.New("field not found")

// ErrProfileNotFound is returned when a facility lookup by ID or slug
// fails.
var ErrProfileNotFound = errors.New("turf profile not found")

// ErrBookingNotFound is returned when a booking lookup fails.
var ErrBookingNotFound = errors.New("booking not found")

// ErrPaymentNotFound is returned when a payment lookup fails.
var ErrPaymentNotFound = errors.New("payment not found")
