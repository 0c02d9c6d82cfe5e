package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/middleware"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/slot"
)

// OwnerHandler exposes facility administration: creating a turf profile
// and managing its fields.  Every mutation verifies that the facility
// belongs to the authenticated owner.
type OwnerHandler struct {
	Profiles *repository.TurfProfileRepo
	Fields   *repository.TurfFieldRepo
	Users    *repository.UserRepo
}

func NewOwnerHandler(p *repository.TurfProfileRepo, f *repository.TurfFieldRepo, u *repository.UserRepo) *OwnerHandler {
	return &OwnerHandler{Profiles: p, Fields: f, Users: u}
}

type createTurfReq struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type fieldReq struct {
	Name         string `json:"name"`
	OpenHour     string `json:"open_hour"`  // "HH:MM"
	CloseHour    string `json:"close_hour"` // "HH:MM"
	SlotDuration int    `json:"slot_duration"`
	PricePerSlot int64  `json:"price_per_slot"` // minor currency units
	IsActive     *bool  `json:"is_active"`
}

// ownerFromContext returns the authenticated owner's identity or writes
// a 401.  Route middleware already enforces the OWNER role.
func ownerFromContext(c echo.Context) (model.Identity, bool) {
	id, ok := middleware.FromContext(c)
	if !ok || id.UserID == 0 {
		return model.Identity{}, false
	}
	return id, true
}

// pathID parses a numeric route parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// CreateTurf registers a new facility owned by the caller and links it
// to the owner's account.
func (h *OwnerHandler) CreateTurf(c echo.Context) error {
	id, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createTurfReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.Name = strings.TrimSpace(req.Name)
	if req.Slug == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug/name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile := &model.TurfProfile{OwnerID: id.UserID, Slug: req.Slug, Name: req.Name, Location: req.Location}
	if err := h.Profiles.Create(ctx, profile); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create turf failed"})
	}
	// Best-effort back-link so the owner's tokens carry the facility.
	_ = h.Users.AssignProfile(ctx, id.UserID, profile.ID)

	return c.JSON(http.StatusCreated, profile)
}

// validateFieldHours checks the "HH:MM" operating window and duration.
func validateFieldHours(open, close string, duration int) string {
	oh, om, err := slot.ParseHour(open)
	if err != nil {
		return "invalid open_hour"
	}
	ch, cm, err := slot.ParseHour(close)
	if err != nil {
		return "invalid close_hour"
	}
	if oh*60+om >= ch*60+cm {
		return "open_hour must be before close_hour"
	}
	if duration < 0 {
		return "slot_duration must be positive"
	}
	return ""
}

// CreateField adds a field under one of the caller's facilities.
func (h *OwnerHandler) CreateField(c echo.Context) error {
	id, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	profileID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid turf id"})
	}
	var req fieldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if msg := validateFieldHours(req.OpenHour, req.CloseHour, req.SlotDuration); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if req.PricePerSlot <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_slot must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Profiles.GetByIDAndOwner(ctx, profileID, id.UserID); err != nil {
		return ownerProfileError(c, err)
	}

	field := &model.TurfField{
		TurfProfileID: profileID,
		Name:          req.Name,
		OpenHour:      req.OpenHour,
		CloseHour:     req.CloseHour,
		SlotDuration:  req.SlotDuration,
		PricePerSlot:  req.PricePerSlot,
	}
	if err := h.Fields.Create(ctx, field); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create field failed"})
	}
	return c.JSON(http.StatusCreated, field)
}

// ListFields returns all fields of one of the caller's facilities,
// including deactivated ones.
func (h *OwnerHandler) ListFields(c echo.Context) error {
	id, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	profileID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid turf id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Profiles.GetByIDAndOwner(ctx, profileID, id.UserID); err != nil {
		return ownerProfileError(c, err)
	}
	fields, err := h.Fields.ListByProfile(ctx, profileID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list fields failed"})
	}
	return c.JSON(http.StatusOK, fields)
}

// UpdateField changes a field's hours, duration, price or active flag.
func (h *OwnerHandler) UpdateField(c echo.Context) error {
	id, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fieldID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field id"})
	}
	var req fieldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	field, err := h.Fields.GetByID(ctx, fieldID)
	if err != nil {
		if err == repository.ErrFieldNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load field failed"})
	}
	if _, err := h.Profiles.GetByIDAndOwner(ctx, field.TurfProfileID, id.UserID); err != nil {
		return ownerProfileError(c, err)
	}

	if req.Name != "" {
		field.Name = strings.TrimSpace(req.Name)
	}
	if req.OpenHour != "" {
		field.OpenHour = req.OpenHour
	}
	if req.CloseHour != "" {
		field.CloseHour = req.CloseHour
	}
	if req.SlotDuration > 0 {
		field.SlotDuration = req.SlotDuration
	}
	if req.PricePerSlot > 0 {
		field.PricePerSlot = req.PricePerSlot
	}
	if req.IsActive != nil {
		field.IsActive = *req.IsActive
	}
	if msg := validateFieldHours(field.OpenHour, field.CloseHour, field.SlotDuration); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	if err := h.Fields.Update(ctx, field); err != nil {
		if err == repository.ErrFieldNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update field failed"})
	}
	return c.JSON(http.StatusOK, field)
}

// ownerProfileError maps facility lookup failures to HTTP responses.
func ownerProfileError(c echo.Context, err error) error {
	switch err {
	case repository.ErrProfileNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "turf not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load turf failed"})
	}
}
