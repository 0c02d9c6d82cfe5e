package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/utils"
)

// Facility-scoped auth.  Tenant customers register and log in under a
// facility slug (/v1/turfs/:slug/auth/...); the same email may hold
// independent accounts at two facilities.

type turfRegisterReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type turfUserPart struct {
	ID            uint64 `json:"id"`
	TurfProfileID uint64 `json:"turf_profile_id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
}
type turfAuthResp struct {
	User    turfUserPart `json:"user"`
	Access  tokenPart    `json:"access"`
	Refresh tokenPart    `json:"refresh"`
}

// resolveProfile loads the facility addressed by the :slug route param.
func (h *AuthHandler) resolveProfile(ctx context.Context, c echo.Context) (*model.TurfProfile, error) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return nil, repository.ErrProfileNotFound
	}
	return h.Profiles.GetBySlug(ctx, slug)
}

// TurfRegister creates a tenant customer under the facility and returns
// tokens immediately.  The issued access token carries role TURF_USER
// plus the facility binding.
func (h *AuthHandler) TurfRegister(c echo.Context) error {
	var req turfRegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.resolveProfile(ctx, c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "turf not found"})
	}

	tuid, err := h.TurfUsers.Create(ctx, profile.ID, req.Email, req.Password, req.Name, req.Phone, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists at this turf"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	id := model.Identity{
		Role: model.RoleTurfUser, TurfUserID: tuid, TurfProfileID: profile.ID,
		Name: req.Name, Email: req.Email,
	}
	access, refresh, err := h.issuePair(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, turfAuthResp{
		User:    turfUserPart{ID: tuid, TurfProfileID: profile.ID, Email: req.Email, Name: req.Name},
		Access:  access,
		Refresh: refresh,
	})
}

// TurfLogin verifies facility-scoped credentials and returns a new pair.
func (h *AuthHandler) TurfLogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.resolveProfile(ctx, c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "turf not found"})
	}

	tu, err := h.TurfUsers.GetByEmail(ctx, profile.ID, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(tu.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	id := model.Identity{
		Role: model.RoleTurfUser, TurfUserID: tu.ID, TurfProfileID: tu.TurfProfileID,
		Name: tu.Name, Email: tu.Email,
	}
	access, refresh, err := h.issuePair(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, turfAuthResp{
		User:    turfUserPart{ID: tu.ID, TurfProfileID: tu.TurfProfileID, Email: tu.Email, Name: tu.Name},
		Access:  access,
		Refresh: refresh,
	})
}
