package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/turf-booking/internal/config"     // app configuration
	"github.com/iliyamo/turf-booking/internal/middleware" // identity extraction
	"github.com/iliyamo/turf-booking/internal/model"      // domain types
	"github.com/iliyamo/turf-booking/internal/repository" // DB repositories
	"github.com/iliyamo/turf-booking/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.  It serves both
// global platform accounts (USER/OWNER/MANAGER) and facility-scoped
// tenant customers (TURF_USER); the tenant endpoints live in
// turf_auth.go.
type AuthHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	TurfUsers *repository.TurfUserRepo
	Profiles  *repository.TurfProfileRepo
	Tokens    *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, tu *repository.TurfUserRepo, p *repository.TurfProfileRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, TurfUsers: tu, Profiles: p, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"` // USER | OWNER
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issuePair mints an access/refresh pair for the given identity and
// stores the refresh hash under the matching owner column.
func (h *AuthHandler) issuePair(ctx context.Context, id model.Identity) (tokenPart, tokenPart, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	hash := utils.HashRefreshRaw(refresh.Raw)
	if id.Role == model.RoleTurfUser {
		err = h.Tokens.StoreTurfRefresh(ctx, id.TurfUserID, hash, refresh.Exp)
	} else {
		err = h.Tokens.StoreRefresh(ctx, id.UserID, hash, refresh.Exp)
	}
	if err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	return tokenPart{Token: access.Token, Expires: access.Exp},
		tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, nil
}

// Register: create a global account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleOwner && role != model.RoleUser {
		role = model.RoleUser
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.Name, role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	id := model.Identity{Role: role, UserID: uid, Name: req.Name, Email: req.Email}
	access, refresh, err := h.issuePair(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		User:    userPart{ID: uid, Email: req.Email, Name: req.Name, Role: role},
		Access:  access,
		Refresh: refresh, // raw back to client
	})
}

// Login: verify and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
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

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	id := identityForUser(u)
	access, refresh, err := h.issuePair(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role},
		Access:  access,
		Refresh: refresh,
	})
}

// identityForUser maps a global account row to its token identity.
// Managers carry their facility so facility-scoped endpoints can
// authorize without a second lookup.
func identityForUser(u model.User) model.Identity {
	id := model.Identity{Role: u.Role, UserID: u.ID, Name: u.Name, Email: u.Email}
	if u.TurfProfileID != nil {
		id.TurfProfileID = *u.TurfProfileID
	}
	return id
}

// identityForRefresh resolves the owner of a validated refresh token,
// which may be a global account or a tenant customer.
func (h *AuthHandler) identityForRefresh(ctx context.Context, userID, turfUserID uint64) (model.Identity, error) {
	if turfUserID != 0 {
		tu, err := h.TurfUsers.GetByID(ctx, turfUserID)
		if err != nil {
			return model.Identity{}, err
		}
		return model.Identity{
			Role: model.RoleTurfUser, TurfUserID: tu.ID, TurfProfileID: tu.TurfProfileID,
			Name: tu.Name, Email: tu.Email,
		}, nil
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return model.Identity{}, err
	}
	return identityForUser(u), nil
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, turfUserID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	id, err := h.identityForRefresh(ctx, userID, turfUserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}
	access, refresh, err := h.issuePair(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	uid := id.UserID
	if id.Role == model.RoleTurfUser {
		uid = id.TurfUserID
	}
	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: uid, Email: id.Email, Name: id.Name, Role: id.Role},
		Access:  access,
		Refresh: refresh,
	})
}

// RefreshAccess: validate a refresh token and return a new access token
// WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, turfUserID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	id, err := h.identityForRefresh(ctx, userID, turfUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	// Only return a new access token; do not rotate the refresh token
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes a single session via its refresh token, or, when
// called with a valid bearer token and no refresh token, revokes every
// session of the global account.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	// No refresh token: fall back to the bearer identity and revoke all
	// sessions of that account.
	id, ok := middleware.FromContext(c)
	if !ok || id.Role == model.RoleTurfUser || id.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide refresh_token"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, id.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint echoing the resolved identity.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resp := echo.Map{
		"role":  id.Role,
		"name":  id.Name,
		"email": id.Email,
	}
	if id.Role == model.RoleTurfUser {
		resp["turf_user_id"] = id.TurfUserID
		resp["turf_profile_id"] = id.TurfProfileID
	} else {
		resp["user_id"] = id.UserID
		if id.TurfProfileID != 0 {
			resp["turf_profile_id"] = id.TurfProfileID
		}
	}
	return c.JSON(http.StatusOK, resp)
}
