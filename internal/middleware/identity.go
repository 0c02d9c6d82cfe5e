package middleware

// identity.go exposes the typed identity stored by JWTAuth plus the
// identifier used for rate-limit keying.

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/model"
)

// FromContext returns the identity resolved by JWTAuth.  The second
// return value is false on unauthenticated routes.
func FromContext(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// userID extracts a user identifier for rate-limit keying.  It returns
// "guest" when no user is authenticated or the claims are missing.
func userID(c echo.Context) string {
	if id, ok := FromContext(c); ok {
		if id.Role == model.RoleTurfUser && id.TurfUserID != 0 {
			return "t" + strconv.FormatUint(id.TurfUserID, 10)
		}
		if id.UserID != 0 {
			return strconv.FormatUint(id.UserID, 10)
		}
	}
	u := c.Get("user")
	if tok, ok := u.(*jwt.Token); ok {
		if cl, ok := tok.Claims.(jwt.MapClaims); ok {
			if v, ok := cl["sub"].(string); ok && v != "" {
				return v
			}
		}
	}
	return "guest"
}
