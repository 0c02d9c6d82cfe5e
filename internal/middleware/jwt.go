package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/turf-booking/internal/model"
)

// identityKey is the context key under which the resolved Identity is stored.
const identityKey = "identity"

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and resolves its claims into a model.Identity stored in the request
// context.  The provided secret must match the one used when issuing
// tokens.  Handlers read the identity back via FromContext; the raw
// "user_id" and "role" keys are also set for middleware that only needs
// those.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 only; any other signing method is rejected.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			id := identityFromClaims(claims)
			if id.Role == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			c.Set(identityKey, id)
			c.Set("user_id", claims["sub"])
			c.Set("role", id.Role)
			return next(c)
		}
	}
}

// identityFromClaims maps the token claims onto the typed identity.  JWT
// numbers decode as float64; the helpers below tolerate both numeric and
// numeric-string encodings.
func identityFromClaims(claims jwt.MapClaims) model.Identity {
	id := model.Identity{
		Role:          claimString(claims, "role"),
		Name:          claimString(claims, "name"),
		Email:         claimString(claims, "email"),
		TurfUserID:    claimUint(claims, "turf_user_id"),
		TurfProfileID: claimUint(claims, "turf_profile_id"),
	}
	sub := claimUint(claims, "sub")
	if id.Role == model.RoleTurfUser {
		if id.TurfUserID == 0 {
			id.TurfUserID = sub
		}
	} else {
		id.UserID = sub
	}
	return id
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimUint(claims jwt.MapClaims, key string) uint64 {
	switch v := claims[key].(type) {
	case float64:
		if v > 0 {
			return uint64(v)
		}
	case string:
		var n uint64
		for _, r := range v {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + uint64(r-'0')
		}
		return n
	}
	return 0
}
