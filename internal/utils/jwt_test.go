package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/turf-booking/internal/model"
)

func TestNewAccessTokenClaims(t *testing.T) {
	id := model.Identity{
		Role: model.RoleTurfUser, TurfUserID: 9, TurfProfileID: 3,
		Name: "Karim", Email: "karim@example.com",
	}
	at, err := NewAccessToken("secret", id, 15)
	require.NoError(t, err)
	assert.True(t, at.Exp.After(time.Now().UTC()))

	tok, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, model.RoleTurfUser, claims["role"])
	assert.Equal(t, float64(9), claims["sub"]) // subject is the turf user's row ID
	assert.Equal(t, float64(9), claims["turf_user_id"])
	assert.Equal(t, float64(3), claims["turf_profile_id"])
	assert.Equal(t, "karim@example.com", claims["email"])
}

func TestNewAccessTokenGlobalUserSubject(t *testing.T) {
	at, err := NewAccessToken("secret", model.Identity{Role: model.RoleOwner, UserID: 42, Name: "Owner"}, 15)
	require.NoError(t, err)

	tok, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["sub"])
	_, hasTurf := claims["turf_user_id"]
	assert.False(t, hasTurf)
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96) // 48 random bytes hex encoded

	// Hash is deterministic and never equals the raw value.
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))

	other, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.NotEqual(t, rt.Raw, other.Raw)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
