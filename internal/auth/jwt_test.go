package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timi233/channel-target-api/internal/auth"
	"github.com/timi233/channel-target-api/internal/config"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret: "test-secret",
		Issuer:    "channel-target-api",
		TokenTTL:  3600,
	}
}

func TestJWTValidator_ValidateToken(t *testing.T) {
	cfg := testAuthConfig()
	validator := auth.NewJWTValidator(cfg)

	t.Run("valid token round-trips the user", func(t *testing.T) {
		userID := uuid.New()
		token, err := auth.GenerateToken(cfg, userID, "Test User", "test@example.com")
		require.NoError(t, err)

		userCtx, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, userCtx.UserID)
		assert.Equal(t, "Test User", userCtx.DisplayName)
		assert.Equal(t, "test@example.com", userCtx.Email)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		otherCfg := *cfg
		otherCfg.JWTSecret = "other-secret"
		token, err := auth.GenerateToken(&otherCfg, uuid.New(), "", "")
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		otherCfg := *cfg
		otherCfg.Issuer = "someone-else"
		token, err := auth.GenerateToken(&otherCfg, uuid.New(), "", "")
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		now := time.Now()
		claims := jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte(cfg.JWTSecret))
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("token without expiration is rejected", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject: uuid.NewString(),
			Issuer:  cfg.Issuer,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte(cfg.JWTSecret))
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("non-uuid subject is rejected", func(t *testing.T) {
		now := time.Now()
		claims := jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte(cfg.JWTSecret))
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := validator.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
