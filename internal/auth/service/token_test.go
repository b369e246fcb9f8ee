package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/learnhub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "b8a3c2267dc85f855dea9b46b452bf20"

func TestTokenGenerator_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		userID int
		role   models.Role
	}{
		{name: "student", userID: 123, role: models.RoleStudent},
		{name: "admin", userID: 1, role: models.RoleAdmin},
		{name: "zero id", userID: 0, role: models.RoleInstructor},
	}

	tg := NewTokenGenerator(testSecret, time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tg.GenerateAccessToken(tt.userID, tt.role)
			require.NoError(t, err)

			userID, role, err := tg.ValidateAccessToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, userID)
			assert.Equal(t, tt.role, role)
		})
	}
}

func TestTokenGenerator_ValidateAccessToken_Errors(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour)

	sign := func(claims jwt.MapClaims, secret string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: sign(jwt.MapClaims{"user_id": 1, "role": "student", "type": "access", "exp": exp}, "other")},
		{name: "refresh type", token: sign(jwt.MapClaims{"user_id": 1, "role": "student", "type": "refresh", "exp": exp}, testSecret)},
		{name: "missing user id", token: sign(jwt.MapClaims{"role": "student", "type": "access", "exp": exp}, testSecret)},
		{name: "unknown role", token: sign(jwt.MapClaims{"user_id": 1, "role": "root", "type": "access", "exp": exp}, testSecret)},
		{name: "expired", token: sign(jwt.MapClaims{"user_id": 1, "role": "student", "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tg.ValidateAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenGenerator_Expiry(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Minute)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tg.now = func() time.Time { return issued }

	token, err := tg.GenerateAccessToken(5, models.RoleStudent)
	require.NoError(t, err)

	tg.now = func() time.Time { return issued.Add(30 * time.Second) }
	_, _, err = tg.ValidateAccessToken(token)
	assert.NoError(t, err)

	tg.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, _, err = tg.ValidateAccessToken(token)
	assert.Error(t, err)
}
