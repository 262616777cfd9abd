package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	userID := primitive.NewObjectID()

	token, err := manager.GenerateToken(userID, "user@example.com", "shipper", false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "shipper", claims.UserType)
	assert.False(t, claims.IsModerator)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	token, err := manager.GenerateToken(primitive.NewObjectID(), "user@example.com", "sender", false)
	require.NoError(t, err)

	other := NewJWTManager("another-secret", time.Hour)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)
	token, err := manager.GenerateToken(primitive.NewObjectID(), "user@example.com", "sender", false)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsForeignAlgorithm(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	// Токен с тем же секретом, но чужим алгоритмом подписи
	claims := Claims{
		UserID: primitive.NewObjectID(),
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(manager.SecretKey)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsForeignIssuer(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	claims := Claims{
		UserID: primitive.NewObjectID(),
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "some-other-service",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.SecretKey)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbageToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	_, err := manager.ValidateToken("not-a-token")
	assert.Error(t, err)
}
