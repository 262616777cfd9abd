package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const tokenIssuer = "travelship-backend"

type Claims struct {
	UserID      primitive.ObjectID `json:"user_id"`
	Email       string             `json:"email"`
	UserType    string             `json:"user_type"`
	IsModerator bool               `json:"is_moderator"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	SecretKey []byte
	Duration  time.Duration
}

func NewJWTManager(secretKey string, duration time.Duration) *JWTManager {
	return &JWTManager{
		SecretKey: []byte(secretKey),
		Duration:  duration,
	}
}

func (j *JWTManager) GenerateToken(userID primitive.ObjectID, email, userType string, isModerator bool) (string, error) {
	claims := Claims{
		UserID:      userID,
		Email:       email,
		UserType:    userType,
		IsModerator: isModerator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.Duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.SecretKey)
}

// ValidateToken проверяет подпись, алгоритм и issuer токена.
// Токены с чужим алгоритмом подписи отклоняются до проверки claims.
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.SecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
