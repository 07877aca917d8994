package pkg

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	UID   string `json:"uid"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

func ParseJwtToken(tokenString string, secretKey string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return TokenClaims{}, err
	}

	var tokenClaims TokenClaims
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if uid, ok := claims["uid"].(string); ok {
			tokenClaims.UID = uid
		}
		if role, ok := claims["role"].(string); ok {
			tokenClaims.Role = role
		}
		if email, ok := claims["email"].(string); ok {
			tokenClaims.Email = email
		}
		return tokenClaims, nil
	}

	return TokenClaims{}, fmt.Errorf("invalid token claims")
}

// NewJwtToken signs an HS256 token. The storefront never issues sessions itself; this is
// used by tooling and tests.
func NewJwtToken(claims TokenClaims, secretKey string, expire time.Duration) (string, error) {
	mapClaims := jwt.MapClaims{
		"uid":  claims.UID,
		"role": claims.Role,
		"exp":  time.Now().Add(expire).Unix(),
	}
	if claims.Email != "" {
		mapClaims["email"] = claims.Email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return token.SignedString([]byte(secretKey))
}

func GetTokenFromHeaders(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("missing token")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("invalid token")
	}

	return token, nil
}
