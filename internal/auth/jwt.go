package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "sellerhub"

// Claims identifies an authenticated seller.
type Claims struct {
	SellerID string `json:"seller_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateJWT issues a session token for a seller.
func GenerateJWT(sellerID, email, secretKey string, ttl time.Duration) (string, error) {
	if sellerID == "" {
		return "", errors.New("seller id is required")
	}
	now := time.Now()
	claims := &Claims{
		SellerID: sellerID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sellerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT verifies a token and returns its seller claims.
func ValidateJWT(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	if !token.Valid || claims.SellerID == "" {
		return nil, fmt.Errorf("invalid JWT")
	}
	return claims, nil
}
