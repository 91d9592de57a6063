package account

import (
	"errors"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
)

const (
	confirmationPurpose  = "confirm-email"
	ConfirmationValidFor = 3 * 24 * time.Hour
)

type ConfirmationClaims struct {
	AccountID string `json:"account_id"`
	Purpose   string `json:"purpose"`
	jwt.StandardClaims
}

// NewConfirmationToken signs a token confirming the account's email address.
func NewConfirmationToken(accountID string, key []byte, now time.Time) (string, error) {
	claims := ConfirmationClaims{
		AccountID: accountID,
		Purpose:   confirmationPurpose,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ConfirmationValidFor).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseConfirmationToken returns the account id carried by a valid token.
func ParseConfirmationToken(token string, key []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &ConfirmationClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*ConfirmationClaims)
	if !ok || !parsed.Valid || claims.Purpose != confirmationPurpose || claims.AccountID == "" {
		return "", errors.New("invalid confirmation token")
	}
	return claims.AccountID, nil
}
