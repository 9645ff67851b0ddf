package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
)

// Load the secret from an environment variable. Fallback to a default (not recommended in production).
var secretKey = []byte(getSecret())

func getSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "taskora-dev-secret"
	}
	return secret
}

// HashCode computes a SHA-256 hash of a completion code so the signed token
// never carries the code itself.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// GenerateCompletionToken creates a signed JWT binding a booking id to the
// hash of its one-time completion code. The token expires after duration.
func GenerateCompletionToken(bookingID, codeHash string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      bookingID,
		"codeHash": codeHash,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseCompletionToken validates a completion token and returns the booking id
// and code hash it carries. Expired or tampered tokens yield an error.
func ParseCompletionToken(tokenString string) (bookingID, codeHash string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	bookingID, ok = claims["sub"].(string)
	if !ok || bookingID == "" {
		return "", "", errors.New("token does not contain a valid 'sub' claim")
	}
	codeHash, ok = claims["codeHash"].(string)
	if !ok || codeHash == "" {
		return "", "", errors.New("token does not contain a code hash")
	}
	return bookingID, codeHash, nil
}
