package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevUser is the identity every request gets when authentication is disabled.
const DevUser = "dev-user"

var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks HS256 bearer tokens. The token subject is the user id that
// owns chats and uploads.
type Verifier struct {
	secret   []byte
	disabled bool
}

func NewVerifier(secret string, disabled bool) *Verifier {
	return &Verifier{secret: []byte(secret), disabled: disabled}
}

func (v *Verifier) Disabled() bool {
	return v.disabled
}

// UserID extracts the user from an Authorization header value.
func (v *Verifier) UserID(authHeader string) (string, error) {
	if v.disabled {
		return DevUser, nil
	}
	if authHeader == "" {
		return "", fmt.Errorf("%w: empty authorization header", ErrUnauthorized)
	}
	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return "", fmt.Errorf("%w: no bearer token", ErrUnauthorized)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return subject, nil
}

// Issue signs a token for userId. Used by ragctl and tests, the api never issues tokens.
func (v *Verifier) Issue(userId string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userId,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
