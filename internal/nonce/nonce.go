// Package nonce issues short-lived, scope-limited authorization tokens.
// A nonce is valid for exactly one category of action (its scope); a token
// issued for one scope never verifies against another.
package nonce

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeScreenshotProxy gates the resource relay endpoint.
const ScopeScreenshotProxy = "screenshot_proxy"

var ErrInvalidNonce = errors.New("invalid nonce")

type Issuer struct {
	secret []byte
	expiry time.Duration
}

func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Issue creates a nonce bound to the given scope.
func (i *Issuer) Issue(scope string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"scope": scope,
		"exp":   now.Add(i.expiry).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign nonce: %w", err)
	}

	return signed, nil
}

// Verify checks signature, expiry and scope. All failure modes collapse
// into ErrInvalidNonce so callers cannot distinguish malformed from
// expired from wrong-scope tokens.
func (i *Issuer) Verify(nonce, scope string) error {
	token, err := jwt.Parse(nonce, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidNonce
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidNonce
	}

	if got, _ := claims["scope"].(string); got != scope {
		return ErrInvalidNonce
	}

	return nil
}
