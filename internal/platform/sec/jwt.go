// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives, token management and the
// static role/permission tables.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing, the
// permission matrix) from the domain logic. Nothing here touches storage;
// every function is either a pure transformation or a signature check.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Types

// TokenType tags a token with the single purpose it may be used for.
type TokenType string

const (
	// TokenTypeAccess marks a bearer token minted at login.
	TokenTypeAccess TokenType = "access"

	// TokenTypePasswordReset marks a single-use password reset token.
	TokenTypePasswordReset TokenType = "password_reset"
)

// Claims represents the payload embedded inside every token Warden signs.
//
// The subject is always the account email. Identity is re-resolved against
// the account directory on every request, so role and status are never
// trusted from the token itself.
type Claims struct {
	jwt.RegisteredClaims

	// AccountID is set on reset tokens so the consumer can address the row.
	AccountID string `json:"id,omitempty"`

	// Type distinguishes access tokens from reset tokens.
	Type TokenType `json:"type"`
}

// # Token Service

// supportedMethods lists the HMAC algorithms accepted for JWT_ALGORITHM.
var supportedMethods = map[string]*jwt.SigningMethodHMAC{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// SupportedAlgorithm reports whether alg can be used by [NewTokenService].
func SupportedAlgorithm(alg string) bool {
	_, ok := supportedMethods[alg]
	return ok
}

// TokenService signs and verifies HMAC JWTs with a process-wide secret.
//
// It is safe for concurrent use; all fields are read-only after construction.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	issuer string
	now    func() time.Time
}

// TokenOption customizes a [TokenService].
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(service *TokenService) {
		service.now = now
	}
}

// NewTokenService creates a new TokenService.
//
// # Parameters
//   - secret: HMAC signing key. Must not be empty.
//   - algorithm: One of HS256, HS384, HS512.
//   - issuer: Value of the 'iss' claim, checked on verification.
func NewTokenService(secret, algorithm, issuer string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: signing secret is empty")
	}

	method, ok := supportedMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("sec: unsupported signing algorithm %q", algorithm)
	}

	service := &TokenService{
		secret: []byte(secret),
		method: method,
		issuer: issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue serializes the claims with an absolute expiry of now+ttl and signs them.
//
// IssuedAt, ExpiresAt and Issuer are always overwritten.
func (service *TokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	currentTime := service.now()

	claims.Issuer = service.issuer
	claims.IssuedAt = jwt.NewNumericDate(currentTime)
	claims.ExpiresAt = jwt.NewNumericDate(currentTime.Add(ttl))

	token := jwt.NewWithClaims(service.method, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and expiry of a token string.
//
// It returns the decoded claims and true only if the token is well formed,
// signed with the configured algorithm and secret, issued by this service, and
// the current time is strictly before its expiry. Every other outcome returns
// (nil, false); an invalid token is an expected result, not an error.
func (service *TokenService) Verify(tokenString string) (*Claims, bool) {
	if tokenString == "" {
		return nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return service.secret, nil
		},
		jwt.WithValidMethods([]string{service.method.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	if err != nil || !token.Valid {
		return nil, false
	}

	return claims, true
}
