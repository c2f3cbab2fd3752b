// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session turns a presented bearer token into an authenticated identity.

Resolution never fails a request: a missing, malformed, expired or wrong-purpose
token, an account that no longer exists or is deactivated, or a subject email
now owned by a different account, all resolve to an anonymous caller
(nil [*Principal]). Entry points then convert that into an
authorization decision through [Require].

# Architecture

  - Resolver: verifies the token and re-loads the identity on every request.
  - Principal: the per-request identity (account id, email, role).
  - Require: the explicit gate every protected operation calls.
*/
package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/warden/internal/platform/apperr"
	"github.com/taibuivan/warden/internal/platform/sec"
	"github.com/taibuivan/warden/pkg/slice"
)

// # Identity

// Principal is the authenticated identity of a request.
//
// A nil *Principal means anonymous; every method is safe to call on nil.
type Principal struct {
	AccountID string       `json:"user_id"`
	Email     string       `json:"email"`
	Role      sec.UserRole `json:"role"`
	Active    bool         `json:"-"`
}

// IsAnonymous reports whether no identity was resolved.
func (principal *Principal) IsAnonymous() bool {
	return principal == nil
}

// HasPermission reports whether the principal's role grants permission.
func (principal *Principal) HasPermission(permission sec.Permission) bool {
	if principal == nil {
		return false
	}
	return sec.HasPermission(principal.Role, permission)
}

// Permissions returns the capability names held by the principal. Anonymous
// callers get an empty, non-nil list.
func (principal *Principal) Permissions() []string {
	if principal == nil {
		return []string{}
	}

	return slice.Map(sec.PermissionsFor(principal.Role), func(permission sec.Permission) string {
		return string(permission)
	})
}

// IsSelf reports whether accountID names the principal's own account.
func (principal *Principal) IsSelf(accountID string) bool {
	return principal != nil && principal.AccountID == accountID
}

// # Collaborators

// TokenVerifier checks a raw token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*sec.Claims, bool)
}

// PrincipalSource loads the current identity behind an account email.
type PrincipalSource interface {
	PrincipalByEmail(context context.Context, email string) (*Principal, error)
}

// # Resolver

// Resolver builds the per-request authentication context.
type Resolver struct {
	verifier TokenVerifier
	source   PrincipalSource
	logger   *slog.Logger
}

// NewResolver constructs a [Resolver].
func NewResolver(verifier TokenVerifier, source PrincipalSource, logger *slog.Logger) *Resolver {
	return &Resolver{verifier: verifier, source: source, logger: logger}
}

/*
Resolve turns a raw bearer token into a principal, or nil for anonymous.

Parameters:
  - context: context.Context
  - rawToken: string (the token without the "Bearer " prefix)

Returns:
  - *Principal: resolved identity, nil on any failure
*/
func (resolver *Resolver) Resolve(context context.Context, rawToken string) *Principal {
	if rawToken == "" {
		return nil
	}

	claims, ok := resolver.verifier.Verify(rawToken)
	if !ok {
		resolver.logger.DebugContext(context, "session_token_rejected", slog.String("reason", "invalid"))
		return nil
	}

	// Reset tokens must never authenticate a request.
	if claims.Type != sec.TokenTypeAccess || claims.Subject == "" || claims.AccountID == "" {
		resolver.logger.DebugContext(context, "session_token_rejected", slog.String("reason", "wrong_type"))
		return nil
	}

	principal, err := resolver.source.PrincipalByEmail(context, claims.Subject)
	if err != nil {
		if !apperr.IsNotFound(err) {
			resolver.logger.WarnContext(context, "session_identity_lookup_failed", slog.Any("error", err))
		}
		return nil
	}

	if principal == nil || !principal.Active {
		return nil
	}

	// The subject email may since have moved to another account.
	if principal.AccountID != claims.AccountID {
		resolver.logger.DebugContext(context, "session_token_rejected", slog.String("reason", "account_mismatch"))
		return nil
	}

	return principal
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the header is absent or not a bearer credential.
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// # Gate

/*
Require is the authorization gate for protected operations.

It fails with Unauthenticated when principal is anonymous, and with Forbidden
when any of the listed permissions is missing from the principal's role.

Parameters:
  - principal: *Principal (nil for anonymous)
  - permissions: ...sec.Permission (all must be held)

Returns:
  - *Principal: the same principal on success
  - error: apperr.Unauthenticated or apperr.Forbidden
*/
func Require(principal *Principal, permissions ...sec.Permission) (*Principal, error) {
	if principal == nil {
		return nil, apperr.Unauthenticated("Authentication required")
	}

	for _, permission := range permissions {
		if !principal.HasPermission(permission) {
			return nil, apperr.Forbidden("Insufficient permissions")
		}
	}

	return principal, nil
}
