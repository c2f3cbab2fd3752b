// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/warden/internal/platform/apperr"
	"github.com/taibuivan/warden/internal/platform/sec"
	"github.com/taibuivan/warden/internal/users/session"
)

// stubSource serves principals from a map keyed by email.
type stubSource struct {
	principals map[string]*session.Principal
	err        error
}

func (source *stubSource) PrincipalByEmail(_ context.Context, email string) (*session.Principal, error) {
	if source.err != nil {
		return nil, source.err
	}
	principal, ok := source.principals[email]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return principal, nil
}

func newFixture(t *testing.T) (*sec.TokenService, *stubSource, *session.Resolver) {
	t.Helper()

	tokens, err := sec.NewTokenService("secret", "HS256", "warden.test")
	require.NoError(t, err)

	source := &stubSource{principals: map[string]*session.Principal{
		"active@x.com":   {AccountID: "1", Email: "active@x.com", Role: sec.RoleEmployee, Active: true},
		"inactive@x.com": {AccountID: "2", Email: "inactive@x.com", Role: sec.RoleAdmin, Active: false},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tokens, source, session.NewResolver(tokens, source, logger)
}

func issue(t *testing.T, tokens *sec.TokenService, subject, accountID string, kind sec.TokenType, ttl time.Duration) string {
	t.Helper()
	token, err := tokens.Issue(sec.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		AccountID:        accountID,
		Type:             kind,
	}, ttl)
	require.NoError(t, err)
	return token
}

/*
TestResolver_Resolve covers the identity and every anonymous fallback.
*/
func TestResolver_Resolve(t *testing.T) {
	tokens, _, resolver := newFixture(t)
	ctx := context.Background()

	t.Run("valid_access_token", func(t *testing.T) {
		principal := resolver.Resolve(ctx, issue(t, tokens, "active@x.com", "1", sec.TokenTypeAccess, time.Hour))
		require.NotNil(t, principal)
		assert.Equal(t, "1", principal.AccountID)
	})

	tests := []struct {
		name  string
		token string
	}{
		{"no_token", ""},
		{"malformed", "not.a.jwt"},
		{"expired", issue(t, tokens, "active@x.com", "1", sec.TokenTypeAccess, -time.Minute)},
		{"reset_token", issue(t, tokens, "active@x.com", "1", sec.TokenTypePasswordReset, time.Hour)},
		{"unknown_account", issue(t, tokens, "ghost@x.com", "9", sec.TokenTypeAccess, time.Hour)},
		{"inactive_account", issue(t, tokens, "inactive@x.com", "2", sec.TokenTypeAccess, time.Hour)},
		{"missing_account_id", issue(t, tokens, "active@x.com", "", sec.TokenTypeAccess, time.Hour)},
		{"email_owned_by_other_account", issue(t, tokens, "active@x.com", "2", sec.TokenTypeAccess, time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, resolver.Resolve(ctx, tt.token))
		})
	}
}

/*
TestResolver_StorageFailure resolves to anonymous instead of failing the request.
*/
func TestResolver_StorageFailure(t *testing.T) {
	tokens, source, resolver := newFixture(t)
	source.err = errors.New("connection refused")

	assert.Nil(t, resolver.Resolve(context.Background(), issue(t, tokens, "active@x.com", "1", sec.TokenTypeAccess, time.Hour)))
}

/*
TestBearerToken parses the Authorization header.
*/
func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", session.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", session.BearerToken("bearer  abc "))
	assert.Empty(t, session.BearerToken(""))
	assert.Empty(t, session.BearerToken("Basic abc"))
	assert.Empty(t, session.BearerToken("Bearer"))
}

/*
TestRequire checks the gate outcomes for anonymous, under-privileged and privileged callers.
*/
func TestRequire(t *testing.T) {
	employee := &session.Principal{AccountID: "1", Role: sec.RoleEmployee, Active: true}
	admin := &session.Principal{AccountID: "2", Role: sec.RoleAdmin, Active: true}

	_, err := session.Require(nil)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated))

	_, err = session.Require(nil, sec.PermViewAllUsers)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated))

	got, err := session.Require(employee)
	require.NoError(t, err)
	assert.Same(t, employee, got)

	_, err = session.Require(employee, sec.PermViewAllUsers)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = session.Require(admin, sec.PermViewAllUsers, sec.PermDeleteUser)
	assert.NoError(t, err)
}

/*
TestPrincipal_Permissions lists capability names and stays empty for anonymous.
*/
func TestPrincipal_Permissions(t *testing.T) {
	var anonymous *session.Principal
	assert.Equal(t, []string{}, anonymous.Permissions())
	assert.False(t, anonymous.HasPermission(sec.PermViewOwnProfile))
	assert.True(t, anonymous.IsAnonymous())

	manager := &session.Principal{AccountID: "m", Role: sec.RoleManager}
	assert.Equal(t, []string{"view_own_profile", "create_user"}, manager.Permissions())
	assert.True(t, manager.IsSelf("m"))
	assert.False(t, manager.IsSelf("x"))
}
