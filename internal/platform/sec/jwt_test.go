// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/warden/internal/platform/sec"
)

// fakeClock is a settable time source shared by issuer and verifier.
type fakeClock struct {
	current time.Time
}

func (clock *fakeClock) Now() time.Time { return clock.current }

func newTokenService(t *testing.T, clock *fakeClock) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService("test-secret", "HS256", "warden.test", sec.WithClock(clock.Now))
	require.NoError(t, err)
	return service
}

/*
TestTokenService_RoundTrip verifies that issued claims come back intact.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1_800_000_000, 0)}
	service := newTokenService(t, clock)

	token, err := service.Issue(sec.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "a@x.com"},
		AccountID:        "acc-1",
		Type:             sec.TokenTypePasswordReset,
	}, 30*time.Minute)
	require.NoError(t, err)

	claims, ok := service.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, sec.TokenTypePasswordReset, claims.Type)
	assert.Equal(t, "warden.test", claims.Issuer)
}

/*
TestTokenService_ExpiryBoundary checks the strict "now < exp" rule around the TTL.
*/
func TestTokenService_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Unix(1_800_000_000, 0)
	clock := &fakeClock{current: issuedAt}
	service := newTokenService(t, clock)

	ttl := 30 * time.Minute
	token, err := service.Issue(sec.Claims{Type: sec.TokenTypeAccess}, ttl)
	require.NoError(t, err)

	clock.current = issuedAt.Add(ttl - time.Second)
	_, ok := service.Verify(token)
	assert.True(t, ok, "token must verify just before expiry")

	clock.current = issuedAt.Add(ttl)
	_, ok = service.Verify(token)
	assert.False(t, ok, "token must fail exactly at expiry")

	clock.current = issuedAt.Add(ttl + time.Second)
	_, ok = service.Verify(token)
	assert.False(t, ok, "token must fail after expiry")
}

/*
TestTokenService_RejectsTampering covers signature, secret, and algorithm mismatches.
*/
func TestTokenService_RejectsTampering(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1_800_000_000, 0)}
	service := newTokenService(t, clock)

	token, err := service.Issue(sec.Claims{Type: sec.TokenTypeAccess}, time.Hour)
	require.NoError(t, err)

	t.Run("spliced_payload", func(t *testing.T) {
		forged, err := service.Issue(sec.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "admin@x.com"},
			Type:             sec.TokenTypeAccess,
		}, time.Hour)
		require.NoError(t, err)

		original := strings.Split(token, ".")
		spliced := strings.Split(forged, ".")
		require.Len(t, original, 3)
		require.Len(t, spliced, 3)

		_, ok := service.Verify(original[0] + "." + spliced[1] + "." + original[2])
		assert.False(t, ok)
	})

	t.Run("other_secret", func(t *testing.T) {
		other, err := sec.NewTokenService("other-secret", "HS256", "warden.test", sec.WithClock(clock.Now))
		require.NoError(t, err)
		_, ok := other.Verify(token)
		assert.False(t, ok)
	})

	t.Run("other_algorithm", func(t *testing.T) {
		other, err := sec.NewTokenService("test-secret", "HS512", "warden.test", sec.WithClock(clock.Now))
		require.NoError(t, err)
		_, ok := other.Verify(token)
		assert.False(t, ok)
	})

	t.Run("other_issuer", func(t *testing.T) {
		other, err := sec.NewTokenService("test-secret", "HS256", "elsewhere", sec.WithClock(clock.Now))
		require.NoError(t, err)
		_, ok := other.Verify(token)
		assert.False(t, ok)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "a.b.c", "Bearer " + token} {
			_, ok := service.Verify(raw)
			assert.False(t, ok, raw)
		}
	})
}

/*
TestNewTokenService_Config rejects an empty secret and unsupported algorithms.
*/
func TestNewTokenService_Config(t *testing.T) {
	_, err := sec.NewTokenService("", "HS256", "warden.test")
	assert.Error(t, err)

	_, err = sec.NewTokenService("secret", "RS256", "warden.test")
	assert.Error(t, err)

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		assert.True(t, sec.SupportedAlgorithm(alg))
		_, err = sec.NewTokenService("secret", alg, "warden.test")
		assert.NoError(t, err)
	}
}
