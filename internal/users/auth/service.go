// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential entry points of Warden: login, self
registration, the caller's own profile and permissions, password change and
the password reset protocol.

Architecture:

  - Service: exchanges credentials for a signed access token.
  - Handler: the /auth REST surface; every account mutation is delegated to
    the account directory, which owns the rules.

Access tokens are stateless. They carry the account email as subject and are
re-checked against the directory on every request by the session resolver.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/warden/internal/platform/constants"
	"github.com/taibuivan/warden/internal/platform/ctxutil"
	"github.com/taibuivan/warden/internal/platform/sec"
	"github.com/taibuivan/warden/internal/users/account"
)

// # Contracts & Types

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(claims sec.Claims, ttl time.Duration) (string, error)
}

// Authenticator checks an email/password pair.
type Authenticator interface {
	Authenticate(context context.Context, email, password string) (*account.Account, error)
}

// Service implements the login use case.
//
// # Review Process
//
// This service is critical for security. Any changes to token claims or
// lifetimes must be reviewed together with the session resolver.
type Service struct {
	accounts  Authenticator
	tokens    TokenIssuer
	accessTTL time.Duration
	recorder  account.Recorder
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(accounts Authenticator, tokens TokenIssuer, accessTTL time.Duration, recorder account.Recorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &Service{
		accounts:  accounts,
		tokens:    tokens,
		accessTTL: accessTTL,
		recorder:  recorder,
	}
}

type noopRecorder struct{}

func (noopRecorder) AuthEvent(string, string) {}

// # Authentication Flow

// LoginSession is the result of a successful login.
type LoginSession struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	User        *account.Account `json:"user"`
}

/*
Login validates user credentials and issues an access token.

Description: every failure (unknown email, wrong password, inactive account)
returns the same Unauthenticated error. There is no lockout; repeated failures
keep failing the same way.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *LoginSession: Transport-ready token and profile
  - error: Unauthenticated or internal failures
*/
func (service *Service) Login(context context.Context, email, password string) (*LoginSession, error) {
	user, err := service.accounts.Authenticate(context, email, password)
	if err != nil {
		service.recorder.AuthEvent("login", "failure")
		return nil, err
	}

	accessToken, err := service.tokens.Issue(sec.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.Email},
		AccountID:        user.ID,
		Type:             sec.TokenTypeAccess,
	}, service.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_login_succeeded", slog.String("account_id", user.ID))
	service.recorder.AuthEvent("login", "success")

	return &LoginSession{
		AccessToken: accessToken,
		TokenType:   constants.TokenTypeBearer,
		ExpiresIn:   int(service.accessTTL.Seconds()),
		User:        user,
	}, nil
}
