// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/warden/internal/platform/apperr"
	"github.com/taibuivan/warden/internal/platform/constants"
	"github.com/taibuivan/warden/internal/platform/ctxutil"
	"github.com/taibuivan/warden/internal/platform/sec"
	"github.com/taibuivan/warden/internal/platform/validate"
)

// # Password Reset

/*
RequestPasswordReset issues a single-use reset token and hands the link to the
mail notifier.

Description: unknown and inactive emails are a silent no-op. Every call,
whatever the branch, takes at least the configured floor so that response
timing does not reveal whether the email exists.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: storage or signing failures only
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	started := service.now()
	defer service.padTo(context, started)

	logger := ctxutil.GetLogger(context)

	account, err := service.repository.FindByEmail(context, NormalizeEmail(email))
	if err != nil {
		if apperr.IsNotFound(err) {
			service.recorder.AuthEvent("reset_request", "unknown_email")
			return nil
		}
		return fmt.Errorf("account_service_reset_lookup_failed: %w", err)
	}

	if !account.IsActive {
		service.recorder.AuthEvent("reset_request", "inactive")
		return nil
	}

	token, err := service.tokens.Issue(sec.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: account.Email},
		AccountID:        account.ID,
		Type:             sec.TokenTypePasswordReset,
	}, service.resetTokenTTL)
	if err != nil {
		return fmt.Errorf("account_service_reset_issue_failed: %w", err)
	}

	// Storing the digest supersedes any earlier outstanding token.
	if err := service.repository.SetResetTokenHash(context, account.ID, sec.Digest(token)); err != nil {
		return fmt.Errorf("account_service_reset_store_failed: %w", err)
	}

	notice := ResetNotice{
		Email:     account.Email,
		FirstName: account.FirstName,
		Link:      service.resetLink(token),
		ExpiresIn: service.resetTokenTTL,
	}

	if err := service.notifier.NotifyPasswordReset(context, notice); err != nil {
		logger.ErrorContext(context, "password_reset_notify_failed",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
	}

	logger.InfoContext(context, "password_reset_requested", slog.String("account_id", account.ID))
	service.recorder.AuthEvent("reset_request", "issued")

	return nil
}

/*
VerifyResetToken checks a presented reset token against signature, expiry,
type and the digest stored on the named account.

Returns:
  - *Account: the account the token belongs to
  - error: a single generic Validation error for every failure
*/
func (service *Service) VerifyResetToken(context context.Context, token string) (*Account, error) {
	claims, ok := service.tokens.Verify(token)
	if !ok || claims.Type != sec.TokenTypePasswordReset || claims.AccountID == "" {
		return nil, invalidResetToken()
	}

	account, err := service.repository.FindByID(context, claims.AccountID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, invalidResetToken()
		}
		return nil, fmt.Errorf("account_service_reset_verify_lookup_failed: %w", err)
	}

	if !account.IsActive || account.Email != claims.Subject || account.LastPasswordResetTokenHash == nil {
		return nil, invalidResetToken()
	}

	if !sec.DigestMatches(token, *account.LastPasswordResetTokenHash) {
		return nil, invalidResetToken()
	}

	return account, nil
}

/*
ResetPassword consumes a reset token and replaces the password.

Description: the password hash, the cleared digest and the reset timestamp are
committed together, and only while the stored digest still matches. A token
that was consumed or superseded in between fails like any other invalid token.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: Validation for a weak password or an invalid token, storage failures otherwise
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	if err := validatePassword(&validate.Validator{}, FieldNewPassword, newPassword).Err(); err != nil {
		return err
	}

	account, err := service.VerifyResetToken(context, token)
	if err != nil {
		service.recorder.AuthEvent("reset_consume", "invalid")
		return err
	}

	hashedPassword, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("account_service_reset_hash_failed: %w", err)
	}

	consumed, err := service.repository.ConsumeResetToken(context, account.ID, sec.Digest(token), hashedPassword, service.now().UTC())
	if err != nil {
		return fmt.Errorf("account_service_reset_consume_failed: %w", err)
	}
	if !consumed {
		service.recorder.AuthEvent("reset_consume", "invalid")
		return invalidResetToken()
	}

	ctxutil.GetLogger(context).InfoContext(context, "password_reset_completed", slog.String("account_id", account.ID))
	service.recorder.AuthEvent("reset_consume", "success")

	return nil
}

// # Helpers

func invalidResetToken() error {
	return apperr.ValidationError("Invalid or expired token")
}

// resetLink builds the frontend URL the email points at.
func (service *Service) resetLink(token string) string {
	return strings.TrimRight(service.frontendURL, "/") + constants.ResetPasswordPath + "?token=" + url.QueryEscape(token)
}

// padTo sleeps until the reset floor has elapsed since started, or the
// context ends.
func (service *Service) padTo(context context.Context, started time.Time) {
	remaining := service.resetFloor - service.now().Sub(started)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-context.Done():
	}
}
