// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account is the account directory: it owns user records and every
mutation applied to them.

# Architecture

  - Entity: [Account], the identity record with its credential material.
  - Repository: persistence contract, implemented for Postgres and in memory.
  - Service: create, update, change-password, password reset, list/get and
    permission projections. Every mutation is a single atomic commit.
  - Handler: the /users REST surface.
*/
package account

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/taibuivan/warden/internal/platform/sec"
	"github.com/taibuivan/warden/internal/users/session"
)

// # Domain Entities

// Account represents a registered user of the directory.
type Account struct {
	ID        string       `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Role      sec.UserRole `json:"role"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Credential material. Never serialized.
	PasswordHash               string     `json:"-"`
	LastPasswordResetTokenHash *string    `json:"-"`
	LastPasswordResetAt        *time.Time `json:"last_password_reset_at,omitempty"`
}

// Principal projects the account into the per-request identity.
func (account *Account) Principal() *session.Principal {
	return &session.Principal{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Active:    account.IsActive,
	}
}

// clone returns a deep copy so callers never share pointer fields.
func (account *Account) clone() *Account {
	copied := *account
	if account.LastPasswordResetTokenHash != nil {
		digest := *account.LastPasswordResetTokenHash
		copied.LastPasswordResetTokenHash = &digest
	}
	if account.LastPasswordResetAt != nil {
		at := *account.LastPasswordResetAt
		copied.LastPasswordResetAt = &at
	}
	return &copied
}

// PermissionSet is the my-permissions projection of a principal.
type PermissionSet struct {
	UserID      string   `json:"user_id,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
}

// # Wire Field Names

const (
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldEmail           = "email"
	FieldRole            = "role"
	FieldIsActive        = "is_active"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldToken           = "token"
)

// # Email Normalization

// NormalizeEmail trims and case-folds an address so that uniqueness and
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	// A Caser keeps state between calls and must not be shared.
	return cases.Fold().String(strings.TrimSpace(email))
}

// # Repository Contracts

// Repository defines the persistence contract for accounts.
//
// Emails passed in and returned are already normalized. Every method is a
// single atomic commit.
type Repository interface {
	/*
		FindByID retrieves an account by its unique ID.

		Returns:
		  - *Account: Loaded entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByEmail retrieves an account by normalized email.

		Returns:
		  - *Account: Loaded entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	/*
		List returns one page of accounts ordered by creation time, and the total count.
	*/
	List(context context.Context, limit, offset int) ([]*Account, int, error)

	/*
		Create persists a new account.

		Returns:
		  - error: apperr.Conflict on a duplicate email, or storage failures
	*/
	Create(context context.Context, account *Account) error

	/*
		Update persists the mutable profile fields (names, email, role, is_active).

		Returns:
		  - error: apperr.NotFound, apperr.Conflict, or storage failures
	*/
	Update(context context.Context, account *Account) error

	/*
		UpdatePassword replaces only the password hash and stamps updated_at with at.
	*/
	UpdatePassword(context context.Context, id, passwordHash string, at time.Time) error

	/*
		SetResetTokenHash stores the digest of the newest reset token,
		superseding any previous one.
	*/
	SetResetTokenHash(context context.Context, id, digest string) error

	/*
		ConsumeResetToken atomically replaces the password hash, clears the
		stored digest and records the reset time, but only while the stored
		digest still equals digest.

		Returns:
		  - bool: false if the digest no longer matched (already consumed or superseded)
		  - error: storage failures
	*/
	ConsumeResetToken(context context.Context, id, digest, passwordHash string, at time.Time) (bool, error)

	/*
		Delete removes an account permanently.

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	Delete(context context.Context, id string) error
}
