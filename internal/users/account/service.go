// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/warden/internal/platform/apperr"
	"github.com/taibuivan/warden/internal/platform/constants"
	"github.com/taibuivan/warden/internal/platform/ctxutil"
	"github.com/taibuivan/warden/internal/platform/sec"
	"github.com/taibuivan/warden/internal/platform/validate"
	"github.com/taibuivan/warden/internal/users/session"
	"github.com/taibuivan/warden/pkg/pagination"
	"github.com/taibuivan/warden/pkg/pointer"
	"github.com/taibuivan/warden/pkg/uuid"
)

// # Contracts & Types

// TokenService signs and verifies reset tokens.
type TokenService interface {
	Issue(claims sec.Claims, ttl time.Duration) (string, error)
	Verify(token string) (*sec.Claims, bool)
}

// ResetNotice is everything the mailer needs to deliver a reset link.
type ResetNotice struct {
	Email     string
	FirstName string
	Link      string
	ExpiresIn time.Duration
}

// ResetNotifier hands a reset email to asynchronous delivery.
type ResetNotifier interface {
	NotifyPasswordReset(context context.Context, notice ResetNotice) error
}

// Recorder counts authentication events for metrics.
type Recorder interface {
	AuthEvent(event, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) AuthEvent(string, string) {}

// Service implements the account directory use cases.
//
// # Review Process
//
// This service holds every rule about who may change what on an account.
// Changes to the permission checks or the reset flow must be reviewed with
// the permission matrix in internal/platform/sec.
type Service struct {
	repository Repository
	hasher     *sec.Hasher
	tokens     TokenService
	notifier   ResetNotifier
	recorder   Recorder

	resetTokenTTL time.Duration
	resetFloor    time.Duration
	frontendURL   string
	now           func() time.Time

	// dummyHash is verified against when a login names an unknown email so
	// both branches spend the same bcrypt time.
	dummyHash string
}

// Option customizes a [Service].
type Option func(*Service)

// WithResetTokenTTL sets the lifetime of password reset tokens.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(service *Service) { service.resetTokenTTL = ttl }
}

// WithResetRequestFloor sets the minimum duration of a reset request.
func WithResetRequestFloor(floor time.Duration) Option {
	return func(service *Service) { service.resetFloor = floor }
}

// WithFrontendURL sets the base URL of reset links.
func WithFrontendURL(url string) Option {
	return func(service *Service) { service.frontendURL = url }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// WithRecorder attaches an auth event recorder.
func WithRecorder(recorder Recorder) Option {
	return func(service *Service) { service.recorder = recorder }
}

// NewService constructs a new account [Service] with necessary dependencies.
func NewService(repository Repository, hasher *sec.Hasher, tokens TokenService, notifier ResetNotifier, opts ...Option) (*Service, error) {
	service := &Service{
		repository:    repository,
		hasher:        hasher,
		tokens:        tokens,
		notifier:      notifier,
		recorder:      noopRecorder{},
		resetTokenTTL: 30 * time.Minute,
		resetFloor:    constants.ResetRequestFloor,
		frontendURL:   "http://localhost:3000",
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	dummyHash, err := hasher.Hash(uuid.New())
	if err != nil {
		return nil, fmt.Errorf("account_service_dummy_hash_failed: %w", err)
	}
	service.dummyHash = dummyHash

	return service, nil
}

// # Creation

// CreateInput holds the data required to create an account.
type CreateInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	PasswordConfirm string
	// Role is mapped to [sec.UserRole]; empty means employee.
	Role string
	// IsActive defaults to true when nil.
	IsActive *bool
}

/*
Register creates a self-service account. The role is always employee and the
account is always active, whatever the input says.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Account: Created entity
  - error: Validation, Conflict or storage failures
*/
func (service *Service) Register(context context.Context, input CreateInput) (*Account, error) {
	input.Role = string(sec.RoleEmployee)
	input.IsActive = nil
	return service.create(context, input)
}

/*
CreateAccount creates an account on behalf of an authenticated actor.

Description: the actor needs create_user. Assigning a role other than
employee, or creating the account inactive, needs the privileged grant on the
role / is_active field, the same rule that governs updates.

Parameters:
  - context: context.Context
  - actor: *session.Principal
  - input: CreateInput

Returns:
  - *Account: Created entity
  - error: Unauthenticated, Forbidden, Validation, Conflict or storage failures
*/
func (service *Service) CreateAccount(context context.Context, actor *session.Principal, input CreateInput) (*Account, error) {
	if _, err := session.Require(actor, sec.PermCreateUser); err != nil {
		return nil, err
	}

	if err := service.AuthorizeRoleAssignment(actor, input.Role); err != nil {
		return nil, err
	}

	if !pointer.Fallback(input.IsActive, true) &&
		!sec.CanUpdateField(sec.FieldIsActive, false, actor.HasPermission(sec.PermUpdateUser)) {
		return nil, apperr.Forbidden("Not allowed to set field: is_active")
	}

	account, err := service.create(context, input)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_created",
		slog.String("account_id", account.ID),
		slog.String("role", string(account.Role)),
		slog.String("created_by", actor.AccountID),
	)

	return account, nil
}

// AuthorizeRoleAssignment checks whether actor may give a new account the
// requested role. Employee (or empty) is always allowed; anything else needs
// the privileged grant on the role field.
func (service *Service) AuthorizeRoleAssignment(actor *session.Principal, role string) error {
	parsed, ok := sec.ParseRole(role)
	if role == "" || (ok && parsed == sec.RoleEmployee) {
		return nil
	}
	if !sec.CanUpdateField(sec.FieldRole, false, actor.HasPermission(sec.PermUpdateUser)) {
		return apperr.Forbidden("Not allowed to set field: role")
	}
	return nil
}

// create validates, hashes and persists a new account.
func (service *Service) create(context context.Context, input CreateInput) (*Account, error) {
	email := NormalizeEmail(input.Email)

	validator := &validate.Validator{}
	validator.
		Required(FieldFirstName, input.FirstName).
		MaxLen(FieldFirstName, input.FirstName, constants.NameMaxLength).
		Required(FieldLastName, input.LastName).
		MaxLen(FieldLastName, input.LastName, constants.NameMaxLength).
		Required(FieldEmail, email).
		Email(FieldEmail, email).
		MaxLen(FieldEmail, email, constants.EmailMaxLength)
	validatePassword(validator, FieldPassword, input.Password).
		Custom(FieldPasswordConfirm, input.Password != input.PasswordConfirm, "Passwords do not match")

	role := sec.RoleEmployee
	if input.Role != "" {
		parsed, ok := sec.ParseRole(input.Role)
		validator.Custom(FieldRole, !ok, "Unknown role")
		role = parsed
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Fast path for the common duplicate. The unique index still guards races.
	if _, err := service.repository.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("account_service_email_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	currentTime := service.now().UTC()
	account := &Account{
		ID:           uuid.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        email,
		Role:         role,
		IsActive:     pointer.Fallback(input.IsActive, true),
		PasswordHash: hashedPassword,
		CreatedAt:    currentTime,
		UpdatedAt:    currentTime,
	}

	if err := service.repository.Create(context, account); err != nil {
		if apperr.HasCode(err, apperr.CodeConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}

	return account, nil
}

// # Updates

// UpdateInput carries the fields of a partial update. Nil means "not supplied".
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *string
	IsActive  *bool
}

// supplied reports whether field was included in the update.
func (input UpdateInput) supplied(field sec.Field) bool {
	switch field {
	case sec.FieldFirstName:
		return input.FirstName != nil
	case sec.FieldLastName:
		return input.LastName != nil
	case sec.FieldEmail:
		return input.Email != nil
	case sec.FieldRole:
		return input.Role != nil
	case sec.FieldIsActive:
		return input.IsActive != nil
	}
	return false
}

/*
UpdateAccount applies a partial update to the target account.

Description: the target must exist; the actor must be editing their own
account or hold update_user; every supplied field is then checked against the
field grants in a fixed order and the first disallowed field aborts the whole
update. Nothing is written unless every check passes.

Parameters:
  - context: context.Context
  - actor: *session.Principal
  - targetID: string
  - input: UpdateInput

Returns:
  - *Account: The updated entity
  - error: Unauthenticated, NotFound, Forbidden, Validation, Conflict or storage failures
*/
func (service *Service) UpdateAccount(context context.Context, actor *session.Principal, targetID string, input UpdateInput) (*Account, error) {
	if _, err := session.Require(actor); err != nil {
		return nil, err
	}

	target, err := service.accountByID(context, targetID)
	if err != nil {
		return nil, err
	}

	// Object-level check
	isSelf := actor.IsSelf(target.ID)
	hasUpdatePermission := actor.HasPermission(sec.PermUpdateUser)
	if !isSelf && !hasUpdatePermission {
		return nil, apperr.Forbidden("Not allowed to update this account")
	}

	// Field-level checks, all-or-nothing
	for _, field := range sec.UpdatableFields {
		if input.supplied(field) && !sec.CanUpdateField(field, isSelf, hasUpdatePermission) {
			return nil, apperr.Forbidden(fmt.Sprintf("Not allowed to update field: %s", field))
		}
	}

	validator := &validate.Validator{}
	if input.FirstName != nil {
		validator.Required(FieldFirstName, *input.FirstName).MaxLen(FieldFirstName, *input.FirstName, constants.NameMaxLength)
	}
	if input.LastName != nil {
		validator.Required(FieldLastName, *input.LastName).MaxLen(FieldLastName, *input.LastName, constants.NameMaxLength)
	}

	var email string
	if input.Email != nil {
		email = NormalizeEmail(*input.Email)
		validator.Required(FieldEmail, email).Email(FieldEmail, email).MaxLen(FieldEmail, email, constants.EmailMaxLength)
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Apply
	target.FirstName = pointer.Fallback(input.FirstName, target.FirstName)
	target.LastName = pointer.Fallback(input.LastName, target.LastName)
	target.IsActive = pointer.Fallback(input.IsActive, target.IsActive)
	if input.Role != nil {
		if role, ok := sec.ParseRole(*input.Role); ok {
			target.Role = role
		} else {
			ctxutil.GetLogger(context).WarnContext(context, "account_update_unknown_role_ignored",
				slog.String("account_id", target.ID),
				slog.String("role", *input.Role),
			)
		}
	}

	if input.Email != nil && email != target.Email {
		existing, err := service.repository.FindByEmail(context, email)
		if err == nil && existing.ID != target.ID {
			return nil, apperr.Conflict("Email is already registered")
		}
		if err != nil && !apperr.IsNotFound(err) {
			return nil, fmt.Errorf("account_service_email_lookup_failed: %w", err)
		}
		target.Email = email
	}

	target.UpdatedAt = service.now().UTC()

	if err := service.repository.Update(context, target); err != nil {
		if apperr.IsAppError(err) && !apperr.HasCode(err, apperr.CodeInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_updated",
		slog.String("account_id", target.ID),
		slog.String("updated_by", actor.AccountID),
	)

	return target, nil
}

// # Credentials

/*
ChangePassword replaces the actor's own password after verifying the current one.

Parameters:
  - context: context.Context
  - actor: *session.Principal
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthenticated, Validation or storage failures
*/
func (service *Service) ChangePassword(context context.Context, actor *session.Principal, currentPassword, newPassword string) error {
	if _, err := session.Require(actor); err != nil {
		return err
	}

	account, err := service.repository.FindByID(context, actor.AccountID)
	if err != nil {
		return err
	}

	if !service.hasher.Verify(currentPassword, account.PasswordHash) {
		return validate.RequiredError(FieldCurrentPassword, "Current password is incorrect")
	}

	if err := validatePassword(&validate.Validator{}, FieldNewPassword, newPassword).Err(); err != nil {
		return err
	}

	hashedPassword, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("account_service_change_password_hash_failed: %w", err)
	}

	if err := service.repository.UpdatePassword(context, account.ID, hashedPassword, service.now()); err != nil {
		return fmt.Errorf("account_service_change_password_update_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_password_changed", slog.String("account_id", account.ID))
	service.recorder.AuthEvent("password_change", "success")

	return nil
}

/*
Authenticate checks an email/password pair and returns the account.

Description: unknown emails still pay for one bcrypt comparison so the two
failure branches cost the same. Inactive accounts fail like a wrong password.

Returns:
  - *Account: The authenticated account
  - error: apperr.Unauthenticated or storage failures
*/
func (service *Service) Authenticate(context context.Context, email, password string) (*Account, error) {
	account, err := service.repository.FindByEmail(context, NormalizeEmail(email))
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, fmt.Errorf("account_service_authenticate_lookup_failed: %w", err)
		}
		service.hasher.Verify(password, service.dummyHash)
		return nil, invalidCredentials()
	}

	if !service.hasher.Verify(password, account.PasswordHash) || !account.IsActive {
		return nil, invalidCredentials()
	}

	return account, nil
}

func invalidCredentials() error {
	return apperr.Unauthenticated("Incorrect email or password")
}

// # Read Projections

/*
ListAccounts returns a page of accounts. Requires view_all_users.
*/
func (service *Service) ListAccounts(context context.Context, actor *session.Principal, params pagination.Params) ([]*Account, int, error) {
	if _, err := session.Require(actor, sec.PermViewAllUsers); err != nil {
		return nil, 0, err
	}

	accounts, total, err := service.repository.List(context, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}

	return accounts, total, nil
}

/*
GetAccount returns a single account. Actors may read their own account with
view_own_profile, anyone else's with view_all_users.
*/
func (service *Service) GetAccount(context context.Context, actor *session.Principal, id string) (*Account, error) {
	if _, err := session.Require(actor); err != nil {
		return nil, err
	}

	required := sec.PermViewAllUsers
	if actor.IsSelf(id) {
		required = sec.PermViewOwnProfile
	}
	if !actor.HasPermission(required) {
		return nil, apperr.Forbidden("Insufficient permissions")
	}

	return service.accountByID(context, id)
}

/*
GetSelf returns the actor's own account.
*/
func (service *Service) GetSelf(context context.Context, actor *session.Principal) (*Account, error) {
	if _, err := session.Require(actor); err != nil {
		return nil, err
	}
	return service.repository.FindByID(context, actor.AccountID)
}

// accountByID loads an account addressed by a caller-supplied id. Ids that are
// not UUIDs cannot exist and never reach storage.
func (service *Service) accountByID(context context.Context, id string) (*Account, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound(resourceAccount)
	}
	return service.repository.FindByID(context, id)
}

/*
Permissions returns the capability names of the actor's role. Anonymous actors
get an empty list rather than an error.
*/
func (service *Service) Permissions(actor *session.Principal) PermissionSet {
	set := PermissionSet{Permissions: actor.Permissions()}
	if actor != nil {
		set.UserID = actor.AccountID
		set.Role = string(actor.Role)
	}
	return set
}

/*
PrincipalByEmail loads the identity behind an email for the session resolver.
*/
func (service *Service) PrincipalByEmail(context context.Context, email string) (*session.Principal, error) {
	account, err := service.repository.FindByEmail(context, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return account.Principal(), nil
}

// # Removal

/*
DeleteAccount permanently removes an account. Requires delete_user; actors
cannot delete themselves.
*/
func (service *Service) DeleteAccount(context context.Context, actor *session.Principal, id string) error {
	if _, err := session.Require(actor, sec.PermDeleteUser); err != nil {
		return err
	}

	if actor.IsSelf(id) {
		return apperr.Forbidden("Cannot delete your own account")
	}

	if !uuid.Valid(id) {
		return apperr.NotFound(resourceAccount)
	}

	if err := service.repository.Delete(context, id); err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_deleted",
		slog.String("account_id", id),
		slog.String("deleted_by", actor.AccountID),
	)

	return nil
}

// # Helpers

// validatePassword applies the password policy to value.
func validatePassword(validator *validate.Validator, field, value string) *validate.Validator {
	return validator.
		Required(field, value).
		MinLen(field, value, constants.PasswordMinLength).
		MaxBytes(field, value, constants.PasswordMaxBytes)
}
