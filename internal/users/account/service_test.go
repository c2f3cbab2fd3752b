// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/warden/internal/platform/apperr"
	"github.com/taibuivan/warden/internal/platform/sec"
	"github.com/taibuivan/warden/internal/users/account"
	"github.com/taibuivan/warden/internal/users/session"
	"github.com/taibuivan/warden/pkg/pagination"
	"github.com/taibuivan/warden/pkg/pointer"
)

// # Fixtures

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.current
}

func (clock *fakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.current = clock.current.Add(d)
}

// captureNotifier records every reset notice.
type captureNotifier struct {
	mu      sync.Mutex
	notices []account.ResetNotice
}

func (notifier *captureNotifier) NotifyPasswordReset(_ context.Context, notice account.ResetNotice) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.notices = append(notifier.notices, notice)
	return nil
}

func (notifier *captureNotifier) last(t *testing.T) account.ResetNotice {
	t.Helper()
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.NotEmpty(t, notifier.notices)
	return notifier.notices[len(notifier.notices)-1]
}

type fixture struct {
	service    *account.Service
	repository *account.MemoryRepository
	tokens     *sec.TokenService
	notifier   *captureNotifier
	clock      *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	hasher, err := sec.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := sec.NewTokenService("test-secret", "HS256", "warden.test", sec.WithClock(clock.Now))
	require.NoError(t, err)

	repository := account.NewMemoryRepository()
	notifier := &captureNotifier{}

	service, err := account.NewService(repository, hasher, tokens, notifier,
		account.WithClock(clock.Now),
		account.WithResetRequestFloor(0),
		account.WithResetTokenTTL(30*time.Minute),
		account.WithFrontendURL("https://app.example.com/"),
	)
	require.NoError(t, err)

	return &fixture{service: service, repository: repository, tokens: tokens, notifier: notifier, clock: clock}
}

// seed registers an account with the given role directly through the service.
func (f *fixture) seed(t *testing.T, email string, role sec.UserRole) *account.Account {
	t.Helper()

	created, err := f.service.Register(context.Background(), account.CreateInput{
		FirstName:       "First",
		LastName:        "Last",
		Email:           email,
		Password:        "password123",
		PasswordConfirm: "password123",
	})
	require.NoError(t, err)

	if role != sec.RoleEmployee {
		created.Role = role
		require.NoError(t, f.repository.Update(context.Background(), created))
	}
	return created
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, code), "want %s, got %v", code, err)
}

func newResolver(f *fixture) *session.Resolver {
	return session.NewResolver(f.tokens, f.service, discardLogger())
}

// # Creation

func TestRegister_ForcesEmployee(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Register(context.Background(), account.CreateInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "  Ada@X.com ",
		Password: "password123", PasswordConfirm: "password123", Role: "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, sec.RoleEmployee, created.Role)
	assert.True(t, created.IsActive)
	assert.Equal(t, "ada@x.com", created.Email)
	assert.NotEqual(t, "password123", created.PasswordHash)
}

func TestCreateAccount_Validation(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin).Principal()

	tests := []struct {
		name  string
		input account.CreateInput
		field string
	}{
		{"short_password", account.CreateInput{FirstName: "C", LastName: "C", Email: "c@x.com", Password: "short12", PasswordConfirm: "short12"}, account.FieldPassword},
		{"mismatch", account.CreateInput{FirstName: "C", LastName: "C", Email: "c@x.com", Password: "password123", PasswordConfirm: "password124"}, account.FieldPasswordConfirm},
		{"bad_email", account.CreateInput{FirstName: "C", LastName: "C", Email: "not-an-email", Password: "password123", PasswordConfirm: "password123"}, account.FieldEmail},
		{"missing_name", account.CreateInput{LastName: "C", Email: "c@x.com", Password: "password123", PasswordConfirm: "password123"}, account.FieldFirstName},
		{"unknown_role", account.CreateInput{FirstName: "C", LastName: "C", Email: "c@x.com", Password: "password123", PasswordConfirm: "password123", Role: "root"}, account.FieldRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateAccount(context.Background(), admin, tt.input)
			requireCode(t, err, apperr.CodeValidation)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			fields := make([]string, 0, len(appError.Details))
			for _, detail := range appError.Details {
				fields = append(fields, detail.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}

	_, err := f.repository.FindByEmail(context.Background(), "c@x.com")
	assert.True(t, apperr.IsNotFound(err), "nothing is persisted on validation failure")
}

func TestCreateAccount_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin).Principal()
	manager := f.seed(t, "manager@x.com", sec.RoleManager).Principal()
	employee := f.seed(t, "employee@x.com", sec.RoleEmployee).Principal()

	input := func(email, role string) account.CreateInput {
		return account.CreateInput{FirstName: "N", LastName: "N", Email: email, Password: "password123", PasswordConfirm: "password123", Role: role}
	}

	_, err := f.service.CreateAccount(ctx, nil, input("anon@x.com", ""))
	requireCode(t, err, apperr.CodeUnauthenticated)

	_, err = f.service.CreateAccount(ctx, employee, input("e2@x.com", ""))
	requireCode(t, err, apperr.CodeForbidden)

	created, err := f.service.CreateAccount(ctx, manager, input("e3@x.com", "employee"))
	require.NoError(t, err)
	assert.Equal(t, sec.RoleEmployee, created.Role)

	_, err = f.service.CreateAccount(ctx, manager, input("m2@x.com", "manager"))
	requireCode(t, err, apperr.CodeForbidden)

	inactive := input("e4@x.com", "")
	inactive.IsActive = pointer.To(false)
	_, err = f.service.CreateAccount(ctx, manager, inactive)
	requireCode(t, err, apperr.CodeForbidden)

	created, err = f.service.CreateAccount(ctx, admin, input("m3@x.com", "Manager"))
	require.NoError(t, err)
	assert.Equal(t, sec.RoleManager, created.Role)
}

func TestCreateAccount_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin).Principal()
	f.seed(t, "a@x.com", sec.RoleEmployee)

	_, err := f.service.CreateAccount(context.Background(), admin, account.CreateInput{
		FirstName: "A", LastName: "A", Email: "A@X.COM", Password: "password123", PasswordConfirm: "password123",
	})
	requireCode(t, err, apperr.CodeConflict)
}

// # Updates

func TestUpdateAccount_SelfService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	self := f.seed(t, "a@x.com", sec.RoleEmployee)

	updated, err := f.service.UpdateAccount(ctx, self.Principal(), self.ID, account.UpdateInput{FirstName: pointer.To("Ada")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)

	stored, err := f.repository.FindByID(ctx, self.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.FirstName)
}

func TestUpdateAccount_SelfEscalationDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	self := f.seed(t, "a@x.com", sec.RoleEmployee)

	_, err := f.service.UpdateAccount(ctx, self.Principal(), self.ID, account.UpdateInput{
		FirstName: pointer.To("Mallory"),
		Role:      pointer.To("admin"),
	})
	requireCode(t, err, apperr.CodeForbidden)

	_, err = f.service.UpdateAccount(ctx, self.Principal(), self.ID, account.UpdateInput{IsActive: pointer.To(false)})
	requireCode(t, err, apperr.CodeForbidden)

	stored, err := f.repository.FindByID(ctx, self.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleEmployee, stored.Role)
	assert.Equal(t, "First", stored.FirstName, "a rejected update writes nothing")
	assert.True(t, stored.IsActive)
}

func TestUpdateAccount_AdminEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin).Principal()
	target := f.seed(t, "a@x.com", sec.RoleEmployee)

	updated, err := f.service.UpdateAccount(ctx, admin, target.ID, account.UpdateInput{
		Role:     pointer.To("manager"),
		IsActive: pointer.To(false),
		Email:    pointer.To("New@X.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, sec.RoleManager, updated.Role)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "new@x.com", updated.Email)

	updated, err = f.service.UpdateAccount(ctx, admin, target.ID, account.UpdateInput{Role: pointer.To("overlord")})
	require.NoError(t, err)
	assert.Equal(t, sec.RoleManager, updated.Role, "an unrecognized role leaves the role unchanged")
}

func TestUpdateAccount_OtherAccountAndMissingTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin).Principal()
	manager := f.seed(t, "manager@x.com", sec.RoleManager).Principal()
	target := f.seed(t, "a@x.com", sec.RoleEmployee)

	_, err := f.service.UpdateAccount(ctx, manager, target.ID, account.UpdateInput{FirstName: pointer.To("X")})
	requireCode(t, err, apperr.CodeForbidden)

	_, err = f.service.UpdateAccount(ctx, admin, "missing", account.UpdateInput{FirstName: pointer.To("X")})
	requireCode(t, err, apperr.CodeNotFound)

	_, err = f.service.UpdateAccount(ctx, nil, target.ID, account.UpdateInput{FirstName: pointer.To("X")})
	requireCode(t, err, apperr.CodeUnauthenticated)
}

func TestUpdateAccount_EmailCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	self := f.seed(t, "a@x.com", sec.RoleEmployee)
	f.seed(t, "b@x.com", sec.RoleEmployee)

	_, err := f.service.UpdateAccount(ctx, self.Principal(), self.ID, account.UpdateInput{Email: pointer.To("B@x.com")})
	requireCode(t, err, apperr.CodeConflict)

	// Re-submitting one's own email in another case is not a collision.
	updated, err := f.service.UpdateAccount(ctx, self.Principal(), self.ID, account.UpdateInput{Email: pointer.To("A@X.com")})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", updated.Email)
}

// # Credentials

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	self := f.seed(t, "a@x.com", sec.RoleEmployee)

	err := f.service.ChangePassword(ctx, self.Principal(), "wrong-password", "newpassword1")
	requireCode(t, err, apperr.CodeValidation)

	err = f.service.ChangePassword(ctx, self.Principal(), "password123", "short")
	requireCode(t, err, apperr.CodeValidation)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.service.ChangePassword(ctx, self.Principal(), "password123", "newpassword1"))

	stored, err := f.repository.FindByID(ctx, self.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), stored.UpdatedAt)

	_, err = f.service.Authenticate(ctx, "a@x.com", "password123")
	requireCode(t, err, apperr.CodeUnauthenticated)
	_, err = f.service.Authenticate(ctx, "a@x.com", "newpassword1")
	assert.NoError(t, err)

	err = f.service.ChangePassword(ctx, nil, "x", "y")
	requireCode(t, err, apperr.CodeUnauthenticated)
}

func TestAuthenticate_NoLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "a@x.com", sec.RoleEmployee)

	for range 3 {
		_, err := f.service.Authenticate(ctx, "a@x.com", "wrong-password")
		requireCode(t, err, apperr.CodeUnauthenticated)
	}

	authenticated, err := f.service.Authenticate(ctx, "A@x.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", authenticated.Email)

	_, err = f.service.Authenticate(ctx, "ghost@x.com", "password123")
	requireCode(t, err, apperr.CodeUnauthenticated)
}

func TestAuthenticate_InactiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin).Principal()
	target := f.seed(t, "a@x.com", sec.RoleEmployee)

	_, err := f.service.UpdateAccount(ctx, admin, target.ID, account.UpdateInput{IsActive: pointer.To(false)})
	require.NoError(t, err)

	_, err = f.service.Authenticate(ctx, "a@x.com", "password123")
	requireCode(t, err, apperr.CodeUnauthenticated)

	principal, err := f.service.PrincipalByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, principal.Active)
}

// # Read Projections

func TestListAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin)
	employee := f.seed(t, "a@x.com", sec.RoleEmployee)
	f.seed(t, "b@x.com", sec.RoleEmployee)

	accounts, total, err := f.service.ListAccounts(ctx, admin.Principal(), pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, accounts, 2)

	_, _, err = f.service.ListAccounts(ctx, employee.Principal(), pagination.Params{Page: 1, Limit: 2})
	requireCode(t, err, apperr.CodeForbidden)

	own, err := f.service.GetAccount(ctx, employee.Principal(), employee.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, own.ID)

	_, err = f.service.GetAccount(ctx, employee.Principal(), admin.ID)
	requireCode(t, err, apperr.CodeForbidden)

	other, err := f.service.GetAccount(ctx, admin.Principal(), employee.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", other.Email)
}

func TestPermissions(t *testing.T) {
	f := newFixture(t)
	manager := f.seed(t, "manager@x.com", sec.RoleManager).Principal()

	set := f.service.Permissions(manager)
	assert.Equal(t, "manager", set.Role)
	assert.Equal(t, []string{"view_own_profile", "create_user"}, set.Permissions)

	anonymous := f.service.Permissions(nil)
	assert.NotNil(t, anonymous.Permissions)
	assert.Empty(t, anonymous.Permissions)
}

// # Removal

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin).Principal()
	manager := f.seed(t, "manager@x.com", sec.RoleManager).Principal()
	target := f.seed(t, "a@x.com", sec.RoleEmployee)

	requireCode(t, f.service.DeleteAccount(ctx, manager, target.ID), apperr.CodeForbidden)
	requireCode(t, f.service.DeleteAccount(ctx, admin, admin.AccountID), apperr.CodeForbidden)
	require.NoError(t, f.service.DeleteAccount(ctx, admin, target.ID))
	requireCode(t, f.service.DeleteAccount(ctx, admin, target.ID), apperr.CodeNotFound)
}

// # Session Resolution

func TestResolverUsesDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seed(t, "admin@x.com", sec.RoleAdmin).Principal()
	target := f.seed(t, "a@x.com", sec.RoleEmployee)

	resolver := newResolver(f)

	token, err := f.tokens.Issue(sec.Claims{Type: sec.TokenTypeAccess, AccountID: target.ID, RegisteredClaims: subject("a@x.com")}, time.Hour)
	require.NoError(t, err)

	principal := resolver.Resolve(ctx, token)
	require.NotNil(t, principal)
	assert.Equal(t, target.ID, principal.AccountID)

	_, err = f.service.UpdateAccount(ctx, admin, target.ID, account.UpdateInput{IsActive: pointer.To(false)})
	require.NoError(t, err)
	assert.Nil(t, resolver.Resolve(ctx, token), "deactivated accounts resolve to anonymous")
}

func TestResolver_ReusedEmailDoesNotInheritToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.seed(t, "a@x.com", sec.RoleEmployee)
	resolver := newResolver(f)

	token, err := f.tokens.Issue(sec.Claims{Type: sec.TokenTypeAccess, AccountID: original.ID, RegisteredClaims: subject("a@x.com")}, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, resolver.Resolve(ctx, token))

	_, err = f.service.UpdateAccount(ctx, original.Principal(), original.ID, account.UpdateInput{Email: pointer.To("a2@x.com")})
	require.NoError(t, err)
	newcomer := f.seed(t, "a@x.com", sec.RoleEmployee)
	require.NotEqual(t, original.ID, newcomer.ID)

	assert.Nil(t, resolver.Resolve(ctx, token), "a token must not follow its email to another account")
}

func TestPasswordLimit_CountsBytes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wide := strings.Repeat("é", 40)

	_, err := f.service.Register(ctx, account.CreateInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com",
		Password: wide, PasswordConfirm: wide,
	})
	requireCode(t, err, apperr.CodeValidation)

	self := f.seed(t, "a@x.com", sec.RoleEmployee)
	err = f.service.ChangePassword(ctx, self.Principal(), "password123", wide)
	requireCode(t, err, apperr.CodeValidation)

	narrow := strings.Repeat("é", 36)
	err = f.service.ChangePassword(ctx, self.Principal(), "password123", narrow)
	require.NoError(t, err)
}
