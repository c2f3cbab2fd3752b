// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/warden/internal/platform/apperr"
)

// MemoryRepository is an in-process [Repository] used by tests and local tooling.
//
// Every method runs under a single mutex, which gives the same per-operation
// atomicity the Postgres implementation gets from its transactions.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

// NewMemoryRepository returns an empty in-memory directory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*Account)}
}

// FindByID implements [Repository].
func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	account, ok := repository.accounts[id]
	if !ok {
		return nil, apperr.NotFound(resourceAccount)
	}
	return account.clone(), nil
}

// FindByEmail implements [Repository].
func (repository *MemoryRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if account := repository.byEmail(email); account != nil {
		return account.clone(), nil
	}
	return nil, apperr.NotFound(resourceAccount)
}

// List implements [Repository].
func (repository *MemoryRepository) List(_ context.Context, limit, offset int) ([]*Account, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	all := make([]*Account, 0, len(repository.accounts))
	for _, account := range repository.accounts {
		all = append(all, account)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*Account{}, total, nil
	}

	end := min(offset+limit, total)
	page := make([]*Account, 0, end-offset)
	for _, account := range all[offset:end] {
		page = append(page, account.clone())
	}

	return page, total, nil
}

// Create implements [Repository].
func (repository *MemoryRepository) Create(_ context.Context, account *Account) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.byEmail(account.Email) != nil {
		return apperr.Conflict("Email is already registered")
	}

	repository.accounts[account.ID] = account.clone()
	return nil
}

// Update implements [Repository].
func (repository *MemoryRepository) Update(_ context.Context, account *Account) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.accounts[account.ID]
	if !ok {
		return apperr.NotFound(resourceAccount)
	}

	if other := repository.byEmail(account.Email); other != nil && other.ID != account.ID {
		return apperr.Conflict("Email is already registered")
	}

	stored.FirstName = account.FirstName
	stored.LastName = account.LastName
	stored.Email = account.Email
	stored.Role = account.Role
	stored.IsActive = account.IsActive
	stored.UpdatedAt = account.UpdatedAt
	return nil
}

// UpdatePassword implements [Repository].
func (repository *MemoryRepository) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.accounts[id]
	if !ok {
		return apperr.NotFound(resourceAccount)
	}

	stored.PasswordHash = passwordHash
	stored.UpdatedAt = at
	return nil
}

// SetResetTokenHash implements [Repository].
func (repository *MemoryRepository) SetResetTokenHash(_ context.Context, id, digest string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.accounts[id]
	if !ok {
		return apperr.NotFound(resourceAccount)
	}

	stored.LastPasswordResetTokenHash = &digest
	return nil
}

// ConsumeResetToken implements [Repository].
func (repository *MemoryRepository) ConsumeResetToken(_ context.Context, id, digest, passwordHash string, at time.Time) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.accounts[id]
	if !ok || stored.LastPasswordResetTokenHash == nil || *stored.LastPasswordResetTokenHash != digest {
		return false, nil
	}

	stored.PasswordHash = passwordHash
	stored.LastPasswordResetTokenHash = nil
	stored.LastPasswordResetAt = &at
	stored.UpdatedAt = at
	return true, nil
}

// Delete implements [Repository].
func (repository *MemoryRepository) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.accounts[id]; !ok {
		return apperr.NotFound(resourceAccount)
	}

	delete(repository.accounts, id)
	return nil
}

// byEmail scans for a normalized email. Callers hold mu.
func (repository *MemoryRepository) byEmail(email string) *Account {
	normalized := NormalizeEmail(email)
	for _, account := range repository.accounts {
		if NormalizeEmail(account.Email) == normalized {
			return account
		}
	}
	return nil
}
