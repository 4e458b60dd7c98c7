package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/atinyakov/storefront/internal/models"
)

// UserRecord is a stored account.
type UserRecord struct {
	models.User
	PasswordHash string
}

// MemoryUserRepository stores accounts in memory, indexed by ID and by
// case-folded email.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]UserRecord
	byEmail map[string]string
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

// UserExists reports whether an account uses email.
func (r *MemoryUserRepository) UserExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[normalizeEmail(email)]
	return ok, nil
}

// RegisterUser stores rec. It fails with ErrConflict if the email or ID is
// taken.
func (r *MemoryUserRepository) RegisterUser(_ context.Context, rec UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(rec.Email)
	if _, ok := r.byEmail[email]; ok {
		return ErrConflict
	}
	if _, ok := r.byID[rec.ID]; ok {
		return ErrConflict
	}
	r.byID[rec.ID] = rec
	r.byEmail[email] = rec.ID
	return nil
}

// FindByEmail returns the account using email.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	rec := r.byID[id]
	return &rec, nil
}

// FindByID returns the account with the given ID.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// ListByStatus returns the accounts in the given state ordered by email.
func (r *MemoryUserRepository) ListByStatus(_ context.Context, status string) ([]UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []UserRecord
	for _, rec := range r.byID {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return normalizeEmail(out[i].Email) < normalizeEmail(out[j].Email)
	})
	return out, nil
}

// UpdateStatus sets the state of the account with the given ID and returns
// the updated record.
func (r *MemoryUserRepository) UpdateStatus(_ context.Context, id, status string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Status = status
	r.byID[id] = rec
	return &rec, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
