package account

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Email uniqueness is enforced under the write lock.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[int64]*Account
	byEmail  map[string]int64
	nextID   int64
}

// NewInMemoryRepository creates a new in-memory account repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[int64]*Account),
		byEmail:  make(map[string]int64),
	}
}

// Get retrieves an account by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cpy := *a
	return &cpy, nil
}

// GetByEmail retrieves an account by email.
func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cpy := *r.accounts[id]
	return &cpy, nil
}

// ExistsByEmail reports whether an account with the email exists.
func (r *InMemoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

// Create inserts the account and sets its ID.
func (r *InMemoryRepository) Create(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[a.Email]; taken {
		return ErrEmailTaken
	}

	r.nextID++
	a.ID = r.nextID
	cpy := *a
	r.accounts[a.ID] = &cpy
	r.byEmail[a.Email] = a.ID
	return nil
}

// Update overwrites an existing account.
func (r *InMemoryRepository) Update(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[a.ID]
	if !ok {
		return ErrAccountNotFound
	}
	if owner, taken := r.byEmail[a.Email]; taken && owner != a.ID {
		return ErrEmailTaken
	}

	delete(r.byEmail, existing.Email)
	cpy := *a
	r.accounts[a.ID] = &cpy
	r.byEmail[a.Email] = a.ID
	return nil
}

// Delete removes an account by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	delete(r.byEmail, a.Email)
	delete(r.accounts, id)
	return nil
}

// Search returns the accounts matching filter ordered by ID.
func (r *InMemoryRepository) Search(_ context.Context, filter SearchFilter, offset, limit int) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.accounts))
	for id := range r.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []*Account
	skipped := 0
	for _, id := range ids {
		a := r.accounts[id]
		if !matches(a, filter) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(result) == limit {
			break
		}
		cpy := *a
		result = append(result, &cpy)
	}
	return result, nil
}

func matches(a *Account, f SearchFilter) bool {
	if f.FirstName != nil && !strings.Contains(a.FirstName, *f.FirstName) {
		return false
	}
	if f.LastName != nil && !strings.Contains(a.LastName, *f.LastName) {
		return false
	}
	if f.Email != nil && !strings.Contains(a.Email, *f.Email) {
		return false
	}
	return true
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
