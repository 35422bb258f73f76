package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/semprecheio/auth-api/internal/domain"
)

type memoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryAccountRepository returns a mutex-guarded in-memory store, used by
// tests and by local runs without POSTGRES_DSN. Seed accounts are copied in.
func NewMemoryAccountRepository(seed ...*domain.Account) AccountRepository {
	r := &memoryAccountRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
	for _, account := range seed {
		_ = r.Create(context.Background(), account.Clone())
	}
	return r
}

func (r *memoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[account.Email]; exists {
		return ErrEmailTaken
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := r.now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	r.byID[account.ID] = account.Clone()
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *memoryAccountRepository) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[account.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Email != account.Email {
		if _, taken := r.byEmail[account.Email]; taken {
			return ErrEmailTaken
		}
		delete(r.byEmail, current.Email)
		r.byEmail[account.Email] = account.ID
	}

	account.CreatedAt = current.CreatedAt
	account.UpdatedAt = r.now()
	r.byID[account.ID] = account.Clone()
	return nil
}

func (r *memoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return account.Clone(), nil
}

func (r *memoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *memoryAccountRepository) List(_ context.Context, filter AccountFilter) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(r.byID))
	for _, account := range r.byID {
		if filter.Active != nil && account.Active != *filter.Active {
			continue
		}
		if filter.Role != nil && account.Role != *filter.Role {
			continue
		}
		accounts = append(accounts, account.Clone())
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].Email < accounts[j].Email
		}
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}
