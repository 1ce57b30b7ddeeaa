package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/utafrali/ShopyKart/internal/domain"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

// AccountRepository is an in-process account store with a unique email
// index.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	byEmail  map[string]string
}

// NewAccountRepository creates an empty store.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]domain.Account),
		byEmail:  make(map[string]string),
	}
}

func (r *AccountRepository) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[a.Email]; taken {
		return apperrors.AlreadyExists("account", "email", a.Email)
	}
	r.accounts[a.ID] = *a
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.NotFound("account", id)
	}
	return &a, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, apperrors.NotFound("account", email)
	}
	a := r.accounts[id]
	return &a, nil
}

// List returns accounts oldest first.
func (r *AccountRepository) List(_ context.Context, p pagination.Params) ([]domain.Account, int, error) {
	r.mu.RLock()
	all := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		all = append(all, a)
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b domain.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return page(all, p), len(all), nil
}
