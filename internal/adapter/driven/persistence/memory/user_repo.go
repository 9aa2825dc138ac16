package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Wyydra/huddle/internal/core/domain"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[domain.Username]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[domain.Username]domain.User),
	}
}

func (r *UserRepository) Create(ctx context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return fmt.Errorf("user %s: %w", u.Username, domain.ErrUserExists)
	}
	r.users[u.Username] = u
	return nil
}

func (r *UserRepository) Get(ctx context.Context, username domain.Username) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
