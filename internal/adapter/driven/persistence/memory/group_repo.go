package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Wyydra/huddle/internal/core/domain"
)

type GroupRepository struct {
	mu     sync.RWMutex
	groups map[domain.GroupID]domain.Group
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{
		groups: make(map[domain.GroupID]domain.Group),
	}
}

func (r *GroupRepository) Create(ctx context.Context, g domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g.ID] = cloneGroup(g)
	return nil
}

func (r *GroupRepository) Get(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return domain.Group{}, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	return cloneGroup(g), nil
}

// AddMember is idempotent: joining a group twice keeps a single membership.
func (r *GroupRepository) AddMember(ctx context.Context, id domain.GroupID, username domain.Username) (domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return domain.Group{}, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	if !g.HasMember(username) {
		g.Members = append(g.Members, username)
		r.groups[id] = g
	}
	return cloneGroup(g), nil
}

// ListByMember returns the groups of username, oldest first.
func (r *GroupRepository) ListByMember(ctx context.Context, username domain.Username) ([]domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Group
	for _, g := range r.groups {
		if g.HasMember(username) {
			out = append(out, cloneGroup(g))
		}
	}
	sortGroups(out)
	return out, nil
}

func (r *GroupRepository) all() []domain.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, cloneGroup(g))
	}
	sortGroups(out)
	return out
}

func sortGroups(gs []domain.Group) {
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].CreatedAt.Equal(gs[j].CreatedAt) {
			return gs[i].ID < gs[j].ID
		}
		return gs[i].CreatedAt.Before(gs[j].CreatedAt)
	})
}

func cloneGroup(g domain.Group) domain.Group {
	g.Members = append([]domain.Username(nil), g.Members...)
	return g
}
