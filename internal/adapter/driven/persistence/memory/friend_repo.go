package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Wyydra/huddle/internal/core/domain"
)

// FriendRepository stores pending requests keyed by recipient and accepted
// friendships in both directions.
type FriendRepository struct {
	mu      sync.RWMutex
	pending map[domain.Username]map[domain.Username]domain.FriendRequest
	friends map[domain.Username]map[domain.Username]struct{}
	now     func() time.Time
}

func NewFriendRepository() *FriendRepository {
	return &FriendRepository{
		pending: make(map[domain.Username]map[domain.Username]domain.FriendRequest),
		friends: make(map[domain.Username]map[domain.Username]struct{}),
		now:     time.Now,
	}
}

// Request records a request from -> to. Repeating it, or asking someone who
// already is a friend, changes nothing.
func (r *FriendRepository) Request(ctx context.Context, from, to domain.Username) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.friends[from][to]; ok {
		return nil
	}
	if _, ok := r.pending[to][from]; ok {
		return nil
	}
	if r.pending[to] == nil {
		r.pending[to] = make(map[domain.Username]domain.FriendRequest)
	}
	r.pending[to][from] = domain.FriendRequest{From: from, To: to, CreatedAt: r.now().UTC()}
	return nil
}

func (r *FriendRepository) Accept(ctx context.Context, from, to domain.Username) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[to][from]; !ok {
		return fmt.Errorf("friend request %s -> %s: %w", from, to, domain.ErrNotFound)
	}
	delete(r.pending[to], from)
	if len(r.pending[to]) == 0 {
		delete(r.pending, to)
	}
	r.link(from, to)
	r.link(to, from)
	return nil
}

func (r *FriendRepository) link(a, b domain.Username) {
	if r.friends[a] == nil {
		r.friends[a] = make(map[domain.Username]struct{})
	}
	r.friends[a][b] = struct{}{}
}

func (r *FriendRepository) Friends(ctx context.Context, username domain.Username) ([]domain.Username, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Username, 0, len(r.friends[username]))
	for f := range r.friends[username] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *FriendRepository) Pending(ctx context.Context, username domain.Username) ([]domain.FriendRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FriendRequest, 0, len(r.pending[username]))
	for _, req := range r.pending[username] {
		out = append(out, req)
	}
	sortRequests(out)
	return out, nil
}

func (r *FriendRepository) allPending() []domain.FriendRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.FriendRequest
	for _, reqs := range r.pending {
		for _, req := range reqs {
			out = append(out, req)
		}
	}
	sortRequests(out)
	return out
}

// pairs lists every friendship once, lower username first.
func (r *FriendRepository) pairs() [][2]domain.Username {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out [][2]domain.Username
	for a, fs := range r.friends {
		for b := range fs {
			if a < b {
				out = append(out, [2]domain.Username{a, b})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] == out[j][0] {
			return out[i][1] < out[j][1]
		}
		return out[i][0] < out[j][0]
	})
	return out
}

func sortRequests(reqs []domain.FriendRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].From < reqs[j].From
		}
		return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
	})
}
