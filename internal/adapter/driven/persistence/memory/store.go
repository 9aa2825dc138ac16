package memory

import (
	"context"
	"fmt"

	"github.com/Wyydra/huddle/internal/core/domain"
)

// Snapshot is the full content of a Store at one point in time.
type Snapshot struct {
	Users          []domain.User          `msgpack:"users"`
	Groups         []domain.Group         `msgpack:"groups"`
	Friendships    [][2]domain.Username   `msgpack:"friendships"`
	FriendRequests []domain.FriendRequest `msgpack:"friendRequests"`
	Messages       []domain.Message       `msgpack:"messages"`
}

// Store groups the in-memory repositories behind one value so they can be
// snapshotted and restored together.
type Store struct {
	Users    *UserRepository
	Groups   *GroupRepository
	Friends  *FriendRepository
	Messages *MessageRepository
}

func NewStore(historyPerChannel int) *Store {
	return &Store{
		Users:    NewUserRepository(),
		Groups:   NewGroupRepository(),
		Friends:  NewFriendRepository(),
		Messages: NewMessageRepository(historyPerChannel),
	}
}

func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Users:          users,
		Groups:         s.Groups.all(),
		Friendships:    s.Friends.pairs(),
		FriendRequests: s.Friends.allPending(),
		Messages:       s.Messages.all(),
	}, nil
}

// Restore loads snap into the store. Records already present are kept;
// conflicting users are skipped.
func (s *Store) Restore(ctx context.Context, snap Snapshot) error {
	for _, u := range snap.Users {
		if _, err := s.Users.Get(ctx, u.Username); err == nil {
			continue
		}
		if err := s.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("restore user %s: %w", u.Username, err)
		}
	}
	for _, g := range snap.Groups {
		if err := s.Groups.Create(ctx, g); err != nil {
			return fmt.Errorf("restore group %s: %w", g.ID, err)
		}
	}

	s.Friends.mu.Lock()
	for _, p := range snap.Friendships {
		s.Friends.link(p[0], p[1])
		s.Friends.link(p[1], p[0])
	}
	for _, req := range snap.FriendRequests {
		if s.Friends.pending[req.To] == nil {
			s.Friends.pending[req.To] = make(map[domain.Username]domain.FriendRequest)
		}
		s.Friends.pending[req.To][req.From] = req
	}
	s.Friends.mu.Unlock()

	for _, m := range snap.Messages {
		if err := s.Messages.Save(ctx, m); err != nil {
			return fmt.Errorf("restore message %s: %w", m.ID, err)
		}
	}
	return nil
}
