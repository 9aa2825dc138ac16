package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/port"
	"golang.org/x/crypto/bcrypt"
)

// AccountService covers the record-store side of the app: accounts, groups
// and friendships. None of it is on the signaling path.
type AccountService struct {
	users    port.UserRepository
	groups   port.GroupRepository
	friends  port.FriendRepository
	hashCost int
	now      func() time.Time
}

func NewAccountService(users port.UserRepository, groups port.GroupRepository, friends port.FriendRepository, hashCost int) *AccountService {
	if hashCost < bcrypt.MinCost {
		hashCost = bcrypt.DefaultCost
	}
	return &AccountService{
		users:    users,
		groups:   groups,
		friends:  friends,
		hashCost: hashCost,
		now:      time.Now,
	}
}

func (s *AccountService) Register(ctx context.Context, cmd domain.Register) (domain.User, error) {
	if err := cmd.Validate(); err != nil {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.hashCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Username:     cmd.Username,
		Name:         cmd.Name,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *AccountService) Login(ctx context.Context, cmd domain.Login) (domain.User, error) {
	u, err := s.users.Get(ctx, cmd.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(cmd.Password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return u, nil
}

// EnsureUser registers the account unless the username is already taken.
func (s *AccountService) EnsureUser(ctx context.Context, cmd domain.Register) error {
	_, err := s.Register(ctx, cmd)
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	return err
}

func (s *AccountService) CreateGroup(ctx context.Context, owner domain.Username, name string) (domain.Group, error) {
	g := domain.Group{
		ID:        domain.NewGroupID(),
		Name:      name,
		Owner:     owner,
		Members:   []domain.Username{owner},
		CreatedAt: s.now().UTC(),
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func (s *AccountService) JoinGroup(ctx context.Context, id domain.GroupID, user domain.Username) (domain.Group, error) {
	return s.groups.AddMember(ctx, id, user)
}

func (s *AccountService) Group(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	return s.groups.Get(ctx, id)
}

func (s *AccountService) Groups(ctx context.Context, user domain.Username) ([]domain.Group, error) {
	return s.groups.ListByMember(ctx, user)
}

func (s *AccountService) SendFriendRequest(ctx context.Context, from, to domain.Username) error {
	if from == to {
		return fmt.Errorf("friend request to self: %w", domain.ErrMalformedMessage)
	}
	if _, err := s.users.Get(ctx, to); err != nil {
		return fmt.Errorf("friend request to %s: %w", to, err)
	}
	return s.friends.Request(ctx, from, to)
}

func (s *AccountService) AcceptFriendRequest(ctx context.Context, me, from domain.Username) error {
	return s.friends.Accept(ctx, from, me)
}

func (s *AccountService) PendingRequests(ctx context.Context, user domain.Username) ([]domain.FriendRequest, error) {
	return s.friends.Pending(ctx, user)
}

// Friends lists accepted friendships; online reports live sessions.
func (s *AccountService) Friends(ctx context.Context, user domain.Username, online func(domain.Username) bool) ([]domain.Friend, error) {
	names, err := s.friends.Friends(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Friend, 0, len(names))
	for _, n := range names {
		f := domain.Friend{Username: n, Name: string(n)}
		if u, err := s.users.Get(ctx, n); err == nil {
			f.Name = u.Name
		}
		if online != nil {
			f.Online = online(n)
		}
		out = append(out, f)
	}
	return out, nil
}
