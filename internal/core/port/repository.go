package port

import (
	"context"

	"github.com/Wyydra/huddle/internal/core/domain"
)

type MessageRepository interface {
	Save(ctx context.Context, msg domain.Message) error
	// History returns up to limit of the newest messages, oldest first.
	History(ctx context.Context, ch domain.Channel, limit int) ([]domain.Message, error)
}

type UserRepository interface {
	Create(ctx context.Context, u domain.User) error
	Get(ctx context.Context, username domain.Username) (domain.User, error)
}

type GroupRepository interface {
	Create(ctx context.Context, g domain.Group) error
	Get(ctx context.Context, id domain.GroupID) (domain.Group, error)
	AddMember(ctx context.Context, id domain.GroupID, username domain.Username) (domain.Group, error)
	ListByMember(ctx context.Context, username domain.Username) ([]domain.Group, error)
}

type FriendRepository interface {
	Request(ctx context.Context, from, to domain.Username) error
	Accept(ctx context.Context, from, to domain.Username) error
	Friends(ctx context.Context, username domain.Username) ([]domain.Username, error)
	// Pending lists requests addressed to username.
	Pending(ctx context.Context, username domain.Username) ([]domain.FriendRequest, error)
}
