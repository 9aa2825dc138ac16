package domain

import (
	"github.com/google/uuid"
)

// ConnID identifies one live transport connection.
type ConnID string

func NewConnID() ConnID {
	return ConnID(uuid.New().String())
}

func (id ConnID) String() string {
	return string(id)
}

type Username string

func (u Username) String() string {
	return string(u)
}

// PeerID is the client-generated token of one media endpoint.
type PeerID string

func (p PeerID) String() string {
	return string(p)
}

type RoomName string

func (r RoomName) String() string {
	return string(r)
}

type GroupID string

func NewGroupID() GroupID {
	return GroupID(uuid.New().String())
}

func ParseGroupID(s string) (GroupID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return GroupID(id.String()), nil
}

func (id GroupID) String() string {
	return string(id)
}

type MessageID uuid.UUID

func NewMessageID() MessageID {
	return MessageID(uuid.New())
}

func (id MessageID) String() string {
	return uuid.UUID(id).String()
}
