package domain

import (
	"errors"
	"time"
)

type ChannelKind string

const (
	ChannelRoom  ChannelKind = "room"
	ChannelGroup ChannelKind = "group"
)

// Channel is the single namespace chat messages are published to. Rooms and
// groups only differ in how their audience is computed.
type Channel struct {
	Kind ChannelKind
	Name string
}

func RoomChannel(room RoomName) Channel {
	return Channel{Kind: ChannelRoom, Name: string(room)}
}

func GroupChannel(id GroupID) Channel {
	return Channel{Kind: ChannelGroup, Name: string(id)}
}

func (c Channel) String() string {
	return string(c.Kind) + ":" + c.Name
}

type Message struct {
	ID      MessageID
	Channel Channel
	Sender  Username
	Name    string
	Text    string
	SentAt  time.Time
}

func NewMessage(ch Channel, sender Username, name, text string, at time.Time) (*Message, error) {
	if text == "" {
		return nil, errors.New("message content cannot be empty")
	}
	return &Message{
		ID:      NewMessageID(),
		Channel: ch,
		Sender:  sender,
		Name:    name,
		Text:    text,
		SentAt:  at.UTC(),
	}, nil
}
