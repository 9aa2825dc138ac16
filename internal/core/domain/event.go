package domain

type EventKind string

const (
	EventUserJoined         EventKind = "user-joined"
	EventUserLeft           EventKind = "user-left"
	EventChatMessage        EventKind = "chat-message"
	EventGroupMessage       EventKind = "group-message"
	EventAuthSuccess        EventKind = "auth-success"
	EventAuthError          EventKind = "auth-error"
	EventGroupsList         EventKind = "groups-list"
	EventFriendsList        EventKind = "friends-list"
	EventFriendRequestsList EventKind = "friend-requests-list"
	EventChatHistory        EventKind = "chat-history"
	EventError              EventKind = "error"
)

// Event is anything the server pushes to a connection.
type Event interface {
	Kind() EventKind
}

// UserJoined tells a member about another member of its room. Initiator is
// true when the receiver is expected to send the offer.
type UserJoined struct {
	PeerID    PeerID
	Name      string
	Initiator bool
}

func (UserJoined) Kind() EventKind { return EventUserJoined }

type UserLeft struct {
	PeerID PeerID
}

func (UserLeft) Kind() EventKind { return EventUserLeft }

// RelayedSignal is a Signal as delivered to its target: the "to" field is
// dropped, everything else is forwarded untouched.
type RelayedSignal struct {
	Signal SignalKind
	From   string
	Data   Payload
}

func (e RelayedSignal) Kind() EventKind { return EventKind(e.Signal) }

type ChatDelivered struct {
	Message Message
}

func (e ChatDelivered) Kind() EventKind {
	if e.Message.Channel.Kind == ChannelGroup {
		return EventGroupMessage
	}
	return EventChatMessage
}

type AuthSuccess struct {
	Username Username
	Name     string
	Avatar   string
}

func (AuthSuccess) Kind() EventKind { return EventAuthSuccess }

type AuthError struct {
	Message string
}

func (AuthError) Kind() EventKind { return EventAuthError }

type GroupsList struct {
	Groups []Group
}

func (GroupsList) Kind() EventKind { return EventGroupsList }

type FriendsList struct {
	Friends []Friend
}

func (FriendsList) Kind() EventKind { return EventFriendsList }

type FriendRequestsList struct {
	Requests []FriendRequest
}

func (FriendRequestsList) Kind() EventKind { return EventFriendRequestsList }

type ChatHistory struct {
	Channel  Channel
	Messages []Message
}

func (ChatHistory) Kind() EventKind { return EventChatHistory }

type ErrorEvent struct {
	Message string
}

func (ErrorEvent) Kind() EventKind { return EventError }
