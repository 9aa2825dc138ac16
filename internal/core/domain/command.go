package domain

// Command is a decoded client request. Validate reports ErrMalformedMessage
// when a required field is missing.
type Command interface {
	Validate() error
}

type JoinRoom struct {
	Room   RoomName
	PeerID PeerID
	Name   string
}

func (c JoinRoom) Validate() error {
	if c.Room == "" {
		return malformed("join-room without room")
	}
	if c.PeerID == "" {
		return malformed("join-room without peerId")
	}
	return nil
}

type LeaveRoom struct {
	Room RoomName
}

func (c LeaveRoom) Validate() error {
	if c.Room == "" {
		return malformed("leave-room without room")
	}
	return nil
}

type ChatMessage struct {
	Room RoomName
	Name string
	Text string
}

func (c ChatMessage) Validate() error {
	if c.Room == "" {
		return malformed("chat-message without room")
	}
	if c.Text == "" {
		return malformed("chat-message without text")
	}
	return nil
}

type GroupMessage struct {
	GroupID GroupID
	Name    string
	Text    string
}

func (c GroupMessage) Validate() error {
	if c.GroupID == "" {
		return malformed("group-message without groupId")
	}
	if c.Text == "" {
		return malformed("group-message without text")
	}
	return nil
}

type Login struct {
	Username Username
	Password string
}

func (c Login) Validate() error {
	if c.Username == "" || c.Password == "" {
		return malformed("login without credentials")
	}
	return nil
}

type Register struct {
	Name     string
	Username Username
	Password string
}

func (c Register) Validate() error {
	if c.Name == "" || c.Username == "" || c.Password == "" {
		return malformed("register with missing fields")
	}
	return nil
}

type GetGroups struct{}

func (GetGroups) Validate() error { return nil }

type CreateGroup struct {
	Name string
}

func (c CreateGroup) Validate() error {
	if c.Name == "" {
		return malformed("create-group without name")
	}
	return nil
}

type JoinGroup struct {
	GroupID GroupID
}

func (c JoinGroup) Validate() error {
	if c.GroupID == "" {
		return malformed("join-group without groupId")
	}
	return nil
}

type GetFriends struct{}

func (GetFriends) Validate() error { return nil }

type GetFriendRequests struct{}

func (GetFriendRequests) Validate() error { return nil }

type SendFriendRequest struct {
	Username Username
}

func (c SendFriendRequest) Validate() error {
	if c.Username == "" {
		return malformed("send-friend-request without username")
	}
	return nil
}

type AcceptFriendRequest struct {
	Username Username
}

func (c AcceptFriendRequest) Validate() error {
	if c.Username == "" {
		return malformed("accept-friend-request without username")
	}
	return nil
}

// GetHistory asks for the latest messages of exactly one channel.
type GetHistory struct {
	Room    RoomName
	GroupID GroupID
	Limit   int
}

func (c GetHistory) Validate() error {
	if (c.Room == "") == (c.GroupID == "") {
		return malformed("get-history needs exactly one of room or groupId")
	}
	return nil
}

func (c GetHistory) Channel() Channel {
	if c.Room != "" {
		return RoomChannel(c.Room)
	}
	return GroupChannel(c.GroupID)
}
