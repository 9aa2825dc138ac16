package domain

// Session is the server-side state of one live connection. It is owned by the
// switchboard and destroyed when the connection goes away.
type Session struct {
	Conn        ConnID
	Username    Username // empty until login
	DisplayName string
	PeerID      PeerID   // empty until join-room
	Room        RoomName // empty while not in a room
}

func (s Session) Authenticated() bool {
	return s.Username != ""
}

// Member is a session's presence inside a room.
type Member struct {
	Conn   ConnID
	PeerID PeerID
	Name   string
}
