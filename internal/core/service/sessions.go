package service

import (
	"fmt"

	"github.com/Wyydra/huddle/internal/core/domain"
)

// SessionStore maps connections to sessions and usernames/peer ids back to
// connections. It is not safe for concurrent use; the switchboard loop is its
// only caller.
type SessionStore struct {
	byConn map[domain.ConnID]*domain.Session
	byUser map[domain.Username]domain.ConnID
	byPeer map[domain.PeerID]domain.ConnID
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byConn: make(map[domain.ConnID]*domain.Session),
		byUser: make(map[domain.Username]domain.ConnID),
		byPeer: make(map[domain.PeerID]domain.ConnID),
	}
}

// Open creates the anonymous session of a freshly accepted connection.
func (s *SessionStore) Open(conn domain.ConnID) *domain.Session {
	if sess, ok := s.byConn[conn]; ok {
		return sess
	}
	sess := &domain.Session{Conn: conn}
	s.byConn[conn] = sess
	return sess
}

// Register binds username to conn. A previous connection holding the same
// username silently loses the mapping (last login wins).
func (s *SessionStore) Register(username domain.Username, displayName string, conn domain.ConnID) *domain.Session {
	sess := s.Open(conn)

	if prev, ok := s.byUser[username]; ok && prev != conn {
		if old, ok := s.byConn[prev]; ok {
			old.Username = ""
		}
	}
	if sess.Username != "" && sess.Username != username {
		delete(s.byUser, sess.Username)
	}

	sess.Username = username
	sess.DisplayName = displayName
	s.byUser[username] = conn
	return sess
}

func (s *SessionStore) Resolve(username domain.Username) (domain.ConnID, bool) {
	conn, ok := s.byUser[username]
	return conn, ok
}

func (s *SessionStore) ResolvePeer(peerID domain.PeerID) (domain.ConnID, bool) {
	conn, ok := s.byPeer[peerID]
	return conn, ok
}

// ResolveTarget resolves the "to" field of a signal: a username first, then a
// peer id. When to names one session as a username and another as a peer id,
// the one accepted by prefer wins.
func (s *SessionStore) ResolveTarget(to string, prefer func(domain.ConnID) bool) (domain.ConnID, bool) {
	byUser, userOK := s.Resolve(domain.Username(to))
	byPeer, peerOK := s.ResolvePeer(domain.PeerID(to))
	switch {
	case userOK && peerOK && byUser != byPeer && prefer != nil && !prefer(byUser) && prefer(byPeer):
		return byPeer, true
	case userOK:
		return byUser, true
	default:
		return byPeer, peerOK
	}
}

// BindPeer gives conn the peer id. The session's previous peer id, if any, is
// released.
func (s *SessionStore) BindPeer(conn domain.ConnID, peerID domain.PeerID, name string) error {
	sess, ok := s.byConn[conn]
	if !ok {
		return fmt.Errorf("bind peer %s: %w", peerID, domain.ErrStaleConnection)
	}
	if holder, ok := s.byPeer[peerID]; ok && holder != conn {
		return fmt.Errorf("bind peer %s: %w", peerID, domain.ErrPeerIDTaken)
	}
	if sess.PeerID != "" && sess.PeerID != peerID {
		delete(s.byPeer, sess.PeerID)
	}
	sess.PeerID = peerID
	if name != "" {
		sess.DisplayName = name
	}
	s.byPeer[peerID] = conn
	return nil
}

func (s *SessionStore) SetRoom(conn domain.ConnID, room domain.RoomName) {
	if sess, ok := s.byConn[conn]; ok {
		sess.Room = room
	}
}

func (s *SessionStore) Lookup(conn domain.ConnID) (*domain.Session, bool) {
	sess, ok := s.byConn[conn]
	return sess, ok
}

// Forget drops every mapping of conn and returns the removed session. Calling
// it again for the same connection is a no-op.
func (s *SessionStore) Forget(conn domain.ConnID) (domain.Session, bool) {
	sess, ok := s.byConn[conn]
	if !ok {
		return domain.Session{}, false
	}
	delete(s.byConn, conn)
	if sess.Username != "" && s.byUser[sess.Username] == conn {
		delete(s.byUser, sess.Username)
	}
	if sess.PeerID != "" && s.byPeer[sess.PeerID] == conn {
		delete(s.byPeer, sess.PeerID)
	}
	return *sess, true
}

func (s *SessionStore) Online(username domain.Username) bool {
	_, ok := s.byUser[username]
	return ok
}

func (s *SessionStore) Len() int {
	return len(s.byConn)
}
