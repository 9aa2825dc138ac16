package service

import (
	"context"
	"errors"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/port"
	"github.com/Wyydra/huddle/internal/metrics"
	"github.com/rs/zerolog/log"
)

const defaultMemberName = "Participant"

// Switchboard owns every piece of shared signaling state and applies client
// commands to it. Its handle* methods are only called from the Run loop.
type Switchboard struct {
	sessions  *SessionStore
	rooms     *RoomRegistry
	subs      *Subscriptions
	presence  *PresenceNotifier
	signaling *SignalingRelay
	chat      *ChatService
	accounts  *AccountService
	gateway   port.RealTimeGateway
	metrics   *metrics.Metrics

	connect    chan domain.ConnID
	disconnect chan domain.ConnID
	inbound    chan inbound
	queries    chan func()
	quit       chan struct{}
	done       chan struct{}
}

type inbound struct {
	conn domain.ConnID
	cmd  domain.Command
}

func NewSwitchboard(gateway port.RealTimeGateway, messages port.MessageRepository, accounts *AccountService, m *metrics.Metrics) *Switchboard {
	s := &Switchboard{
		sessions: NewSessionStore(),
		rooms:    NewRoomRegistry(),
		subs:     NewSubscriptions(),
		accounts: accounts,
		gateway:  gateway,
		metrics:  m,

		connect:    make(chan domain.ConnID),
		disconnect: make(chan domain.ConnID),
		inbound:    make(chan inbound),
		queries:    make(chan func()),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	s.presence = NewPresenceNotifier(gateway, m)
	s.signaling = NewSignalingRelay(s.sessions, s.rooms, gateway, m)
	s.chat = NewChatService(messages, NewChannelRelay(gateway, s.audience, m))
	return s
}

func (s *Switchboard) audience(ch domain.Channel) []domain.ConnID {
	if ch.Kind == domain.ChannelRoom {
		members := s.rooms.MembersOf(domain.RoomName(ch.Name))
		out := make([]domain.ConnID, 0, len(members))
		for _, m := range members {
			out = append(out, m.Conn)
		}
		return out
	}
	return s.subs.Members(ch)
}

func (s *Switchboard) listening(ch domain.Channel, conn domain.ConnID) bool {
	if ch.Kind == domain.ChannelRoom {
		room, ok := s.rooms.RoomOf(conn)
		return ok && string(room) == ch.Name
	}
	return s.subs.Has(ch, conn)
}

func (s *Switchboard) handleConnect(conn domain.ConnID) {
	s.sessions.Open(conn)
	s.metrics.Inc(metrics.SessionsOpened)
}

// handleDisconnect tears a session down in one go: identity, room membership,
// user-left to the room, negotiations and subscriptions.
func (s *Switchboard) handleDisconnect(ctx context.Context, conn domain.ConnID) {
	sess, ok := s.sessions.Forget(conn)
	if !ok {
		return
	}
	if room, ok := s.rooms.RoomOf(conn); ok {
		if dep, ok := s.rooms.Leave(room, conn); ok {
			s.presence.Left(ctx, dep.Member, dep.Remaining)
		}
	}
	s.signaling.ClosePeer(conn)
	s.subs.UnsubscribeAll(conn)
	s.metrics.Inc(metrics.SessionsClosed)

	log.Debug().Str("conn_id", conn.String()).Str("username", sess.Username.String()).Str("room", sess.Room.String()).Msg("Session closed")
}

func (s *Switchboard) handle(ctx context.Context, conn domain.ConnID, cmd domain.Command) {
	l := log.With().Str("conn_id", conn.String()).Logger()

	if err := cmd.Validate(); err != nil {
		s.metrics.Inc(metrics.DropMalformed)
		l.Debug().Err(err).Msg("Dropping malformed message")
		return
	}
	sess, ok := s.sessions.Lookup(conn)
	if !ok {
		l.Debug().Msg("Dropping message from unknown connection")
		return
	}

	switch c := cmd.(type) {
	case domain.JoinRoom:
		s.joinRoom(ctx, sess, c)
	case domain.LeaveRoom:
		s.leaveRoom(ctx, sess, c.Room)
	case domain.Signal:
		if err := s.signaling.Relay(ctx, conn, c); err != nil {
			l.Debug().Err(err).Msg("Signal dropped")
		}
	case domain.ChatMessage:
		s.publish(ctx, sess, domain.RoomChannel(c.Room), c.Name, c.Text)
	case domain.GroupMessage:
		s.publish(ctx, sess, domain.GroupChannel(c.GroupID), c.Name, c.Text)
	case domain.Login:
		s.login(ctx, sess, c)
	case domain.Register:
		s.register(ctx, sess, c)
	case domain.GetHistory:
		s.history(ctx, sess, c)
	default:
		s.handleSocial(ctx, sess, cmd)
	}
}

func (s *Switchboard) joinRoom(ctx context.Context, sess *domain.Session, c domain.JoinRoom) {
	l := log.With().Str("conn_id", sess.Conn.String()).Str("room", c.Room.String()).Str("peer_id", c.PeerID.String()).Logger()

	name := c.Name
	if name == "" {
		name = sess.DisplayName
	}
	if name == "" {
		name = defaultMemberName
	}

	if err := s.sessions.BindPeer(sess.Conn, c.PeerID, name); err != nil {
		s.metrics.Inc(metrics.DropDuplicateJoin)
		l.Warn().Err(err).Msg("Join rejected")
		return
	}

	member := domain.Member{Conn: sess.Conn, PeerID: c.PeerID, Name: name}
	res := s.rooms.Join(c.Room, member)
	if res.Duplicate {
		s.metrics.Inc(metrics.DropDuplicateJoin)
		l.Debug().Msg("Duplicate join ignored")
		return
	}
	if dep := res.Previous; dep != nil {
		s.presence.Left(ctx, dep.Member, dep.Remaining)
		s.signaling.ClosePeer(sess.Conn)
	}

	s.sessions.SetRoom(sess.Conn, c.Room)
	for _, m := range res.Existing {
		s.signaling.Designate(m.Conn, sess.Conn)
	}
	s.presence.Joined(ctx, member, res.Existing)

	l.Info().Int("members", len(res.Existing)+1).Msg("Joined room")
}

func (s *Switchboard) leaveRoom(ctx context.Context, sess *domain.Session, room domain.RoomName) {
	dep, ok := s.rooms.Leave(room, sess.Conn)
	if !ok {
		return
	}
	s.sessions.SetRoom(sess.Conn, "")
	s.signaling.ClosePeer(sess.Conn)
	s.presence.Left(ctx, dep.Member, dep.Remaining)

	log.Info().Str("conn_id", sess.Conn.String()).Str("room", room.String()).Msg("Left room")
}

func (s *Switchboard) publish(ctx context.Context, sess *domain.Session, ch domain.Channel, name, text string) {
	if !s.listening(ch, sess.Conn) {
		s.metrics.Inc(metrics.DropNotMember)
		log.Debug().Str("conn_id", sess.Conn.String()).Str("channel", ch.String()).Msg("Dropping message for channel the sender is not in")
		return
	}
	if name == "" {
		name = sess.DisplayName
	}
	if _, err := s.chat.SendMessage(ctx, ch, sess.Username, name, text); err != nil {
		log.Error().Err(err).Str("channel", ch.String()).Msg("Failed to process message")
	}
}

func (s *Switchboard) history(ctx context.Context, sess *domain.Session, c domain.GetHistory) {
	ch := c.Channel()
	if !s.listening(ch, sess.Conn) {
		s.reply(ctx, sess.Conn, domain.ErrorEvent{Message: domain.ErrNotMember.Error()})
		return
	}
	msgs, err := s.chat.History(ctx, ch, c.Limit)
	if err != nil {
		log.Error().Err(err).Str("channel", ch.String()).Msg("Failed to load history")
		s.reply(ctx, sess.Conn, domain.ErrorEvent{Message: "history unavailable"})
		return
	}
	s.reply(ctx, sess.Conn, domain.ChatHistory{Channel: ch, Messages: msgs})
}

func (s *Switchboard) login(ctx context.Context, sess *domain.Session, c domain.Login) {
	u, err := s.accounts.Login(ctx, c)
	if err != nil {
		s.authFailed(ctx, sess.Conn, err)
		return
	}
	s.authenticate(ctx, sess, u)
}

func (s *Switchboard) register(ctx context.Context, sess *domain.Session, c domain.Register) {
	u, err := s.accounts.Register(ctx, c)
	if err != nil {
		s.authFailed(ctx, sess.Conn, err)
		return
	}
	s.authenticate(ctx, sess, u)
}

func (s *Switchboard) authFailed(ctx context.Context, conn domain.ConnID, err error) {
	msg := "authentication failed"
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUserExists):
		msg = err.Error()
	default:
		log.Error().Err(err).Str("conn_id", conn.String()).Msg("Authentication error")
	}
	s.reply(ctx, conn, domain.AuthError{Message: msg})
}

func (s *Switchboard) authenticate(ctx context.Context, sess *domain.Session, u domain.User) {
	if prev, ok := s.sessions.Resolve(u.Username); ok && prev != sess.Conn {
		s.subs.UnsubscribeAll(prev)
	}
	if sess.Username != "" && sess.Username != u.Username {
		s.subs.UnsubscribeAll(sess.Conn)
	}
	s.sessions.Register(u.Username, u.Name, sess.Conn)

	groups, err := s.accounts.Groups(ctx, u.Username)
	if err != nil {
		log.Error().Err(err).Str("username", u.Username.String()).Msg("Failed to load groups")
	}
	for _, g := range groups {
		s.subs.Subscribe(domain.GroupChannel(g.ID), sess.Conn)
	}

	s.reply(ctx, sess.Conn, domain.AuthSuccess{Username: u.Username, Name: u.Name, Avatar: u.Avatar})
	log.Info().Str("conn_id", sess.Conn.String()).Str("username", u.Username.String()).Msg("Logged in")
}

func (s *Switchboard) reply(ctx context.Context, conn domain.ConnID, ev domain.Event) {
	deliver(ctx, s.gateway, s.metrics, conn, ev)
}
