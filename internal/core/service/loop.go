package service

import (
	"context"
	"errors"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("switchboard stopped")

// Connect registers a freshly accepted connection. It blocks until the loop
// has opened the session.
func (s *Switchboard) Connect(ctx context.Context, conn domain.ConnID) error {
	return send(ctx, s, s.connect, conn)
}

// Disconnect tears the session of conn down. Safe to call more than once.
func (s *Switchboard) Disconnect(ctx context.Context, conn domain.ConnID) error {
	return send(ctx, s, s.disconnect, conn)
}

// Dispatch queues a decoded client command. Commands of one connection are
// applied in the order they are dispatched.
func (s *Switchboard) Dispatch(ctx context.Context, conn domain.ConnID, cmd domain.Command) error {
	return send(ctx, s, s.inbound, inbound{conn: conn, cmd: cmd})
}

// Rooms returns a snapshot of the live rooms.
func (s *Switchboard) Rooms(ctx context.Context) ([]RoomSummary, error) {
	var out []RoomSummary
	err := s.query(ctx, func() { out = s.rooms.Summaries() })
	return out, err
}

// Sessions returns the number of open sessions.
func (s *Switchboard) Sessions(ctx context.Context) (int, error) {
	var n int
	err := s.query(ctx, func() { n = s.sessions.Len() })
	return n, err
}

func (s *Switchboard) query(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if err := send(ctx, s, s.queries, func() { fn(); close(ran) }); err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func send[T any](ctx context.Context, s *Switchboard, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Switchboard) Stop() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
}

// Done is closed once Run has returned.
func (s *Switchboard) Done() <-chan struct{} {
	return s.done
}

// Run applies connects, disconnects and commands one at a time until Stop is
// called or ctx is cancelled. On exit every remaining session is torn down.
func (s *Switchboard) Run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.shutdown(context.WithoutCancel(ctx))
			return

		case <-s.quit:
			s.shutdown(ctx)
			return

		case conn := <-s.connect:
			s.handleConnect(conn)
			log.Debug().Int("count", s.sessions.Len()).Str("conn_id", conn.String()).Msg("Session opened")

		case conn := <-s.disconnect:
			s.handleDisconnect(ctx, conn)

		case in := <-s.inbound:
			s.handle(ctx, in.conn, in.cmd)

		case fn := <-s.queries:
			fn()
		}
	}
}

func (s *Switchboard) shutdown(ctx context.Context) {
	log.Info().Int("count", s.sessions.Len()).Msg("Stopping switchboard. Closing all sessions.")
	conns := make([]domain.ConnID, 0, len(s.sessions.byConn))
	for conn := range s.sessions.byConn {
		conns = append(conns, conn)
	}
	for _, conn := range conns {
		s.handleDisconnect(ctx, conn)
	}
}
