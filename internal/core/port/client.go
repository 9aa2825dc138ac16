package port

import "github.com/Wyydra/huddle/internal/core/domain"

// Connection is the transport endpoint of one session. Send must not block:
// it either queues the event or fails with domain.ErrStaleConnection.
type Connection interface {
	ID() domain.ConnID
	Send(ev domain.Event) error
	Close() error
}
