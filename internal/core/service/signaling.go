package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/port"
	"github.com/Wyydra/huddle/internal/metrics"
)

type pairKey struct {
	a, b domain.ConnID
}

func newPairKey(x, y domain.ConnID) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// SignalingRelay forwards offers, answers and ICE candidates between two
// sessions of the same room. Payloads are never inspected. Undeliverable
// signals are dropped: Relay reports why, but nothing reaches the sender.
type SignalingRelay struct {
	sessions *SessionStore
	rooms    *RoomRegistry
	gateway  port.RealTimeGateway
	metrics  *metrics.Metrics

	pairs map[pairKey]*domain.Negotiation
}

func NewSignalingRelay(sessions *SessionStore, rooms *RoomRegistry, gateway port.RealTimeGateway, m *metrics.Metrics) *SignalingRelay {
	return &SignalingRelay{
		sessions: sessions,
		rooms:    rooms,
		gateway:  gateway,
		metrics:  m,
		pairs:    make(map[pairKey]*domain.Negotiation),
	}
}

// Designate records which side of a pair sends the offer. It resets any
// previous negotiation of the pair.
func (r *SignalingRelay) Designate(initiator, responder domain.ConnID) {
	r.pairs[newPairKey(initiator, responder)] = domain.NewNegotiation(initiator, responder)
}

func (r *SignalingRelay) Relay(ctx context.Context, from domain.ConnID, sig domain.Signal) error {
	if err := sig.Validate(); err != nil {
		r.metrics.Inc(metrics.DropMalformed)
		return err
	}

	target, ok := r.sessions.ResolveTarget(sig.To, func(conn domain.ConnID) bool {
		return r.sameRoom(from, conn)
	})
	if !ok {
		r.metrics.Inc(metrics.DropUnknownTarget)
		return fmt.Errorf("%s to %q: %w", sig.Kind, sig.To, domain.ErrUnknownTarget)
	}
	if target == from {
		r.metrics.Inc(metrics.DropMalformed)
		return fmt.Errorf("%w: %s addressed to its sender", domain.ErrMalformedMessage, sig.Kind)
	}

	senderRoom, ok := r.rooms.RoomOf(from)
	if !ok {
		r.metrics.Inc(metrics.DropNotInSameRoom)
		return fmt.Errorf("%s from connection outside any room: %w", sig.Kind, domain.ErrNotMember)
	}
	if targetRoom, ok := r.rooms.RoomOf(target); !ok || targetRoom != senderRoom {
		r.metrics.Inc(metrics.DropNotInSameRoom)
		return fmt.Errorf("%s to %q outside room %s: %w", sig.Kind, sig.To, senderRoom, domain.ErrNotMember)
	}

	n := r.negotiation(from, target)
	if err := n.Apply(from, sig.Kind); err != nil {
		if errors.Is(err, domain.ErrGlare) {
			r.metrics.Inc(metrics.DropGlare)
		}
		return fmt.Errorf("%s to %q: %w", sig.Kind, sig.To, err)
	}

	ev := domain.RelayedSignal{Signal: sig.Kind, From: sig.From, Data: sig.Payload}
	if !deliver(ctx, r.gateway, r.metrics, target, ev) {
		return fmt.Errorf("%s to %q: %w", sig.Kind, sig.To, domain.ErrStaleConnection)
	}
	r.metrics.Inc(metrics.SignalsRelayed)
	return nil
}

// negotiation returns the state of the pair, creating it on first use. Pairs
// that never went through a join (no designation) use the lower peer id as
// initiator.
func (r *SignalingRelay) negotiation(x, y domain.ConnID) *domain.Negotiation {
	key := newPairKey(x, y)
	if n, ok := r.pairs[key]; ok {
		return n
	}
	initiator, responder := x, y
	if r.peerOf(y) < r.peerOf(x) {
		initiator, responder = y, x
	}
	n := domain.NewNegotiation(initiator, responder)
	r.pairs[key] = n
	return n
}

func (r *SignalingRelay) sameRoom(x, y domain.ConnID) bool {
	rx, ok := r.rooms.RoomOf(x)
	if !ok {
		return false
	}
	ry, ok := r.rooms.RoomOf(y)
	return ok && rx == ry
}

func (r *SignalingRelay) peerOf(conn domain.ConnID) domain.PeerID {
	if sess, ok := r.sessions.Lookup(conn); ok {
		return sess.PeerID
	}
	return ""
}

// ClosePeer ends every negotiation conn takes part in.
func (r *SignalingRelay) ClosePeer(conn domain.ConnID) {
	for key, n := range r.pairs {
		if n.Involves(conn) {
			n.Close()
			delete(r.pairs, key)
		}
	}
}

func (r *SignalingRelay) Negotiation(x, y domain.ConnID) (domain.Negotiation, bool) {
	n, ok := r.pairs[newPairKey(x, y)]
	if !ok {
		return domain.Negotiation{}, false
	}
	return *n, true
}
