package service

import (
	"context"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/port"
	"github.com/Wyydra/huddle/internal/metrics"
)

// Audience lists the connections currently listening on a channel.
type Audience func(ch domain.Channel) []domain.ConnID

// ChannelRelay fans chat messages out to the audience of a channel.
type ChannelRelay struct {
	gateway  port.RealTimeGateway
	metrics  *metrics.Metrics
	audience Audience
}

func NewChannelRelay(gateway port.RealTimeGateway, audience Audience, m *metrics.Metrics) *ChannelRelay {
	return &ChannelRelay{
		gateway:  gateway,
		metrics:  m,
		audience: audience,
	}
}

// Publish delivers msg to every current listener of ch and returns how many
// deliveries succeeded.
func (c *ChannelRelay) Publish(ctx context.Context, ch domain.Channel, msg domain.Message) int {
	ev := domain.ChatDelivered{Message: msg}
	sent := 0
	for _, conn := range c.audience(ch) {
		if deliver(ctx, c.gateway, c.metrics, conn, ev) {
			sent++
		}
	}
	c.metrics.Inc(metrics.MessagesPublished)
	return sent
}

// Subscriptions holds the non-exclusive channel memberships (groups) of live
// connections, in subscription order.
type Subscriptions struct {
	byChannel map[domain.Channel][]domain.ConnID
	byConn    map[domain.ConnID]map[domain.Channel]struct{}
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		byChannel: make(map[domain.Channel][]domain.ConnID),
		byConn:    make(map[domain.ConnID]map[domain.Channel]struct{}),
	}
}

func (s *Subscriptions) Subscribe(ch domain.Channel, conn domain.ConnID) bool {
	if s.Has(ch, conn) {
		return false
	}
	s.byChannel[ch] = append(s.byChannel[ch], conn)
	if s.byConn[conn] == nil {
		s.byConn[conn] = make(map[domain.Channel]struct{})
	}
	s.byConn[conn][ch] = struct{}{}
	return true
}

func (s *Subscriptions) Has(ch domain.Channel, conn domain.ConnID) bool {
	_, ok := s.byConn[conn][ch]
	return ok
}

func (s *Subscriptions) Unsubscribe(ch domain.Channel, conn domain.ConnID) {
	if !s.Has(ch, conn) {
		return
	}
	delete(s.byConn[conn], ch)
	if len(s.byConn[conn]) == 0 {
		delete(s.byConn, conn)
	}
	conns := s.byChannel[ch]
	for i, c := range conns {
		if c == conn {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(s.byChannel, ch)
	} else {
		s.byChannel[ch] = conns
	}
}

func (s *Subscriptions) UnsubscribeAll(conn domain.ConnID) {
	for ch := range s.byConn[conn] {
		s.Unsubscribe(ch, conn)
	}
}

func (s *Subscriptions) Members(ch domain.Channel) []domain.ConnID {
	conns := s.byChannel[ch]
	out := make([]domain.ConnID, len(conns))
	copy(out, conns)
	return out
}
