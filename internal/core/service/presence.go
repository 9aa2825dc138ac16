package service

import (
	"context"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/port"
	"github.com/Wyydra/huddle/internal/metrics"
)

// PresenceNotifier tells room members about each other. On a join the
// newcomer learns every existing member and every existing member learns the
// newcomer; the existing member is always the one flagged to send the offer.
type PresenceNotifier struct {
	gateway port.RealTimeGateway
	metrics *metrics.Metrics
}

func NewPresenceNotifier(gateway port.RealTimeGateway, m *metrics.Metrics) *PresenceNotifier {
	return &PresenceNotifier{
		gateway: gateway,
		metrics: m,
	}
}

func (p *PresenceNotifier) Joined(ctx context.Context, newcomer domain.Member, existing []domain.Member) {
	for _, m := range existing {
		p.send(ctx, newcomer.Conn, domain.UserJoined{PeerID: m.PeerID, Name: m.Name, Initiator: false})
	}
	for _, m := range existing {
		p.send(ctx, m.Conn, domain.UserJoined{PeerID: newcomer.PeerID, Name: newcomer.Name, Initiator: true})
	}
}

func (p *PresenceNotifier) Left(ctx context.Context, departed domain.Member, remaining []domain.Member) {
	for _, m := range remaining {
		p.send(ctx, m.Conn, domain.UserLeft{PeerID: departed.PeerID})
	}
}

func (p *PresenceNotifier) send(ctx context.Context, conn domain.ConnID, ev domain.Event) {
	if deliver(ctx, p.gateway, p.metrics, conn, ev) {
		p.metrics.Inc(metrics.PresenceSent)
	}
}
