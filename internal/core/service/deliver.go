package service

import (
	"context"
	"errors"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/port"
	"github.com/Wyydra/huddle/internal/metrics"
	"github.com/rs/zerolog/log"
)

// deliver pushes ev to one connection. Failures are per recipient: they are
// logged and counted, never returned to the caller of a broadcast.
func deliver(ctx context.Context, gw port.RealTimeGateway, m *metrics.Metrics, conn domain.ConnID, ev domain.Event) bool {
	err := gw.Deliver(ctx, conn, ev)
	if err == nil {
		return true
	}
	m.Inc(metrics.DropStaleConnection)
	if errors.Is(err, domain.ErrStaleConnection) {
		log.Debug().Str("conn_id", conn.String()).Str("event", string(ev.Kind())).Msg("Dropping event for closed connection")
		return false
	}
	log.Warn().Err(err).Str("conn_id", conn.String()).Str("event", string(ev.Kind())).Msg("Failed to deliver event")
	return false
}
