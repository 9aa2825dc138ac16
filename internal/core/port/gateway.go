package port

import (
	"context"

	"github.com/Wyydra/huddle/internal/core/domain"
)

type RealTimeGateway interface {
	Deliver(ctx context.Context, conn domain.ConnID, ev domain.Event) error
}
