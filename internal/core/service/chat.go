package service

import (
	"context"
	"time"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/port"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// ChatService records chat messages and hands them to the channel relay.
type ChatService struct {
	repo  port.MessageRepository
	relay *ChannelRelay
	now   func() time.Time
}

func NewChatService(repo port.MessageRepository, relay *ChannelRelay) *ChatService {
	return &ChatService{
		repo:  repo,
		relay: relay,
		now:   time.Now,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, ch domain.Channel, sender domain.Username, name, text string) (*domain.Message, error) {
	msg, err := domain.NewMessage(ch, sender, name, text, s.now())
	if err != nil {
		return nil, err
	}

	// history is a side channel; a failed write must not stop the relay
	if err := s.repo.Save(ctx, *msg); err != nil {
		log.Warn().Err(err).Str("channel", ch.String()).Msg("Failed to store message")
	}
	s.relay.Publish(ctx, ch, *msg)
	return msg, nil
}

func (s *ChatService) History(ctx context.Context, ch domain.Channel, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.repo.History(ctx, ch, limit)
}
