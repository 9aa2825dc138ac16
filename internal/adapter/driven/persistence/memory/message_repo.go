package memory

import (
	"context"
	"sync"

	"github.com/Wyydra/huddle/internal/core/domain"
)

// MessageRepository keeps the latest messages of every channel. When
// perChannel is positive, older messages are evicted past that many.
type MessageRepository struct {
	mu         sync.Mutex
	messages   map[domain.Channel][]domain.Message
	perChannel int
}

func NewMessageRepository(perChannel int) *MessageRepository {
	return &MessageRepository{
		messages:   make(map[domain.Channel][]domain.Message),
		perChannel: perChannel,
	}
}

func (r *MessageRepository) Save(ctx context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := append(r.messages[msg.Channel], msg)
	if r.perChannel > 0 && len(msgs) > r.perChannel {
		msgs = append([]domain.Message(nil), msgs[len(msgs)-r.perChannel:]...)
	}
	r.messages[msg.Channel] = msgs
	return nil
}

func (r *MessageRepository) History(ctx context.Context, ch domain.Channel, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[ch]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (r *MessageRepository) all() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, msgs := range r.messages {
		out = append(out, msgs...)
	}
	return out
}
