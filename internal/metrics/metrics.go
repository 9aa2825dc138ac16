package metrics

import "sync"

// Event names. Drops are counted per reason so a silent drop still leaves a
// trace.
const (
	SignalsRelayed    = "signals_relayed"
	MessagesPublished = "messages_published"
	PresenceSent      = "presence_events_sent"
	SessionsOpened    = "sessions_opened"
	SessionsClosed    = "sessions_closed"

	DropUnknownTarget   = "drop_unknown_target"
	DropNotInSameRoom   = "drop_not_in_same_room"
	DropMalformed       = "drop_malformed"
	DropStaleConnection = "drop_stale_connection"
	DropDuplicateJoin   = "drop_duplicate_join"
	DropGlare           = "drop_glare"
	DropNotMember       = "drop_not_member"
	DropRateLimited     = "drop_rate_limited"
)

// Metrics is a concurrency-safe counter registry.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

// Inc is safe on a nil receiver so components can run without metrics.
func (m *Metrics) Inc(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
