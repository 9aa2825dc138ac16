package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Wyydra/huddle/internal/adapter/driven/persistence/memory"
	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/metrics"
	"golang.org/x/crypto/bcrypt"
)

// recorder is a gateway that keeps every delivered event per connection.
type recorder struct {
	mu     sync.Mutex
	events map[domain.ConnID][]domain.Event
	closed map[domain.ConnID]bool
}

func newRecorder() *recorder {
	return &recorder{
		events: make(map[domain.ConnID][]domain.Event),
		closed: make(map[domain.ConnID]bool),
	}
}

func (r *recorder) Deliver(ctx context.Context, conn domain.ConnID, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed[conn] {
		return domain.ErrStaleConnection
	}
	r.events[conn] = append(r.events[conn], ev)
	return nil
}

func (r *recorder) close(conn domain.ConnID) {
	r.mu.Lock()
	r.closed[conn] = true
	r.mu.Unlock()
}

// take returns and clears the events delivered to conn.
func (r *recorder) take(conn domain.ConnID) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.events[conn]
	delete(r.events, conn)
	return evs
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = make(map[domain.ConnID][]domain.Event)
	r.mu.Unlock()
}

type fixture struct {
	sb      *Switchboard
	gw      *recorder
	store   *memory.Store
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(0)
	accounts := NewAccountService(store.Users, store.Groups, store.Friends, bcrypt.MinCost)
	for _, u := range []domain.Register{
		{Name: "Alice", Username: "alice", Password: "secret"},
		{Name: "Bob", Username: "bob", Password: "secret"},
		{Name: "Carol", Username: "carol", Password: "secret"},
	} {
		if err := accounts.EnsureUser(context.Background(), u); err != nil {
			t.Fatal(err)
		}
	}
	gw := newRecorder()
	m := metrics.New()
	return &fixture{
		sb:      NewSwitchboard(gw, store.Messages, accounts, m),
		gw:      gw,
		store:   store,
		metrics: m,
	}
}

func (f *fixture) connect(id string) domain.ConnID {
	conn := domain.ConnID(id)
	f.sb.handleConnect(conn)
	return conn
}

func (f *fixture) do(conn domain.ConnID, cmd domain.Command) {
	f.sb.handle(context.Background(), conn, cmd)
}

func (f *fixture) join(conn domain.ConnID, room, peer, name string) {
	f.do(conn, domain.JoinRoom{Room: domain.RoomName(room), PeerID: domain.PeerID(peer), Name: name})
}

func (f *fixture) login(t *testing.T, conn domain.ConnID, user string) {
	t.Helper()
	f.do(conn, domain.Login{Username: domain.Username(user), Password: "secret"})
	evs := f.gw.take(conn)
	if len(evs) != 1 {
		t.Fatalf("login %s: got %d events, want 1", user, len(evs))
	}
	if _, ok := evs[0].(domain.AuthSuccess); !ok {
		t.Fatalf("login %s: got %#v, want AuthSuccess", user, evs[0])
	}
}
