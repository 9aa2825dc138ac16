package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Wyydra/huddle/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/huddle/internal/adapter/driven/persistence/memory"
	"github.com/Wyydra/huddle/internal/config"
	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/service"
	"github.com/Wyydra/huddle/internal/metrics"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	srv *httptest.Server
	sb  *service.Switchboard
	m   *metrics.Metrics
}

func newTestServer(t *testing.T, wsOpts WSOptions) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	store := memory.NewStore(0)
	accounts := service.NewAccountService(store.Users, store.Groups, store.Friends, bcrypt.MinCost)
	if err := accounts.EnsureUser(ctx, domain.Register{Name: "Test", Username: "test", Password: "123"}); err != nil {
		t.Fatal(err)
	}
	hub := ws.NewHub()
	m := metrics.New()
	sb := service.NewSwitchboard(hub, store.Messages, accounts, m)
	go sb.Run(ctx)

	h := NewHandler(sb, hub, m, Options{ICEServers: config.DefaultICEServers(), WS: wsOpts})
	srv := httptest.NewServer(h.NewRouter())

	t.Cleanup(func() {
		hub.CloseAll()
		cancel()
		<-sb.Done()
		srv.Close()
	})
	return &testServer{srv: srv, sb: sb, m: m}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame := map[string]any{"event": event}
	if data != nil {
		frame["data"] = data
	}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func sendRaw(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return frame
}

func readEvent(t *testing.T, conn *websocket.Conn, wantEvent string, data any) {
	t.Helper()
	var env envelope
	frame := readFrame(t, conn)
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("decode %s: %v", frame, err)
	}
	if env.Event != wantEvent {
		t.Fatalf("got event %q (%s), want %q", env.Event, frame, wantEvent)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
}

// joinAndSync joins a room and waits until the server has applied the join.
func joinAndSync(t *testing.T, conn *websocket.Conn, room, peer, name string) {
	t.Helper()
	send(t, conn, "join-room", map[string]string{"room": room, "peerId": peer, "name": name})
	send(t, conn, "get-history", map[string]string{"room": room})
}

func TestSignalingOverWebSocket(t *testing.T) {
	s := newTestServer(t, DefaultWSOptions())
	a := s.dial(t)
	b := s.dial(t)

	sendRaw(t, a, "not json")
	joinAndSync(t, a, "r", "p1", "A")
	readEvent(t, a, "chat-history", nil)

	joinAndSync(t, b, "r", "p2", "B")

	var joined userJoinedDTO
	readEvent(t, a, "user-joined", &joined)
	if joined != (userJoinedDTO{PeerID: "p2", Name: "B", Initiator: true}) {
		t.Errorf("A got %+v", joined)
	}
	readEvent(t, b, "user-joined", &joined)
	if joined != (userJoinedDTO{PeerID: "p1", Name: "A", Initiator: false}) {
		t.Errorf("B got %+v", joined)
	}
	readEvent(t, b, "chat-history", nil)

	offer := `{"type": "offer",  "sdp": "v=0\r\no=- 46117317 2 IN IP4 127.0.0.1\r\n"}`
	sendRaw(t, a, `{"event":"webrtc-offer","data":{"to":"p2","from":"p1","offer":`+offer+`}}`)

	got := string(readFrame(t, b))
	want := `{"event":"webrtc-offer","data":{"from":"p1","offer":` + offer + `}}`
	if got != want {
		t.Errorf("B got  %s\nwant %s", got, want)
	}

	send(t, b, "chat-message", map[string]string{"room": "r", "name": "B", "text": "hi"})
	var msg messageDTO
	readEvent(t, a, "chat-message", &msg)
	if msg.Name != "B" || msg.Text != "hi" || msg.Room != "r" || msg.Timestamp == "" {
		t.Errorf("A got %+v", msg)
	}
	readEvent(t, b, "chat-message", nil)

	b.Close()
	var left userLeftDTO
	readEvent(t, a, "user-left", &left)
	if left.PeerID != "p2" {
		t.Errorf("user-left peer = %q", left.PeerID)
	}

	if got := s.m.Get(metrics.DropMalformed); got != 1 {
		t.Errorf("malformed counter = %d, want 1", got)
	}
}

func TestLoginOverWebSocket(t *testing.T) {
	s := newTestServer(t, DefaultWSOptions())
	c := s.dial(t)

	send(t, c, "login", map[string]string{"username": "test", "password": "nope"})
	var authErr messageOnlyDTO
	readEvent(t, c, "auth-error", &authErr)
	if authErr.Message == "" {
		t.Error("auth-error without message")
	}

	send(t, c, "login", map[string]string{"username": "test", "password": "123"})
	var ok authSuccessDTO
	readEvent(t, c, "auth-success", &ok)
	if ok.Username != "test" || ok.Name != "Test" {
		t.Errorf("auth-success = %+v", ok)
	}

	send(t, c, "create-group", map[string]string{"name": "team"})
	var groups struct {
		Groups []groupDTO `json:"groups"`
	}
	readEvent(t, c, "groups-list", &groups)
	if len(groups.Groups) != 1 || groups.Groups[0].Name != "team" {
		t.Fatalf("groups = %+v", groups)
	}

	send(t, c, "group-message", map[string]string{"groupId": groups.Groups[0].ID, "text": "hello"})
	var msg messageDTO
	readEvent(t, c, "group-message", &msg)
	if msg.GroupID != groups.Groups[0].ID || msg.Username != "test" || msg.Name != "Test" {
		t.Errorf("group message = %+v", msg)
	}
}

func TestRateLimitClosesConnection(t *testing.T) {
	opts := DefaultWSOptions()
	opts.MessagesPerSecond = 0.001
	opts.MessageBurst = 1
	s := newTestServer(t, opts)
	c := s.dial(t)

	send(t, c, "get-groups", nil)
	var e messageOnlyDTO
	readEvent(t, c, "error", &e)

	send(t, c, "get-groups", nil)
	c.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := c.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("read error = %v, want policy violation close", err)
	}
	if got := s.m.Get(metrics.DropRateLimited); got != 1 {
		t.Errorf("rate limited counter = %d", got)
	}
}

func TestOversizedFrameClosesConnection(t *testing.T) {
	opts := DefaultWSOptions()
	opts.MaxMessageBytes = 128
	s := newTestServer(t, opts)
	c := s.dial(t)

	sendRaw(t, c, `{"event":"chat-message","data":{"room":"r","text":"`+strings.Repeat("x", 512)+`"}}`)
	c.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := c.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseMessageTooBig) {
		t.Fatalf("read error = %v, want message too big close", err)
	}
}

func TestHTTPEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultWSOptions())

	get := func(path string, v any) {
		t.Helper()
		resp, err := http.Get(s.srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, resp.StatusCode)
		}
		if v != nil {
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				t.Fatalf("GET %s decode: %v", path, err)
			}
		}
	}

	var health map[string]string
	get("/health", &health)
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}

	var ice struct {
		ICEServers []struct {
			URLs []string `json:"urls"`
		} `json:"iceServers"`
	}
	get("/api/ice-servers", &ice)
	if len(ice.ICEServers) != 1 || ice.ICEServers[0].URLs[0] != config.DefaultSTUN {
		t.Errorf("ice servers = %+v", ice)
	}

	c := s.dial(t)
	joinAndSync(t, c, "lobby", "p1", "Ann")
	readEvent(t, c, "chat-history", nil)

	var rooms struct {
		Rooms []service.RoomSummary `json:"rooms"`
	}
	get("/api/rooms", &rooms)
	if len(rooms.Rooms) != 1 || rooms.Rooms[0].Name != "lobby" || rooms.Rooms[0].Members[0] != "Ann" {
		t.Errorf("rooms = %+v", rooms)
	}

	get("/metrics", nil)
}
