package domain

import (
	"errors"
	"testing"
)

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		ok   bool
	}{
		{"join ok", JoinRoom{Room: "r", PeerID: "p1", Name: "A"}, true},
		{"join without name", JoinRoom{Room: "r", PeerID: "p1"}, true},
		{"join without room", JoinRoom{PeerID: "p1"}, false},
		{"join without peer", JoinRoom{Room: "r"}, false},
		{"leave without room", LeaveRoom{}, false},
		{"chat ok", ChatMessage{Room: "r", Name: "A", Text: "hi"}, true},
		{"chat without text", ChatMessage{Room: "r", Name: "A"}, false},
		{"group without id", GroupMessage{Text: "hi"}, false},
		{"offer ok", NewSignal(SignalOffer, "bob", "alice", []byte(`{"sdp":"x"}`)), true},
		{"offer without to", NewSignal(SignalOffer, "", "alice", []byte(`{}`)), false},
		{"answer without from", NewSignal(SignalAnswer, "bob", "", []byte(`{}`)), false},
		{"candidate null payload", NewSignal(SignalCandidate, "bob", "alice", []byte(" null ")), false},
		{"unknown kind", NewSignal("webrtc-bye", "bob", "alice", []byte(`{}`)), false},
		{"history both", GetHistory{Room: "r", GroupID: "g"}, false},
		{"history none", GetHistory{}, false},
		{"history room", GetHistory{Room: "r"}, true},
		{"login empty password", Login{Username: "test"}, false},
		{"register ok", Register{Name: "T", Username: "t", Password: "p"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformedMessage) {
				t.Fatalf("err=%v, want ErrMalformedMessage", err)
			}
		})
	}
}
