package domain

import "bytes"

type SignalKind string

const (
	SignalOffer     SignalKind = "webrtc-offer"
	SignalAnswer    SignalKind = "webrtc-answer"
	SignalCandidate SignalKind = "webrtc-ice-candidate"
)

func (k SignalKind) Valid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalCandidate:
		return true
	}
	return false
}

// Payload is an opaque negotiation blob (SDP or ICE candidate). The relay
// never looks inside it.
type Payload []byte

// Signal is a negotiation message addressed from one peer to another. To and
// From hold a username or a peer id, exactly as the client sent them.
type Signal struct {
	Kind    SignalKind
	To      string
	From    string
	Payload Payload
}

func NewSignal(kind SignalKind, to, from string, payload []byte) Signal {
	return Signal{
		Kind:    kind,
		To:      to,
		From:    from,
		Payload: payload,
	}
}

func (s Signal) Validate() error {
	if !s.Kind.Valid() {
		return malformed("unknown signal kind %q", s.Kind)
	}
	if s.To == "" {
		return malformed("%s without to", s.Kind)
	}
	if s.From == "" {
		return malformed("%s without from", s.Kind)
	}
	p := bytes.TrimSpace(s.Payload)
	if len(p) == 0 || bytes.Equal(p, []byte("null")) {
		return malformed("%s without payload", s.Kind)
	}
	return nil
}
