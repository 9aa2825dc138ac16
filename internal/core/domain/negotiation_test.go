package domain

import (
	"errors"
	"testing"
)

func TestNegotiationOfferAnswer(t *testing.T) {
	n := NewNegotiation("a", "b")

	if err := n.Apply("a", SignalOffer); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if n.State != NegotiationOffered || n.Offerer != "a" {
		t.Fatalf("state=%s offerer=%s, want offered by a", n.State, n.Offerer)
	}
	if err := n.Apply("b", SignalCandidate); err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if err := n.Apply("b", SignalAnswer); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if n.State != NegotiationAnswered {
		t.Fatalf("state=%s, want answered", n.State)
	}

	// renegotiation from the responder is allowed once stable
	if err := n.Apply("b", SignalOffer); err != nil {
		t.Fatalf("renegotiation offer: %v", err)
	}
	if n.Offerer != "b" {
		t.Fatalf("offerer=%s, want b", n.Offerer)
	}
}

func TestNegotiationGlare(t *testing.T) {
	n := NewNegotiation("a", "b")
	if err := n.Apply("a", SignalOffer); err != nil {
		t.Fatal(err)
	}
	if err := n.Apply("b", SignalOffer); !errors.Is(err, ErrGlare) {
		t.Fatalf("responder offer during outstanding offer: err=%v, want ErrGlare", err)
	}
	if n.Offerer != "a" {
		t.Fatalf("glare changed offerer to %s", n.Offerer)
	}
}

func TestNegotiationResponderCannotOfferFirst(t *testing.T) {
	n := NewNegotiation("a", "b")
	if err := n.Apply("b", SignalOffer); !errors.Is(err, ErrGlare) {
		t.Fatalf("responder offer on idle pair: err=%v, want ErrGlare", err)
	}
	if n.State != NegotiationIdle {
		t.Fatalf("state=%s, want idle", n.State)
	}
	if err := n.Apply("a", SignalOffer); err != nil {
		t.Fatalf("initiator offer: %v", err)
	}
	if n.Offerer != "a" {
		t.Fatalf("offerer=%s, want a", n.Offerer)
	}
}

func TestNegotiationInitiatorWinsGlare(t *testing.T) {
	n := NewNegotiation("a", "b")
	n.State = NegotiationOffered
	n.Offerer = "b"

	if err := n.Apply("a", SignalOffer); err != nil {
		t.Fatalf("initiator offer: %v", err)
	}
	if n.Offerer != "a" {
		t.Fatalf("offerer=%s, want a", n.Offerer)
	}
}

func TestNegotiationStrayAnswer(t *testing.T) {
	n := NewNegotiation("a", "b")
	if err := n.Apply("b", SignalAnswer); err != nil {
		t.Fatal(err)
	}
	if n.State != NegotiationIdle {
		t.Fatalf("state=%s, want idle", n.State)
	}
}

func TestNegotiationClosedIgnoresSignals(t *testing.T) {
	n := NewNegotiation("a", "b")
	n.Close()
	if err := n.Apply("b", SignalOffer); err != nil {
		t.Fatal(err)
	}
	if n.State != NegotiationClosed {
		t.Fatalf("state=%s, want closed", n.State)
	}
}
