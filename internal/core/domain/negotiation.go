package domain

type NegotiationState string

const (
	NegotiationIdle     NegotiationState = "idle"
	NegotiationOffered  NegotiationState = "offered"
	NegotiationAnswered NegotiationState = "answered"
	NegotiationClosed   NegotiationState = "closed"
)

// Negotiation follows one peer pair through offer/answer as seen by the
// relay. Initiator is the side that is supposed to send offers; the other
// side only offers again after a completed exchange (renegotiation).
type Negotiation struct {
	Initiator ConnID
	Responder ConnID
	State     NegotiationState
	// Offerer is the sender of the outstanding offer while State is offered.
	Offerer ConnID
}

func NewNegotiation(initiator, responder ConnID) *Negotiation {
	return &Negotiation{
		Initiator: initiator,
		Responder: responder,
		State:     NegotiationIdle,
	}
}

// Apply advances the state machine for a signal sent by from. It returns
// ErrGlare for an offer from the responder before an exchange has completed;
// such offers must not be forwarded.
func (n *Negotiation) Apply(from ConnID, kind SignalKind) error {
	if n.State == NegotiationClosed {
		return nil
	}
	switch kind {
	case SignalOffer:
		if from == n.Responder && n.State != NegotiationAnswered {
			return ErrGlare
		}
		n.State = NegotiationOffered
		n.Offerer = from
	case SignalAnswer:
		// stray answers are forwarded but do not move the state
		if n.State == NegotiationOffered && n.Offerer != from {
			n.State = NegotiationAnswered
			n.Offerer = ""
		}
	}
	return nil
}

func (n *Negotiation) Close() {
	n.State = NegotiationClosed
	n.Offerer = ""
}

func (n *Negotiation) Involves(conn ConnID) bool {
	return n.Initiator == conn || n.Responder == conn
}
