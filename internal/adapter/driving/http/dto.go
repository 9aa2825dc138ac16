package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Wyydra/huddle/internal/core/domain"
)

// envelope is the frame format in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinRoomDTO struct {
	Room   string `json:"room"`
	PeerID string `json:"peerId"`
	Name   string `json:"name"`
}

type roomDTO struct {
	Room string `json:"room"`
}

type signalDTO struct {
	To        string          `json:"to"`
	From      string          `json:"from"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type chatDTO struct {
	Room    string `json:"room,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	Name    string `json:"name"`
	Text    string `json:"text"`
}

type credentialsDTO struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type nameDTO struct {
	Name string `json:"name"`
}

type groupRefDTO struct {
	GroupID string `json:"groupId"`
}

type usernameDTO struct {
	Username string `json:"username"`
}

type historyRequestDTO struct {
	Room    string `json:"room,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// decodeCommand turns one text frame into a domain command. Unknown events
// and undecodable frames are reported as domain.ErrMalformedMessage.
func decodeCommand(frame []byte) (domain.Command, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}

	switch env.Event {
	case "join-room":
		var d joinRoomDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.JoinRoom{Room: domain.RoomName(d.Room), PeerID: domain.PeerID(d.PeerID), Name: d.Name}, nil

	case "leave-room":
		var d roomDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.LeaveRoom{Room: domain.RoomName(d.Room)}, nil

	case string(domain.SignalOffer), string(domain.SignalAnswer), string(domain.SignalCandidate):
		var d signalDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		kind := domain.SignalKind(env.Event)
		var payload json.RawMessage
		switch kind {
		case domain.SignalOffer:
			payload = d.Offer
		case domain.SignalAnswer:
			payload = d.Answer
		case domain.SignalCandidate:
			payload = d.Candidate
		}
		return domain.NewSignal(kind, d.To, d.From, payload), nil

	case "chat-message":
		var d chatDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.ChatMessage{Room: domain.RoomName(d.Room), Name: d.Name, Text: d.Text}, nil

	case "group-message":
		var d chatDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.GroupMessage{GroupID: domain.GroupID(d.GroupID), Name: d.Name, Text: d.Text}, nil

	case "login":
		var d credentialsDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.Login{Username: domain.Username(d.Username), Password: d.Password}, nil

	case "register":
		var d credentialsDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.Register{Name: d.Name, Username: domain.Username(d.Username), Password: d.Password}, nil

	case "get-groups":
		return domain.GetGroups{}, nil

	case "create-group":
		var d nameDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.CreateGroup{Name: d.Name}, nil

	case "join-group":
		var d groupRefDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.JoinGroup{GroupID: domain.GroupID(d.GroupID)}, nil

	case "get-friends":
		return domain.GetFriends{}, nil

	case "get-friend-requests":
		return domain.GetFriendRequests{}, nil

	case "send-friend-request":
		var d usernameDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.SendFriendRequest{Username: domain.Username(d.Username)}, nil

	case "accept-friend-request":
		var d usernameDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.AcceptFriendRequest{Username: domain.Username(d.Username)}, nil

	case "get-history":
		var d historyRequestDTO
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.GetHistory{Room: domain.RoomName(d.Room), GroupID: domain.GroupID(d.GroupID), Limit: d.Limit}, nil

	case "":
		return nil, fmt.Errorf("%w: missing event", domain.ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: unknown event %q", domain.ErrMalformedMessage, env.Event)
	}
}

func decodeData(env envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s without data", domain.ErrMalformedMessage, env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMalformedMessage, env.Event, err)
	}
	return nil
}

type userJoinedDTO struct {
	PeerID    string `json:"peerId"`
	Name      string `json:"name"`
	Initiator bool   `json:"initiator"`
}

type userLeftDTO struct {
	PeerID string `json:"peerId"`
}

type messageDTO struct {
	ID        string `json:"id"`
	Room      string `json:"room,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
	Username  string `json:"username,omitempty"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type authSuccessDTO struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

type messageOnlyDTO struct {
	Message string `json:"message"`
}

type groupDTO struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Owner   string   `json:"owner"`
	Members []string `json:"members"`
}

type friendDTO struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Online   bool   `json:"online"`
}

type friendRequestDTO struct {
	From      string `json:"from"`
	CreatedAt string `json:"createdAt"`
}

type historyDTO struct {
	Room     string       `json:"room,omitempty"`
	GroupID  string       `json:"groupId,omitempty"`
	Messages []messageDTO `json:"messages"`
}

// encodeEvent renders ev as a complete frame.
func encodeEvent(ev domain.Event) ([]byte, error) {
	var data any
	switch e := ev.(type) {
	case domain.UserJoined:
		data = userJoinedDTO{PeerID: string(e.PeerID), Name: e.Name, Initiator: e.Initiator}
	case domain.UserLeft:
		data = userLeftDTO{PeerID: string(e.PeerID)}
	case domain.RelayedSignal:
		return encodeSignal(e)
	case domain.ChatDelivered:
		data = toMessageDTO(e.Message)
	case domain.AuthSuccess:
		data = authSuccessDTO{Username: string(e.Username), Name: e.Name, Avatar: e.Avatar}
	case domain.AuthError:
		data = messageOnlyDTO{Message: e.Message}
	case domain.ErrorEvent:
		data = messageOnlyDTO{Message: e.Message}
	case domain.GroupsList:
		groups := make([]groupDTO, 0, len(e.Groups))
		for _, g := range e.Groups {
			members := make([]string, 0, len(g.Members))
			for _, m := range g.Members {
				members = append(members, string(m))
			}
			groups = append(groups, groupDTO{ID: string(g.ID), Name: g.Name, Owner: string(g.Owner), Members: members})
		}
		data = struct {
			Groups []groupDTO `json:"groups"`
		}{groups}
	case domain.FriendsList:
		friends := make([]friendDTO, 0, len(e.Friends))
		for _, f := range e.Friends {
			friends = append(friends, friendDTO{Username: string(f.Username), Name: f.Name, Online: f.Online})
		}
		data = struct {
			Friends []friendDTO `json:"friends"`
		}{friends}
	case domain.FriendRequestsList:
		reqs := make([]friendRequestDTO, 0, len(e.Requests))
		for _, r := range e.Requests {
			reqs = append(reqs, friendRequestDTO{From: string(r.From), CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339)})
		}
		data = struct {
			Requests []friendRequestDTO `json:"requests"`
		}{reqs}
	case domain.ChatHistory:
		d := historyDTO{Messages: make([]messageDTO, 0, len(e.Messages))}
		if e.Channel.Kind == domain.ChannelGroup {
			d.GroupID = e.Channel.Name
		} else {
			d.Room = e.Channel.Name
		}
		for _, m := range e.Messages {
			d.Messages = append(d.Messages, toMessageDTO(m))
		}
		data = d
	default:
		return nil, fmt.Errorf("no wire format for event %T", ev)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return json.Marshal(envelope{Event: string(ev.Kind()), Data: raw})
}

func toMessageDTO(m domain.Message) messageDTO {
	d := messageDTO{
		ID:        m.ID.String(),
		Username:  string(m.Sender),
		Name:      m.Name,
		Text:      m.Text,
		Timestamp: m.SentAt.UTC().Format(time.RFC3339Nano),
	}
	if m.Channel.Kind == domain.ChannelGroup {
		d.GroupID = m.Channel.Name
	} else {
		d.Room = m.Channel.Name
	}
	return d
}

var payloadField = map[domain.SignalKind]string{
	domain.SignalOffer:     "offer",
	domain.SignalAnswer:    "answer",
	domain.SignalCandidate: "candidate",
}

// encodeSignal writes the frame by hand so the payload goes out exactly as it
// came in; json.Marshal would re-compact it.
func encodeSignal(e domain.RelayedSignal) ([]byte, error) {
	field, ok := payloadField[e.Signal]
	if !ok {
		return nil, fmt.Errorf("no wire format for signal %q", e.Signal)
	}
	if !json.Valid(e.Data) {
		return nil, fmt.Errorf("encode %s: payload is not valid json", e.Signal)
	}
	from, err := json.Marshal(e.From)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(e.Data) + len(from) + 64)
	buf.WriteString(`{"event":"`)
	buf.WriteString(string(e.Signal))
	buf.WriteString(`","data":{"from":`)
	buf.Write(from)
	buf.WriteString(`,"`)
	buf.WriteString(field)
	buf.WriteString(`":`)
	buf.Write(e.Data)
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}
