package service

import (
	"sort"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/rs/zerolog/log"
)

type room struct {
	name    domain.RoomName
	members []domain.Member
}

func (r *room) indexOfConn(conn domain.ConnID) int {
	for i, m := range r.members {
		if m.Conn == conn {
			return i
		}
	}
	return -1
}

func (r *room) indexOfPeer(peerID domain.PeerID) int {
	for i, m := range r.members {
		if m.PeerID == peerID {
			return i
		}
	}
	return -1
}

// JoinResult describes what a join changed.
type JoinResult struct {
	// Existing is the member list of the room before the join, in join order.
	Existing []domain.Member
	// Previous is set when the session was moved out of another membership.
	Previous *Departure
	// Duplicate means the peer id was already in the room; nothing changed.
	Duplicate bool
}

// Departure is a membership that ended, with the members left behind.
type Departure struct {
	Room      domain.RoomName
	Member    domain.Member
	Remaining []domain.Member
}

type RoomSummary struct {
	Name    domain.RoomName `json:"name"`
	Members []string        `json:"members"`
}

// RoomRegistry tracks which sessions are in which room. A session is in at
// most one room; rooms are created on first join and pruned once empty.
type RoomRegistry struct {
	rooms    map[domain.RoomName]*room
	memberOf map[domain.ConnID]domain.RoomName
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:    make(map[domain.RoomName]*room),
		memberOf: make(map[domain.ConnID]domain.RoomName),
	}
}

func (r *RoomRegistry) Join(name domain.RoomName, m domain.Member) JoinResult {
	if rm, ok := r.rooms[name]; ok && rm.indexOfPeer(m.PeerID) >= 0 {
		return JoinResult{Duplicate: true}
	}

	var res JoinResult
	if current, ok := r.memberOf[m.Conn]; ok {
		if dep, ok := r.Leave(current, m.Conn); ok {
			res.Previous = &dep
		}
	}

	rm, ok := r.rooms[name]
	if !ok {
		rm = &room{name: name}
		r.rooms[name] = rm
		log.Debug().Str("room", string(name)).Msg("Room created")
	}
	res.Existing = cloneMembers(rm.members)
	rm.members = append(rm.members, m)
	r.memberOf[m.Conn] = name
	return res
}

// Leave removes conn from the room. It reports false when conn was not a
// member of that room.
func (r *RoomRegistry) Leave(name domain.RoomName, conn domain.ConnID) (Departure, bool) {
	if r.memberOf[conn] != name {
		return Departure{}, false
	}
	rm, ok := r.rooms[name]
	if !ok {
		delete(r.memberOf, conn)
		return Departure{}, false
	}
	i := rm.indexOfConn(conn)
	if i < 0 {
		delete(r.memberOf, conn)
		return Departure{}, false
	}

	m := rm.members[i]
	rm.members = append(rm.members[:i], rm.members[i+1:]...)
	delete(r.memberOf, conn)

	if len(rm.members) == 0 {
		delete(r.rooms, name)
		log.Debug().Str("room", string(name)).Msg("Room pruned")
	}
	return Departure{Room: name, Member: m, Remaining: cloneMembers(rm.members)}, true
}

func (r *RoomRegistry) MembersOf(name domain.RoomName) []domain.Member {
	rm, ok := r.rooms[name]
	if !ok {
		return nil
	}
	return cloneMembers(rm.members)
}

func (r *RoomRegistry) RoomOf(conn domain.ConnID) (domain.RoomName, bool) {
	name, ok := r.memberOf[conn]
	return name, ok
}

func (r *RoomRegistry) Summaries() []RoomSummary {
	out := make([]RoomSummary, 0, len(r.rooms))
	for name, rm := range r.rooms {
		s := RoomSummary{Name: name, Members: make([]string, 0, len(rm.members))}
		for _, m := range rm.members {
			s.Members = append(s.Members, m.Name)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func cloneMembers(ms []domain.Member) []domain.Member {
	out := make([]domain.Member, len(ms))
	copy(out, ms)
	return out
}
