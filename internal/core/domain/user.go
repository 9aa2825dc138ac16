package domain

import "time"

type User struct {
	Username     Username
	Name         string
	PasswordHash []byte
	Avatar       string
	CreatedAt    time.Time
}

type Group struct {
	ID        GroupID
	Name      string
	Owner     Username
	Members   []Username
	CreatedAt time.Time
}

func (g Group) HasMember(u Username) bool {
	for _, m := range g.Members {
		if m == u {
			return true
		}
	}
	return false
}

type FriendRequest struct {
	From      Username
	To        Username
	CreatedAt time.Time
}

// Friend is a read view of an accepted friendship.
type Friend struct {
	Username Username
	Name     string
	Online   bool
}
