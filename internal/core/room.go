package core

import (
	"slices"
	"time"
)

// Room groups connections that see each other's typing.
type Room struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time

	seq     uint64
	members []string
}

// NewRoom constructs a room with no members.
func NewRoom(id, name, ownerID string, createdAt time.Time) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: createdAt,
	}
}

// AddMember appends a connection to the room. Returns true if newly added.
func (r *Room) AddMember(connID string) bool {
	if r.Has(connID) {
		return false
	}
	r.members = append(r.members, connID)
	return true
}

// RemoveMember deletes a connection from the room. Returns true if removed.
func (r *Room) RemoveMember(connID string) bool {
	i := slices.Index(r.members, connID)
	if i < 0 {
		return false
	}
	r.members = slices.Delete(r.members, i, i+1)
	return true
}

// ReplaceMember swaps oldID for newID in place, keeping member order.
func (r *Room) ReplaceMember(oldID, newID string) bool {
	i := slices.Index(r.members, oldID)
	if i < 0 {
		return false
	}
	r.members[i] = newID
	return true
}

// Has reports whether connID is a member.
func (r *Room) Has(connID string) bool {
	return slices.Contains(r.members, connID)
}

// Members returns a copy of the member list in join order.
func (r *Room) Members() []string {
	return slices.Clone(r.members)
}

// Len returns the member count.
func (r *Room) Len() int {
	return len(r.members)
}

// Empty returns true if no connections are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}

// RoomSummary is the lobby view of a room.
type RoomSummary struct {
	ID        string
	Name      string
	UserCount int
	CreatedAt time.Time
}

// RoomInfo is the room metadata returned to a joining connection.
type RoomInfo struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

func (r *Room) summary() RoomSummary {
	return RoomSummary{ID: r.ID, Name: r.Name, UserCount: len(r.members), CreatedAt: r.CreatedAt}
}

func (r *Room) info() RoomInfo {
	return RoomInfo{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}
