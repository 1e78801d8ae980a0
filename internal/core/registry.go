package core

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Registry is the authoritative set of rooms. It enforces name uniqueness,
// capacity and ownership; membership changes go through the hub.
type Registry struct {
	rooms    map[string]*Room
	capacity int
	seq      uint64
	now      func() time.Time
	newID    func() string
}

// NewRegistry creates an empty registry with the given room capacity.
func NewRegistry(capacity int, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		rooms:    make(map[string]*Room),
		capacity: capacity,
		now:      now,
		newID:    uuid.NewString,
	}
}

// Get returns a room by id.
func (r *Registry) Get(roomID string) (*Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// Len returns the number of existing rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// Create mints a room named name owned by owner and records it as the owner's tracked room.
func (r *Registry) Create(name string, owner *User) (*Room, *CoreError) {
	for _, room := range r.rooms {
		if room.Name == name {
			return nil, coreError(KindConflict, ErrCodeDuplicateRoomName, "Room name already exists")
		}
	}
	if prev, ok := r.rooms[owner.CreatedRoomID]; ok && prev.Empty() {
		return nil, coreError(KindConflict, ErrCodeOwnerHasEmptyRoom,
			"You have an empty room. Please close it or join it.")
	}

	r.seq++
	room := NewRoom(r.newID(), name, owner.ConnID, r.now())
	room.seq = r.seq
	r.rooms[room.ID] = room
	owner.CreatedRoomID = room.ID
	return room, nil
}

// Delete removes an empty room on behalf of its tracked owner.
func (r *Registry) Delete(roomID string, requester *User) *CoreError {
	room, ok := r.rooms[roomID]
	if !ok {
		return coreError(KindNotFound, ErrCodeRoomNotFound, "Room not found")
	}
	if requester.CreatedRoomID != roomID {
		return coreError(KindConflict, ErrCodeNotOwner, "You are not the owner of this room")
	}
	if !room.Empty() {
		return coreError(KindConflict, ErrCodeRoomNotEmpty, "Cannot delete room with users")
	}
	delete(r.rooms, roomID)
	requester.CreatedRoomID = ""
	return nil
}

// CheckJoin validates that u may join roomID. lookup resolves member connection ids to users.
func (r *Registry) CheckJoin(roomID string, u *User, lookup func(connID string) *User) (*Room, *CoreError) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, coreError(KindNotFound, ErrCodeRoomNotFound, "Room not found")
	}
	if room.Len() >= r.capacity {
		return nil, coreError(KindCapacity, ErrCodeRoomFull,
			fmt.Sprintf("Room is full (max %d users)", r.capacity))
	}
	if u.ClientID != "" {
		for _, id := range room.members {
			if id == u.ConnID {
				continue
			}
			if other := lookup(id); other != nil && other.ClientID == u.ClientID {
				return nil, coreError(KindConflict, ErrCodeAlreadyInRoomElsewhere,
					"You are already in this room from another tab or window.")
			}
		}
	}
	return room, nil
}

// RemoveIfEmpty deletes the room when it has no members and reports whether it did.
func (r *Registry) RemoveIfEmpty(roomID string) bool {
	room, ok := r.rooms[roomID]
	if !ok || !room.Empty() {
		return false
	}
	delete(r.rooms, roomID)
	return true
}

// RekeyOwner moves ownership of any room owned by oldID to newID.
func (r *Registry) RekeyOwner(oldID, newID string) {
	for _, room := range r.rooms {
		if room.OwnerID == oldID {
			room.OwnerID = newID
		}
	}
}

// Summaries lists all rooms in creation order.
func (r *Registry) Summaries() []RoomSummary {
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	slices.SortFunc(rooms, func(a, b *Room) int {
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.summary())
	}
	return out
}
