package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventWelcome greets a connection with its own user record.
	EventWelcome EventKind = iota
	// EventRoomList carries the lobby view of all rooms.
	EventRoomList
	// EventUserJoined notifies room members about a new member.
	EventUserJoined
	// EventUserLeft notifies room members that a connection left.
	EventUserLeft
	// EventUserUpdated notifies about a changed user record.
	EventUserUpdated
	// EventUserTyping relays a typing update from a room member.
	EventUserTyping
)

func (k EventKind) String() string {
	switch k {
	case EventWelcome:
		return "welcome"
	case EventRoomList:
		return "room_list"
	case EventUserJoined:
		return "user_joined"
	case EventUserLeft:
		return "user_left"
	case EventUserUpdated:
		return "user_updated"
	case EventUserTyping:
		return "user_typing"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind   EventKind
	User   *UserView
	UserID string
	Rooms  []RoomSummary
	Typing TypingUpdate
}
