package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSetNickname changes the caller's nickname.
	CommandSetNickname CommandKind = iota
	// CommandCreateRoom creates a room owned by the caller.
	CommandCreateRoom
	// CommandDeleteRoom deletes an empty room owned by the caller.
	CommandDeleteRoom
	// CommandJoinRoom moves the caller into a room.
	CommandJoinRoom
	// CommandLeaveRoom removes the caller from its room.
	CommandLeaveRoom
	// CommandTyping relays a typing update to the caller's room.
	CommandTyping
)

func (k CommandKind) String() string {
	switch k {
	case CommandSetNickname:
		return "set_nickname"
	case CommandCreateRoom:
		return "create_room"
	case CommandDeleteRoom:
		return "delete_room"
	case CommandJoinRoom:
		return "join_room"
	case CommandLeaveRoom:
		return "leave_room"
	case CommandTyping:
		return "type_update"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
// Reply, when set, receives exactly one Ack; it must be buffered.
type Command struct {
	Kind     CommandKind
	Nickname string
	RoomName string
	RoomID   string
	Answer   *int
	Typing   TypingUpdate
	Reply    chan Ack
}

// Ack is the per-call acknowledgement.
type Ack struct {
	Success  bool
	Err      *CoreError
	Nickname string
	RoomID   string
	Room     *RoomInfo
	Users    []UserView
}

func failure(err *CoreError) Ack {
	return Ack{Err: err}
}

func (c *Command) reply(ack Ack) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- ack:
	default:
	}
}
