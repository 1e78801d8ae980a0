package core

func (h *Hub) createRoom(u *User, cmd *Command) {
	if d := h.gate.Check(u.ConnID, cmd.Answer); !d.Allowed() {
		cmd.reply(failure(rateLimited(d)))
		return
	}
	if err := h.opts.Limits.validateRoomName(cmd.RoomName); err != nil {
		cmd.reply(failure(err))
		return
	}

	room, err := h.rooms.Create(cmd.RoomName, u)
	if err != nil {
		cmd.reply(failure(err))
		return
	}

	h.log.Info().Str("room_id", room.ID).Str("room_name", room.Name).Str("owner", u.ConnID).Msg("room created")
	h.broadcastRoomList()
	cmd.reply(Ack{Success: true, RoomID: room.ID})
}

func (h *Hub) deleteRoom(u *User, cmd *Command) {
	if err := h.rooms.Delete(cmd.RoomID, u); err != nil {
		cmd.reply(failure(err))
		return
	}

	h.log.Info().Str("room_id", cmd.RoomID).Str("owner", u.ConnID).Msg("room deleted")
	h.broadcastRoomList()
	cmd.reply(Ack{Success: true})
}

func (h *Hub) joinRoom(u *User, cmd *Command) {
	if d := h.gate.Check(u.ConnID, cmd.Answer); !d.Allowed() {
		cmd.reply(failure(rateLimited(d)))
		return
	}

	if u.RoomID == cmd.RoomID {
		if room, ok := h.rooms.Get(cmd.RoomID); ok {
			cmd.reply(h.joinAck(room))
			return
		}
	}

	room, err := h.rooms.CheckJoin(cmd.RoomID, u, h.lookup)
	if err != nil {
		cmd.reply(failure(err))
		return
	}

	if u.RoomID != "" {
		h.leaveRoom(u)
	}

	room.AddMember(u.ConnID)
	u.RoomID = room.ID
	u.JoinedAt = h.now()

	h.log.Info().Str("room_id", room.ID).Str("conn_id", u.ConnID).Int("members", room.Len()).Msg("user joined room")
	cmd.reply(h.joinAck(room))
	h.broadcastRoom(room.ID, u.ConnID, &Event{Kind: EventUserJoined, User: ptr(u.view())})
	h.broadcastRoomList()
}

// leaveRoom removes u from its room, clears its committed lines and deletes
// the room once it is empty. It is a no-op outside a room.
func (h *Hub) leaveRoom(u *User) {
	if u.RoomID == "" {
		return
	}
	roomID := u.RoomID
	u.RoomID = ""
	u.Lines = nil

	room, ok := h.rooms.Get(roomID)
	if !ok || !room.RemoveMember(u.ConnID) {
		return
	}

	h.broadcastRoom(roomID, u.ConnID, &Event{Kind: EventUserLeft, UserID: u.ConnID})
	if h.rooms.RemoveIfEmpty(roomID) {
		h.log.Info().Str("room_id", roomID).Msg("empty room removed")
	}
	h.broadcastRoomList()
}

func (h *Hub) joinAck(room *Room) Ack {
	users := make([]UserView, 0, room.Len())
	for _, id := range room.members {
		if member, ok := h.users[id]; ok {
			users = append(users, member.view())
		}
	}
	return Ack{Success: true, Room: ptr(room.info()), Users: users}
}

func (h *Hub) lookup(connID string) *User {
	return h.users[connID]
}
