package core

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const anonNicknameSpace = 1_000_000

// connect resolves the identity of a new connection and greets it.
func (h *Hub) connect(c *Client) {
	h.clients[c.ID] = c

	u := h.resolveUser(c)
	h.users[u.ConnID] = u

	h.send(c.ID, &Event{Kind: EventWelcome, User: ptr(u.view())})
	h.send(c.ID, &Event{Kind: EventRoomList, Rooms: h.rooms.Summaries()})
}

func (h *Hub) resolveUser(c *Client) *User {
	if c.ClientID != "" {
		if nickname, ok := h.identities.Resolve(c.ClientID); ok {
			h.identities.Touch(c.ClientID)

			if prev := h.findByClientID(c.ClientID); prev != nil {
				if prev.InGrace() {
					return h.restore(prev, c)
				}
				// Same client already live on another connection: a second tab
				// shares the nickname but starts outside any room.
				h.log.Info().Str("conn_id", c.ID).Str("nickname", nickname).Msg("duplicate connection for known client")
				return h.newUser(c, nickname)
			}

			if h.nicknameHeldByOther(nickname, c.ClientID) {
				nickname = h.anonNickname()
				h.identities.Remember(c.ClientID, nickname)
			}
			h.log.Info().Str("conn_id", c.ID).Str("nickname", nickname).Msg("restored identity")
			return h.newUser(c, nickname)
		}
	}

	nickname := h.anonNickname()
	if c.ClientID != "" {
		h.identities.Remember(c.ClientID, nickname)
	}
	h.log.Info().Str("conn_id", c.ID).Str("nickname", nickname).Msg("user connected")
	return h.newUser(c, nickname)
}

func (h *Hub) newUser(c *Client, nickname string) *User {
	h.reserve(nickname)
	return &User{
		ConnID:   c.ID,
		Nickname: nickname,
		ClientID: c.ClientID,
	}
}

// restore moves a user in its grace period onto a new connection.
func (h *Hub) restore(u *User, c *Client) *User {
	oldID := u.ConnID
	u.cancelGrace()

	delete(h.users, oldID)
	u.ConnID = c.ID
	h.rooms.RekeyOwner(oldID, c.ID)

	h.log.Info().
		Str("nickname", u.Nickname).
		Str("old_conn_id", oldID).
		Str("conn_id", c.ID).
		Msg("restored session")

	if u.RoomID == "" {
		return u
	}
	room, ok := h.rooms.Get(u.RoomID)
	if !ok || !room.ReplaceMember(oldID, c.ID) {
		u.RoomID = ""
		u.Lines = nil
		return u
	}
	h.broadcastRoom(room.ID, c.ID, &Event{Kind: EventUserLeft, UserID: oldID})
	h.broadcastRoom(room.ID, c.ID, &Event{Kind: EventUserJoined, User: ptr(u.view())})
	return u
}

// disconnect handles the loss of a transport. Users with a client identifier
// are kept for the grace period; others are destroyed at once.
func (h *Hub) disconnect(c *Client) {
	if h.clients[c.ID] != c {
		return
	}
	delete(h.clients, c.ID)
	close(c.done)
	h.gate.Forget(c.ID)

	u, ok := h.users[c.ID]
	if !ok {
		return
	}
	if u.ClientID == "" {
		h.destroy(u)
		return
	}

	u.graceSeq++
	seq, connID := u.graceSeq, u.ConnID
	u.graceTimer = time.AfterFunc(h.opts.GracePeriod, func() {
		h.post(func() { h.expireGrace(connID, seq) })
	})
	h.log.Info().Str("conn_id", c.ID).Str("nickname", u.Nickname).Dur("grace", h.opts.GracePeriod).Msg("scheduled disconnect")
}

func (h *Hub) expireGrace(connID string, seq uint64) {
	u, ok := h.users[connID]
	if !ok || !u.InGrace() || u.graceSeq != seq {
		return
	}
	u.graceTimer = nil
	h.log.Info().Str("conn_id", connID).Str("nickname", u.Nickname).Msg("grace period expired")
	h.destroy(u)
}

func (h *Hub) destroy(u *User) {
	h.leaveRoom(u)
	h.release(u.Nickname)
	delete(h.users, u.ConnID)
}

func (h *Hub) findByClientID(clientID string) *User {
	var live *User
	for _, u := range h.users {
		if u.ClientID != clientID {
			continue
		}
		if u.InGrace() {
			return u
		}
		live = u
	}
	return live
}

func (h *Hub) setNickname(u *User, cmd *Command) {
	if d := h.gate.Check(u.ConnID, cmd.Answer); !d.Allowed() {
		cmd.reply(failure(rateLimited(d)))
		return
	}
	if err := h.opts.Limits.validateNickname(cmd.Nickname); err != nil {
		cmd.reply(failure(err))
		return
	}
	if h.inUse(cmd.Nickname) {
		cmd.reply(failure(coreError(KindConflict, ErrCodeNicknameTaken, "Nickname already taken")))
		return
	}

	h.release(u.Nickname)
	h.reserve(cmd.Nickname)
	u.Nickname = cmd.Nickname
	if u.ClientID != "" {
		h.identities.Remember(u.ClientID, u.Nickname)
	}

	cmd.reply(Ack{Success: true, Nickname: u.Nickname})

	ev := &Event{Kind: EventUserUpdated, User: ptr(u.view())}
	h.send(u.ConnID, ev)
	if u.RoomID != "" {
		h.broadcastRoom(u.RoomID, u.ConnID, ev)
	}
}

// Nickname reservations are counted over live users only, so they are
// released with the user and never outlive it.
func (h *Hub) reserve(nickname string) {
	h.nicknames[nickname]++
}

func (h *Hub) release(nickname string) {
	if n := h.nicknames[nickname]; n > 1 {
		h.nicknames[nickname] = n - 1
		return
	}
	delete(h.nicknames, nickname)
}

func (h *Hub) inUse(nickname string) bool {
	return h.nicknames[nickname] > 0
}

func (h *Hub) nicknameHeldByOther(nickname, clientID string) bool {
	if !h.inUse(nickname) {
		return false
	}
	for _, u := range h.users {
		if u.Nickname == nickname && u.ClientID != clientID {
			return true
		}
	}
	return false
}

func (h *Hub) anonNickname() string {
	for {
		nickname := fmt.Sprintf("anon%d", rand.IntN(anonNicknameSpace))
		if !h.inUse(nickname) {
			return nickname
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
