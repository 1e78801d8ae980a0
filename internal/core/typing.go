package core

// TypingKind names a typing update on the wire.
type TypingKind string

const (
	TypingChar      TypingKind = "char"
	TypingBackspace TypingKind = "backspace"
	TypingNewline   TypingKind = "newline"
	TypingSync      TypingKind = "sync"
)

// TypingUpdate is one of CharTyped, Backspace, Newline or SyncLine.
type TypingUpdate interface {
	Kind() TypingKind
}

// CharTyped appends a glyph to the uncommitted line.
type CharTyped struct{ Char string }

// Backspace removes the last glyph of the uncommitted line.
type Backspace struct{}

// Newline commits Content as a line and clears the uncommitted line.
type Newline struct{ Content string }

// SyncLine replaces the whole uncommitted line.
type SyncLine struct{ Content string }

func (CharTyped) Kind() TypingKind { return TypingChar }
func (Backspace) Kind() TypingKind { return TypingBackspace }
func (Newline) Kind() TypingKind   { return TypingNewline }
func (SyncLine) Kind() TypingKind  { return TypingSync }

// handleTyping relays an update to the sender's room. Only newlines touch
// server state and only they pass through the gate and validation.
func (h *Hub) handleTyping(u *User, cmd *Command) {
	if u.RoomID == "" {
		cmd.reply(failure(coreError(KindNotFound, ErrCodeNotInRoom, "Not in a room")))
		return
	}

	switch upd := cmd.Typing.(type) {
	case CharTyped, Backspace, SyncLine:
	case Newline:
		if d := h.gate.Check(u.ConnID, cmd.Answer); !d.Allowed() {
			h.log.Debug().Str("conn_id", u.ConnID).Stringer("outcome", d.Outcome).Msg("newline rate limited")
			cmd.reply(failure(rateLimited(d)))
			return
		}
		if err := h.opts.Limits.validateMessage(upd.Content); err != nil {
			cmd.reply(failure(err))
			return
		}
		h.lineSeq++
		u.pushLine(Line{ID: h.lineSeq, Content: upd.Content, Timestamp: h.now()}, h.opts.Limits.LineHistory)
	default:
		cmd.reply(failure(coreError(KindValidation, ErrCodeBadRequest, "Unknown typing update")))
		return
	}

	h.broadcastRoom(u.RoomID, u.ConnID, &Event{
		Kind:   EventUserTyping,
		UserID: u.ConnID,
		Typing: cmd.Typing,
	})
	cmd.reply(Ack{Success: true})
}
