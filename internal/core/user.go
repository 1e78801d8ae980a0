package core

import "time"

// Line is a committed chat line.
type Line struct {
	ID        int64
	Content   string
	Timestamp time.Time
}

// User is the live-user record for one connection. A user outlives its
// transport for the grace period when it carries a client identifier.
type User struct {
	ConnID        string
	Nickname      string
	ClientID      string
	RoomID        string
	CreatedRoomID string
	JoinedAt      time.Time
	Lines         []Line

	graceTimer *time.Timer
	graceSeq   uint64
}

// InGrace reports whether the user is disconnected and awaiting reconnection.
func (u *User) InGrace() bool {
	return u.graceTimer != nil
}

func (u *User) pushLine(line Line, limit int) {
	u.Lines = append(u.Lines, line)
	if over := len(u.Lines) - limit; over > 0 {
		u.Lines = append(u.Lines[:0:0], u.Lines[over:]...)
	}
}

func (u *User) cancelGrace() {
	if u.graceTimer != nil {
		u.graceTimer.Stop()
		u.graceTimer = nil
	}
	u.graceSeq++
}

// UserView is the client-facing snapshot of a user.
type UserView struct {
	ID       string
	Nickname string
	RoomID   string
	JoinedAt time.Time
	Lines    []Line
}

func (u *User) view() UserView {
	lines := make([]Line, len(u.Lines))
	copy(lines, u.Lines)
	return UserView{
		ID:       u.ConnID,
		Nickname: u.Nickname,
		RoomID:   u.RoomID,
		JoinedAt: u.JoinedAt,
		Lines:    lines,
	}
}
