package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Inbound is the envelope for messages coming from the client.
// ID is set when the client expects an acknowledgement.
type Inbound struct {
	Type string          `json:"type"`
	ID   *int64          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundSetNickname = "set_nickname"
	InboundCreateRoom  = "create_room"
	InboundDeleteRoom  = "delete_room"
	InboundJoinRoom    = "join_room"
	InboundLeaveRoom   = "leave_room"
	InboundTypeUpdate  = "type_update"

	OutboundTypeAck   = "ack"
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventWelcome     = "welcome"
	EventRoomList    = "room_list"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventUserUpdated = "user_updated"
	EventUserTyping  = "user_typing"

	// ClientIDParam is the handshake query parameter carrying the client identifier.
	ClientIDParam = "clientId"
)

// Answer is a challenge answer. Clients send it as a number or a numeric string.
type Answer struct {
	Value int
	Set   bool
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = Answer{}
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*a = Answer{}
			return nil
		}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// A non-numeric answer is still an answer, just a wrong one.
		*a = Answer{Value: -1, Set: true}
		return nil
	}
	*a = Answer{Value: v, Set: true}
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(a.Value)), nil
}

// Ptr returns the answer as a pointer, nil when absent.
func (a Answer) Ptr() *int {
	if !a.Set {
		return nil
	}
	v := a.Value
	return &v
}

// SetNicknameData requests a nickname change.
type SetNicknameData struct {
	Nickname      string `json:"nickname"`
	CaptchaAnswer Answer `json:"captchaAnswer"`
}

// CreateRoomData requests a new room.
type CreateRoomData struct {
	Name          string `json:"name"`
	CaptchaAnswer Answer `json:"captchaAnswer"`
}

// DeleteRoomData requests deletion of an owned, empty room.
type DeleteRoomData struct {
	RoomID string `json:"roomId"`
}

// JoinRoomData requests to join a room.
type JoinRoomData struct {
	RoomID        string `json:"roomId"`
	CaptchaAnswer Answer `json:"captchaAnswer"`
}

// TypeUpdateData is a typing update. Which field is meaningful depends on Type:
// char carries Char, newline carries LineContent, sync carries Content.
type TypeUpdateData struct {
	Type          string `json:"type"`
	Char          string `json:"char,omitempty"`
	LineContent   string `json:"lineContent,omitempty"`
	Content       string `json:"content,omitempty"`
	CaptchaAnswer Answer `json:"captchaAnswer"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	ID    *int64 `json:"id,omitempty"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Line is a committed chat line. Timestamps are Unix milliseconds.
type Line struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// User is the public view of a connected user.
type User struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	RoomID   string `json:"roomId,omitempty"`
	JoinedAt int64  `json:"joinedAt,omitempty"`
	Lines    []Line `json:"lines"`
}

// RoomSummary is one entry of the room_list event.
type RoomSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserCount int    `json:"userCount"`
	CreatedAt int64  `json:"createdAt"`
}

// Room is the room metadata returned by join_room.
type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// Challenge is the question a rate-limited client must answer.
type Challenge struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// Ack is the acknowledgement payload for calls that carried an id.
type Ack struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Code      string     `json:"code,omitempty"`
	Challenge *Challenge `json:"challenge,omitempty"`
	Nickname  string     `json:"nickname,omitempty"`
	RoomID    string     `json:"roomId,omitempty"`
	Room      *Room      `json:"room,omitempty"`
	Users     []User     `json:"users,omitempty"`
}

// UserTyping relays a typing update from a room member, using the same
// fields as TypeUpdateData.
type UserTyping struct {
	UserID      string `json:"userId"`
	Type        string `json:"type"`
	Char        string `json:"char,omitempty"`
	LineContent string `json:"lineContent,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}
