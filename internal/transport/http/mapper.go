package http

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/vovakirdan/typeroom-server/internal/core"
	"github.com/vovakirdan/typeroom-server/internal/proto"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// inboundToCommand maps a client frame to a core command. Malformed frames
// yield a protocol error and leave the connection open.
func inboundToCommand(in proto.Inbound) (*core.Command, *proto.Error) {
	switch in.Type {
	case proto.InboundSetNickname:
		var data proto.SetNicknameData
		if !decodeData(in.Data, &data, &data.Nickname) {
			return nil, badRequest("invalid set_nickname payload")
		}
		return &core.Command{
			Kind:     core.CommandSetNickname,
			Nickname: data.Nickname,
			Answer:   data.CaptchaAnswer.Ptr(),
		}, nil
	case proto.InboundCreateRoom:
		var data proto.CreateRoomData
		if !decodeData(in.Data, &data, &data.Name) {
			return nil, badRequest("invalid create_room payload")
		}
		return &core.Command{
			Kind:     core.CommandCreateRoom,
			RoomName: data.Name,
			Answer:   data.CaptchaAnswer.Ptr(),
		}, nil
	case proto.InboundDeleteRoom:
		var data proto.DeleteRoomData
		if !decodeData(in.Data, &data, &data.RoomID) {
			return nil, badRequest("invalid delete_room payload")
		}
		return &core.Command{Kind: core.CommandDeleteRoom, RoomID: data.RoomID}, nil
	case proto.InboundJoinRoom:
		var data proto.JoinRoomData
		if !decodeData(in.Data, &data, &data.RoomID) {
			return nil, badRequest("invalid join_room payload")
		}
		return &core.Command{
			Kind:   core.CommandJoinRoom,
			RoomID: data.RoomID,
			Answer: data.CaptchaAnswer.Ptr(),
		}, nil
	case proto.InboundLeaveRoom:
		return &core.Command{Kind: core.CommandLeaveRoom}, nil
	case proto.InboundTypeUpdate:
		var data proto.TypeUpdateData
		if !decodeData(in.Data, &data, nil) {
			return nil, badRequest("invalid type_update payload")
		}
		update, ok := typingFromProto(data)
		if !ok {
			return nil, badRequest("unknown typing update: " + data.Type)
		}
		return &core.Command{
			Kind:   core.CommandTyping,
			Typing: update,
			Answer: data.CaptchaAnswer.Ptr(),
		}, nil
	default:
		return nil, badRequest("unknown inbound type: " + in.Type)
	}
}

// decodeData unmarshals an object payload into dst. A bare JSON string is
// accepted as the single positional argument when positional is non-nil.
func decodeData(raw json.RawMessage, dst any, positional *string) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	if raw[0] == '"' {
		if positional == nil {
			return false
		}
		return json.Unmarshal(raw, positional) == nil
	}
	return json.Unmarshal(raw, dst) == nil
}

func typingFromProto(data proto.TypeUpdateData) (core.TypingUpdate, bool) {
	switch core.TypingKind(data.Type) {
	case core.TypingChar:
		return core.CharTyped{Char: data.Char}, true
	case core.TypingBackspace:
		return core.Backspace{}, true
	case core.TypingNewline:
		return core.Newline{Content: data.LineContent}, true
	case core.TypingSync:
		return core.SyncLine{Content: data.Content}, true
	default:
		return nil, false
	}
}

func typingToProto(userID string, upd core.TypingUpdate) proto.UserTyping {
	out := proto.UserTyping{UserID: userID}
	if upd == nil {
		return out
	}
	out.Type = string(upd.Kind())
	switch u := upd.(type) {
	case core.CharTyped:
		out.Char = u.Char
	case core.Newline:
		out.LineContent = u.Content
	case core.SyncLine:
		out.Content = u.Content
	}
	return out
}

func outboundFromEvent(ev *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent, Event: ev.Kind.String()}
	switch ev.Kind {
	case core.EventWelcome, core.EventUserJoined, core.EventUserUpdated:
		if ev.User != nil {
			out.Data = userToProto(*ev.User)
		}
	case core.EventUserLeft:
		out.Data = ev.UserID
	case core.EventRoomList:
		out.Data = roomSummariesToProto(ev.Rooms)
	case core.EventUserTyping:
		out.Data = typingToProto(ev.UserID, ev.Typing)
	}
	return out
}

func ackToProto(ack core.Ack) proto.Ack {
	out := proto.Ack{
		Success:  ack.Success,
		Nickname: ack.Nickname,
		RoomID:   ack.RoomID,
	}
	if ack.Err != nil {
		out.Error = ack.Err.Message
		out.Code = ack.Err.Code
		if ack.Err.Challenge != nil {
			out.Challenge = &proto.Challenge{
				ID:       ack.Err.Challenge.ID,
				Question: ack.Err.Challenge.Question,
			}
		}
	}
	if ack.Room != nil {
		out.Room = &proto.Room{
			ID:        ack.Room.ID,
			Name:      ack.Room.Name,
			CreatedAt: unixMilli(ack.Room.CreatedAt),
		}
	}
	if ack.Users != nil {
		out.Users = make([]proto.User, 0, len(ack.Users))
		for _, u := range ack.Users {
			out.Users = append(out.Users, userToProto(u))
		}
	}
	return out
}

func userToProto(u core.UserView) proto.User {
	lines := make([]proto.Line, 0, len(u.Lines))
	for _, l := range u.Lines {
		lines = append(lines, proto.Line{
			ID:        l.ID,
			Content:   l.Content,
			Timestamp: unixMilli(l.Timestamp),
		})
	}
	return proto.User{
		ID:       u.ID,
		Nickname: u.Nickname,
		RoomID:   u.RoomID,
		JoinedAt: unixMilli(u.JoinedAt),
		Lines:    lines,
	}
}

func roomSummariesToProto(rooms []core.RoomSummary) []proto.RoomSummary {
	out := make([]proto.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, proto.RoomSummary{
			ID:        r.ID,
			Name:      r.Name,
			UserCount: r.UserCount,
			CreatedAt: unixMilli(r.CreatedAt),
		})
	}
	return out
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
