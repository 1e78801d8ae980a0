package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vovakirdan/typeroom-server/internal/core"
	"github.com/vovakirdan/typeroom-server/internal/gate"
	"github.com/vovakirdan/typeroom-server/internal/proto"
)

func TestInboundToCommand(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		kind    core.CommandKind
		check   func(t *testing.T, cmd *core.Command)
		errCode string
	}{
		{
			name: "nickname object with numeric answer",
			in:   `{"type":"set_nickname","data":{"nickname":"neo","captchaAnswer":7}}`,
			kind: core.CommandSetNickname,
			check: func(t *testing.T, cmd *core.Command) {
				if cmd.Nickname != "neo" || cmd.Answer == nil || *cmd.Answer != 7 {
					t.Fatalf("unexpected command: %+v", cmd)
				}
			},
		},
		{
			name: "create room without answer",
			in:   `{"type":"create_room","data":{"name":"den"}}`,
			kind: core.CommandCreateRoom,
			check: func(t *testing.T, cmd *core.Command) {
				if cmd.RoomName != "den" || cmd.Answer != nil {
					t.Fatalf("unexpected command: %+v", cmd)
				}
			},
		},
		{
			name: "delete room positional",
			in:   `{"type":"delete_room","data":"r1"}`,
			kind: core.CommandDeleteRoom,
			check: func(t *testing.T, cmd *core.Command) {
				if cmd.RoomID != "r1" {
					t.Fatalf("unexpected command: %+v", cmd)
				}
			},
		},
		{
			name: "leave room without data",
			in:   `{"type":"leave_room"}`,
			kind: core.CommandLeaveRoom,
		},
		{
			name: "newline with string answer",
			in:   `{"type":"type_update","data":{"type":"newline","lineContent":"hi","captchaAnswer":"12"}}`,
			kind: core.CommandTyping,
			check: func(t *testing.T, cmd *core.Command) {
				nl, ok := cmd.Typing.(core.Newline)
				if !ok || nl.Content != "hi" || cmd.Answer == nil || *cmd.Answer != 12 {
					t.Fatalf("unexpected command: %+v", cmd)
				}
			},
		},
		{
			name: "backspace",
			in:   `{"type":"type_update","data":{"type":"backspace"}}`,
			kind: core.CommandTyping,
			check: func(t *testing.T, cmd *core.Command) {
				if _, ok := cmd.Typing.(core.Backspace); !ok {
					t.Fatalf("unexpected typing update: %#v", cmd.Typing)
				}
			},
		},
		{
			name:    "unknown typing kind",
			in:      `{"type":"type_update","data":{"type":"paste"}}`,
			errCode: core.ErrCodeBadRequest,
		},
		{
			name:    "typing payload must be an object",
			in:      `{"type":"type_update","data":"x"}`,
			errCode: core.ErrCodeBadRequest,
		},
		{
			name:    "unknown type",
			in:      `{"type":"hello"}`,
			errCode: core.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in proto.Inbound
			if err := json.Unmarshal([]byte(tt.in), &in); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			cmd, perr := inboundToCommand(in)
			if tt.errCode != "" {
				if perr == nil || perr.Code != tt.errCode {
					t.Fatalf("expected error %s, got %v", tt.errCode, perr)
				}
				return
			}
			if perr != nil {
				t.Fatalf("unexpected error: %v", perr)
			}
			if cmd.Kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, cmd.Kind)
			}
			if tt.check != nil {
				tt.check(t, cmd)
			}
		})
	}
}

// Browser clients send newline text as lineContent and sync text as content,
// and read the relays back under the same names.
func TestTypingPayloadsMatchBrowserClient(t *testing.T) {
	tests := []struct {
		in       string
		want     core.TypingUpdate
		wantJSON string
	}{
		{
			in:       `{"type":"type_update","data":{"type":"newline","lineContent":"hello"}}`,
			want:     core.Newline{Content: "hello"},
			wantJSON: `{"userId":"u","type":"newline","lineContent":"hello"}`,
		},
		{
			in:       `{"type":"type_update","data":{"type":"sync","content":"abc"}}`,
			want:     core.SyncLine{Content: "abc"},
			wantJSON: `{"userId":"u","type":"sync","content":"abc"}`,
		},
		{
			in:       `{"type":"type_update","data":{"type":"char","char":"x"}}`,
			want:     core.CharTyped{Char: "x"},
			wantJSON: `{"userId":"u","type":"char","char":"x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.want.Kind()), func(t *testing.T) {
			var in proto.Inbound
			if err := json.Unmarshal([]byte(tt.in), &in); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			cmd, perr := inboundToCommand(in)
			if perr != nil {
				t.Fatalf("unexpected error: %v", perr)
			}
			if cmd.Typing != tt.want {
				t.Fatalf("expected %#v, got %#v", tt.want, cmd.Typing)
			}

			out := outboundFromEvent(&core.Event{Kind: core.EventUserTyping, UserID: "u", Typing: cmd.Typing})
			raw, err := json.Marshal(out.Data)
			if err != nil {
				t.Fatalf("marshal relay: %v", err)
			}
			if string(raw) != tt.wantJSON {
				t.Fatalf("expected relay %s, got %s", tt.wantJSON, raw)
			}
		})
	}
}

func TestOutboundFromEvent(t *testing.T) {
	joined := time.UnixMilli(1_700_000_000_000)
	ev := &core.Event{
		Kind: core.EventUserJoined,
		User: &core.UserView{
			ID:       "c1",
			Nickname: "neo",
			RoomID:   "r1",
			JoinedAt: joined,
			Lines:    []core.Line{{ID: 1, Content: "hi", Timestamp: joined}},
		},
	}
	out := outboundFromEvent(ev)
	if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventUserJoined {
		t.Fatalf("unexpected envelope: %+v", out)
	}
	user, ok := out.Data.(proto.User)
	if !ok || user.JoinedAt != joined.UnixMilli() || len(user.Lines) != 1 || user.Lines[0].Timestamp != joined.UnixMilli() {
		t.Fatalf("unexpected user payload: %#v", out.Data)
	}

	left := outboundFromEvent(&core.Event{Kind: core.EventUserLeft, UserID: "c1"})
	if left.Data != "c1" {
		t.Fatalf("expected bare id for user_left, got %#v", left.Data)
	}

	typing := outboundFromEvent(&core.Event{Kind: core.EventUserTyping, UserID: "c1", Typing: core.SyncLine{Content: "ab"}})
	relay, ok := typing.Data.(proto.UserTyping)
	if !ok || relay.Type != "sync" || relay.Content != "ab" || relay.LineContent != "" || relay.UserID != "c1" {
		t.Fatalf("unexpected typing payload: %#v", typing.Data)
	}

	list := outboundFromEvent(&core.Event{Kind: core.EventRoomList})
	if rooms, ok := list.Data.([]proto.RoomSummary); !ok || rooms == nil {
		t.Fatalf("expected empty room array, got %#v", list.Data)
	}
}

func TestAckToProtoCarriesChallenge(t *testing.T) {
	ack := core.Ack{Err: &core.CoreError{
		Kind:      core.KindRateLimited,
		Code:      core.ErrCodeCaptchaRequired,
		Message:   "captcha_required",
		Challenge: &gate.Challenge{ID: "ch1", Question: "2 + 3 = ?"},
	}}

	out := ackToProto(ack)
	if out.Success || out.Code != core.ErrCodeCaptchaRequired || out.Error != "captcha_required" {
		t.Fatalf("unexpected ack: %+v", out)
	}
	if out.Challenge == nil || out.Challenge.ID != "ch1" || out.Challenge.Question != "2 + 3 = ?" {
		t.Fatalf("expected challenge to be mapped, got %+v", out.Challenge)
	}
}
