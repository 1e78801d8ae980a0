package proto

import (
	"encoding/json"
	"testing"
)

func TestAnswerUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *int
	}{
		{name: "number", input: `{"captchaAnswer":7}`, want: intPtr(7)},
		{name: "numeric string", input: `{"captchaAnswer":" 12 "}`, want: intPtr(12)},
		{name: "null", input: `{"captchaAnswer":null}`, want: nil},
		{name: "missing", input: `{}`, want: nil},
		{name: "empty string", input: `{"captchaAnswer":""}`, want: nil},
		{name: "garbage", input: `{"captchaAnswer":"seven"}`, want: intPtr(-1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var data JoinRoomData
			if err := json.Unmarshal([]byte(tc.input), &data); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got := data.CaptchaAnswer.Ptr()
			switch {
			case tc.want == nil && got != nil:
				t.Fatalf("expected no answer, got %d", *got)
			case tc.want != nil && (got == nil || *got != *tc.want):
				t.Fatalf("expected %d, got %v", *tc.want, got)
			}
		})
	}
}

func TestInboundAckID(t *testing.T) {
	var in Inbound
	if err := json.Unmarshal([]byte(`{"type":"create_room","id":3,"data":{"name":"lobby"}}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.ID == nil || *in.ID != 3 || in.Type != InboundCreateRoom {
		t.Fatalf("unexpected inbound: %+v", in)
	}

	var create CreateRoomData
	if err := json.Unmarshal(in.Data, &create); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if create.Name != "lobby" || create.CaptchaAnswer.Set {
		t.Fatalf("unexpected create data: %+v", create)
	}
}

func intPtr(v int) *int { return &v }
