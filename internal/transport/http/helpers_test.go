package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/typeroom-server/internal/config"
	"github.com/vovakirdan/typeroom-server/internal/core"
	"github.com/vovakirdan/typeroom-server/internal/proto"
)

// frame is an outbound message with its payload left undecoded.
type frame struct {
	Type  string          `json:"type"`
	ID    *int64          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.RateLimitMax = 1000
	if mutate != nil {
		mutate(&cfg)
	}

	hub := core.NewHub(cfg.HubOptions())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	logger := zerolog.Nop()
	server := NewServer(hub, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// dial connects to /ws and consumes the welcome and room_list frames.
func dial(t *testing.T, ctx context.Context, ts *httptest.Server, clientID string) (*websocket.Conn, proto.User) {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if clientID != "" {
		wsURL += "?" + proto.ClientIDParam + "=" + url.QueryEscape(clientID)
	}
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	welcome := readEvent(t, ctx, conn, proto.EventWelcome)
	var me proto.User
	if err := json.Unmarshal(welcome.Data, &me); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	readEvent(t, ctx, conn, proto.EventRoomList)
	return conn, me
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()

	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

// readEvent skips frames until an event with the given name arrives.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string) frame {
	t.Helper()

	for {
		f := readFrame(t, ctx, conn)
		if f.Type == proto.OutboundTypeEvent && f.Event == name {
			return f
		}
	}
}

var nextCallID int64

// call sends a frame with an ack id and waits for the matching ack.
func call(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) proto.Ack {
	t.Helper()

	nextCallID++
	id := nextCallID
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, ID: &id, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}

	for {
		f := readFrame(t, ctx, conn)
		if f.Type != proto.OutboundTypeAck || f.ID == nil || *f.ID != id {
			continue
		}
		var ack proto.Ack
		if err := json.Unmarshal(f.Data, &ack); err != nil {
			t.Fatalf("decode ack: %v", err)
		}
		return ack
	}
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}
