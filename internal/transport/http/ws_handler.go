package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/typeroom-server/internal/config"
	"github.com/vovakirdan/typeroom-server/internal/core"
	"github.com/vovakirdan/typeroom-server/internal/proto"
	"github.com/vovakirdan/typeroom-server/internal/utils"
)

// clientIDHeader is accepted when the handshake query carries no clientId.
const clientIDHeader = "X-Client-Id"

const outboundBuffer = 16

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub Hub
	cfg *config.Config
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.AllowedOrigins,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.cfg.MaxFrameBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxFrameBytes)
	}

	clientID := r.URL.Query().Get(proto.ClientIDParam)
	if clientID == "" {
		clientID = r.Header.Get(clientIDHeader)
	}

	client := core.NewClient(utils.NewConnID(), clientID)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	h.log.Debug().
		Str("conn_id", client.ID).
		Bool("has_client_id", clientID != "").
		Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make(chan proto.Outbound, outboundBuffer)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, out)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, out)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, out chan<- proto.Outbound) error {
	limiter := newFrameLimiter(h.cfg.FrameRate, h.cfg.FrameBurst)

	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		// Every frame counts against the limiter, well-formed or not.
		if !limiter.allow() {
			h.log.Debug().Str("conn_id", client.ID).Int("bytes", len(payload)).Msg("frame dropped by flood limiter")
			if id := frameID(payload); id != nil {
				h.enqueue(ctx, out, proto.Outbound{
					Type: proto.OutboundTypeAck,
					ID:   id,
					Data: proto.Ack{Error: "Too many messages", Code: codeFloodLimited},
				})
			}
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(payload, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("malformed frame")
			h.enqueue(ctx, out, errorFrame(badRequest("malformed frame")))
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.log.Debug().Str("conn_id", client.ID).Str("code", protoErr.Code).Msg(protoErr.Msg)
			if inbound.ID != nil {
				h.enqueue(ctx, out, proto.Outbound{
					Type: proto.OutboundTypeAck,
					ID:   inbound.ID,
					Data: proto.Ack{Error: protoErr.Msg, Code: protoErr.Code},
				})
			} else {
				h.enqueue(ctx, out, errorFrame(protoErr))
			}
			continue
		}

		if inbound.ID != nil {
			cmd.Reply = make(chan core.Ack, 1)
			go h.awaitAck(ctx, *inbound.ID, cmd.Reply, out)
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// awaitAck forwards the hub's reply as an ack frame carrying the call id.
func (h *WSHandler) awaitAck(ctx context.Context, id int64, reply <-chan core.Ack, out chan<- proto.Outbound) {
	select {
	case ack := <-reply:
		h.enqueue(ctx, out, proto.Outbound{
			Type: proto.OutboundTypeAck,
			ID:   &id,
			Data: ackToProto(ack),
		})
	case <-ctx.Done():
	}
}

func (h *WSHandler) enqueue(ctx context.Context, out chan<- proto.Outbound, msg proto.Outbound) {
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, out <-chan proto.Outbound) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case msg := <-out:
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws frame")
				return err
			}
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// frameID extracts only the call id of a frame so a dropped call can still be
// acknowledged. Malformed frames yield nil.
func frameID(payload []byte) *int64 {
	var head struct {
		ID *int64 `json:"id"`
	}
	if json.Unmarshal(payload, &head) != nil {
		return nil
	}
	return head.ID
}

func errorFrame(e *proto.Error) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: e}
}
