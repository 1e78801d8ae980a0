package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/typeroom-server/internal/proto"
)

// frame is an outbound server message with its payload left raw.
type frame struct {
	Type  string          `json:"type"`
	ID    *int64          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

type session struct {
	conn *websocket.Conn

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan proto.Ack
	names   map[string]string
	rooms   chan []proto.RoomSummary
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	nick := flag.String("nick", "", "nickname to claim (anonymous when empty)")
	room := flag.String("room", "general", "room name to join or create")
	clientID := flag.String("client-id", "", "stable client id for reconnection")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	target := *addr
	if *clientID != "" {
		target += "?" + proto.ClientIDParam + "=" + url.QueryEscape(*clientID)
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	s := &session{
		conn:    conn,
		pending: make(map[int64]chan proto.Ack),
		names:   make(map[string]string),
		rooms:   make(chan []proto.RoomSummary, 1),
	}

	go func() {
		defer cancel()
		s.readLoop(ctx)
	}()

	lobby := <-s.rooms

	if *nick != "" {
		ack, err := s.call(ctx, proto.InboundSetNickname, proto.SetNicknameData{Nickname: *nick})
		if err != nil {
			return err
		}
		if !ack.Success {
			return fmt.Errorf("set nickname: %s", ack.Error)
		}
	}

	roomID := ""
	for _, r := range lobby {
		if r.Name == *room {
			roomID = r.ID
			break
		}
	}
	if roomID == "" {
		ack, err := s.call(ctx, proto.InboundCreateRoom, proto.CreateRoomData{Name: *room})
		if err != nil {
			return err
		}
		if !ack.Success {
			return fmt.Errorf("create room: %s", ack.Error)
		}
		roomID = ack.RoomID
	}

	joined, err := s.call(ctx, proto.InboundJoinRoom, proto.JoinRoomData{RoomID: roomID})
	if err != nil {
		return err
	}
	if !joined.Success {
		return fmt.Errorf("join room: %s", joined.Error)
	}
	for _, u := range joined.Users {
		s.remember(u)
	}

	fmt.Printf("Connected to %s, room %s with %d member(s)\n", *addr, *room, len(joined.Users))
	fmt.Println("Type lines and press Enter to send. Ctrl+C to exit.")

	s.writeLoop(ctx)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func (s *session) call(ctx context.Context, typ string, data any) (proto.Ack, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return proto.Ack{}, fmt.Errorf("marshal %s: %w", typ, err)
	}

	reply := make(chan proto.Ack, 1)
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.pending[id] = reply
	s.mu.Unlock()

	if err := wsjson.Write(ctx, s.conn, proto.Inbound{Type: typ, ID: &id, Data: payload}); err != nil {
		return proto.Ack{}, fmt.Errorf("send %s: %w", typ, err)
	}
	select {
	case ack := <-reply:
		return ack, nil
	case <-ctx.Done():
		return proto.Ack{}, ctx.Err()
	}
}

func (s *session) remember(u proto.User) {
	s.mu.Lock()
	s.names[u.ID] = u.Nickname
	s.mu.Unlock()
}

func (s *session) name(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.names[id]; ok {
		return n
	}
	return id
}

func (s *session) readLoop(ctx context.Context) {
	for {
		var f frame
		if err := wsjson.Read(ctx, s.conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch f.Type {
		case proto.OutboundTypeAck:
			s.resolve(f)
		case proto.OutboundTypeError:
			if f.Error != nil {
				log.Printf("server error: %v", f.Error)
			}
		case proto.OutboundTypeEvent:
			s.handleEvent(f)
		}
	}
}

func (s *session) resolve(f frame) {
	if f.ID == nil {
		return
	}
	var ack proto.Ack
	if err := json.Unmarshal(f.Data, &ack); err != nil {
		log.Printf("unmarshal ack: %v", err)
		return
	}
	if ack.Challenge != nil {
		fmt.Printf("challenge: %s\n", ack.Challenge.Question)
	}

	s.mu.Lock()
	reply, ok := s.pending[*f.ID]
	delete(s.pending, *f.ID)
	s.mu.Unlock()
	if ok {
		reply <- ack
	}
}

func (s *session) handleEvent(f frame) {
	switch f.Event {
	case proto.EventRoomList:
		var rooms []proto.RoomSummary
		if err := json.Unmarshal(f.Data, &rooms); err != nil {
			log.Printf("unmarshal room_list: %v", err)
			return
		}
		select {
		case s.rooms <- rooms:
		default:
		}
	case proto.EventWelcome, proto.EventUserJoined, proto.EventUserUpdated:
		var u proto.User
		if err := json.Unmarshal(f.Data, &u); err != nil {
			log.Printf("unmarshal %s: %v", f.Event, err)
			return
		}
		s.remember(u)
		switch f.Event {
		case proto.EventWelcome:
			fmt.Printf("you are %s\n", u.Nickname)
		case proto.EventUserJoined:
			fmt.Printf("* %s joined\n", u.Nickname)
		}
	case proto.EventUserLeft:
		var id string
		if err := json.Unmarshal(f.Data, &id); err != nil {
			log.Printf("unmarshal user_left: %v", err)
			return
		}
		fmt.Printf("* %s left\n", s.name(id))
	case proto.EventUserTyping:
		var t proto.UserTyping
		if err := json.Unmarshal(f.Data, &t); err != nil {
			log.Printf("unmarshal user_typing: %v", err)
			return
		}
		if t.Type == "newline" {
			fmt.Printf("%s: %s\n", s.name(t.UserID), t.LineContent)
		}
	}
}

func (s *session) writeLoop(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			if err := s.sendLine(ctx, text); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

// sendLine mirrors the line as the in-progress text, then commits it.
// Challenges are solved automatically.
func (s *session) sendLine(ctx context.Context, text string) error {
	payload, err := json.Marshal(proto.TypeUpdateData{Type: "sync", Content: text})
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, s.conn, proto.Inbound{Type: proto.InboundTypeUpdate, Data: payload}); err != nil {
		return err
	}

	update := proto.TypeUpdateData{Type: "newline", LineContent: text}
	for range 3 {
		ack, err := s.call(ctx, proto.InboundTypeUpdate, update)
		if err != nil {
			return err
		}
		if ack.Success {
			return nil
		}
		if ack.Challenge == nil {
			fmt.Printf("! %s\n", ack.Error)
			return nil
		}
		var a, b int
		if _, err := fmt.Sscanf(ack.Challenge.Question, "%d + %d = ?", &a, &b); err != nil {
			return fmt.Errorf("parse challenge: %w", err)
		}
		update.CaptchaAnswer = proto.Answer{Value: a + b, Set: true}
	}
	return errors.New("challenge not accepted")
}
