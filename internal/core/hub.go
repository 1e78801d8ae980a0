package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/typeroom-server/internal/gate"
	"github.com/vovakirdan/typeroom-server/internal/identity"
)

// Options configures a Hub.
type Options struct {
	Limits        Limits
	Gate          gate.Config
	GracePeriod   time.Duration
	IdentityTTL   time.Duration
	SweepInterval time.Duration

	// Now and ChallengeIntn are overridable for tests.
	Now           func() time.Time
	ChallengeIntn func(n int) int
	Logger        *zerolog.Logger
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Limits:        DefaultLimits(),
		Gate:          gate.DefaultConfig(),
		GracePeriod:   15 * time.Second,
		IdentityTTL:   24 * time.Hour,
		SweepInterval: time.Hour,
	}
}

// Stats is a point-in-time count of hub state.
type Stats struct {
	Users       int
	Connections int
	Rooms       int
	Identities  int
}

type envelope struct {
	client *Client
	cmd    *Command
}

// Hub owns every piece of shared state: live users, rooms, identities and
// rate states. All mutations happen on the goroutine running Run.
type Hub struct {
	opts Options
	log  *zerolog.Logger
	now  func() time.Time

	register   chan *Client
	unregister chan *Client
	commands   chan envelope
	calls      chan func()
	stopped    chan struct{}

	clients    map[string]*Client
	users      map[string]*User
	nicknames  map[string]int
	identities *identity.Store
	gate       *gate.Gate
	rooms      *Registry
	lineSeq    int64
}

// NewHub creates a new hub instance. Call Run to start it.
func NewHub(opts Options) *Hub {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	gateOpts := []gate.Option{gate.WithClock(opts.Now)}
	if opts.ChallengeIntn != nil {
		gateOpts = append(gateOpts, gate.WithRand(opts.ChallengeIntn))
	}

	return &Hub{
		opts:       opts,
		log:        logger,
		now:        opts.Now,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan envelope, 256),
		calls:      make(chan func(), 64),
		stopped:    make(chan struct{}),
		clients:    make(map[string]*Client),
		users:      make(map[string]*User),
		nicknames:  make(map[string]int),
		identities: identity.NewStore(opts.IdentityTTL, opts.Now),
		gate:       gate.New(opts.Gate, gateOpts...),
		rooms:      NewRegistry(opts.Limits.RoomCapacity, opts.Now),
	}
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	sweepEvery := h.opts.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = time.Hour
	}
	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.connect(c)
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.disconnect(c)
		case env := <-h.commands:
			h.dispatch(env.client, env.cmd)
		case fn := <-h.calls:
			fn()
		case <-sweep.C:
			if removed := h.identities.Sweep(); removed > 0 {
				h.log.Info().Int("removed", removed).Msg("expired identities swept")
			}
		}
	}
}

// RegisterClient connects a client to the hub. The hub sends it a welcome
// and the room list, then starts consuming its Commands.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

// UnregisterClient reports that the client's transport has gone away.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Snapshot returns the current lobby view.
func (h *Hub) Snapshot(ctx context.Context) ([]RoomSummary, error) {
	var out []RoomSummary
	err := h.call(ctx, func() { out = h.rooms.Summaries() })
	return out, err
}

// Stats returns counts of the hub's state.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := h.call(ctx, func() {
		st = Stats{
			Users:       len(h.users),
			Connections: len(h.clients),
			Rooms:       h.rooms.Len(),
			Identities:  h.identities.Len(),
		}
	})
	return st, err
}

// call runs fn on the hub goroutine and waits for it to finish.
func (h *Hub) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	select {
	case h.calls <- wrapped:
	case <-h.stopped:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-h.stopped:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post schedules fn on the hub goroutine without waiting. Used by timers.
func (h *Hub) post(fn func()) {
	select {
	case h.calls <- fn:
	case <-h.stopped:
	}
}

func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.commands <- envelope{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	if h.clients[c.ID] != c {
		return
	}
	u, ok := h.users[c.ID]
	if !ok {
		return
	}

	switch cmd.Kind {
	case CommandSetNickname:
		h.setNickname(u, cmd)
	case CommandCreateRoom:
		h.createRoom(u, cmd)
	case CommandDeleteRoom:
		h.deleteRoom(u, cmd)
	case CommandJoinRoom:
		h.joinRoom(u, cmd)
	case CommandLeaveRoom:
		h.leaveRoom(u)
		cmd.reply(Ack{Success: true})
	case CommandTyping:
		h.handleTyping(u, cmd)
	default:
		cmd.reply(failure(coreError(KindValidation, ErrCodeBadRequest, "Unknown command")))
	}
}

func (h *Hub) shutdown() {
	for _, u := range h.users {
		u.cancelGrace()
	}
	for id, c := range h.clients {
		close(c.done)
		delete(h.clients, id)
	}
}

// send delivers an event to one connection, dropping it for slow consumers.
func (h *Hub) send(connID string, ev *Event) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("conn_id", connID).Stringer("event", ev.Kind).Msg("dropping event for slow consumer")
	}
}

// broadcastRoom sends ev to every live member of roomID except skip.
func (h *Hub) broadcastRoom(roomID, skip string, ev *Event) {
	room, ok := h.rooms.Get(roomID)
	if !ok {
		return
	}
	for _, id := range room.members {
		if id == skip {
			continue
		}
		h.send(id, ev)
	}
}

// broadcastRoomList pushes the lobby view to every live connection.
func (h *Hub) broadcastRoomList() {
	ev := &Event{Kind: EventRoomList, Rooms: h.rooms.Summaries()}
	for id := range h.clients {
		h.send(id, ev)
	}
}
