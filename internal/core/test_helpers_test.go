package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func startHub(t *testing.T, mutate func(*Options)) (*Hub, *testClock) {
	t.Helper()

	clock := newTestClock()
	opts := DefaultOptions()
	opts.Now = clock.Now
	if mutate != nil {
		mutate(&opts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(opts)
	go hub.Run(ctx)
	return hub, clock
}

// connect registers a client and returns it with its welcome record.
func connect(t *testing.T, hub *Hub, id, clientID string) (*Client, *UserView) {
	t.Helper()

	c := NewClient(id, clientID)
	hub.RegisterClient(c)
	ev := mustEvent(t, c.Events, EventWelcome)
	mustEvent(t, c.Events, EventRoomList)
	return c, ev.User
}

func do(t *testing.T, c *Client, cmd *Command) Ack {
	t.Helper()

	cmd.Reply = make(chan Ack, 1)
	c.Commands <- cmd
	select {
	case ack := <-cmd.Reply:
		return ack
	case <-time.After(2 * time.Second):
		t.Fatalf("no ack for %s", cmd.Kind)
		return Ack{}
	}
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNext returns the next event on ch, whatever its kind.
func mustNext(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
		return nil
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func solve(t *testing.T, err *CoreError) *int {
	t.Helper()

	if err == nil || err.Challenge == nil {
		t.Fatalf("expected a challenge, got %+v", err)
	}
	var a, b int
	if _, scanErr := fmt.Sscanf(err.Challenge.Question, "%d + %d = ?", &a, &b); scanErr != nil {
		t.Fatalf("parse challenge %q: %v", err.Challenge.Question, scanErr)
	}
	sum := a + b
	return &sum
}

func snapshot(t *testing.T, hub *Hub) []RoomSummary {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rooms, err := hub.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return rooms
}

func stats(t *testing.T, hub *Hub) Stats {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := hub.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	return st
}

// settle waits until the hub has finished every handler queued so far.
func settle(t *testing.T, hub *Hub) {
	t.Helper()
	stats(t, hub)
}

func noGate(o *Options) {
	o.Gate.Max = 1000
}
