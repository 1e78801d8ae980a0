// Package gate throttles state-mutating actions per connection and escalates
// to an arithmetic challenge once a connection exceeds its allowance.
package gate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of a gated call.
type Outcome int

const (
	// Allowed means the action may proceed.
	Allowed Outcome = iota
	// CaptchaRequired means the connection is blocked and no answer was supplied.
	CaptchaRequired
	// IncorrectAnswer means the connection is blocked and the supplied answer was wrong.
	IncorrectAnswer
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case CaptchaRequired:
		return "captcha_required"
	case IncorrectAnswer:
		return "incorrect_answer"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Config tunes the window and the block.
type Config struct {
	Window time.Duration
	Max    int
	Block  time.Duration
}

// DefaultConfig allows 3 actions per 10 seconds and blocks for a minute.
func DefaultConfig() Config {
	return Config{
		Window: 10 * time.Second,
		Max:    3,
		Block:  time.Minute,
	}
}

// Challenge is the client-facing part of a pending challenge. The answer never leaves the gate.
type Challenge struct {
	ID       string
	Question string
}

// Decision is returned by Check.
type Decision struct {
	Outcome   Outcome
	Challenge *Challenge
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Allowed }

type challenge struct {
	Challenge
	answer int
}

type state struct {
	windowCount  int
	windowStart  time.Time
	blockedUntil time.Time
	pending      *challenge
}

// Gate keeps one rate state per connection. It is not safe for concurrent use;
// the hub owns it.
type Gate struct {
	cfg    Config
	now    func() time.Time
	intn   func(n int) int
	states map[string]*state
}

// Option customizes a Gate.
type Option func(*Gate)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithRand overrides the source of challenge operands. intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(g *Gate) { g.intn = intn }
}

// New builds a gate.
func New(cfg Config, opts ...Option) *Gate {
	g := &Gate{
		cfg:    cfg,
		now:    time.Now,
		intn:   rand.IntN,
		states: make(map[string]*state),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check accounts for one gated action by connID. answer is the candidate
// challenge answer, nil when the caller supplied none.
func (g *Gate) Check(connID string, answer *int) Decision {
	now := g.now()
	st, ok := g.states[connID]
	if !ok {
		st = &state{windowStart: now}
		g.states[connID] = st
	}

	if now.Before(st.blockedUntil) && st.pending != nil {
		if answer == nil {
			return Decision{Outcome: CaptchaRequired, Challenge: st.pending.view()}
		}
		if *answer != st.pending.answer {
			return Decision{Outcome: IncorrectAnswer, Challenge: st.pending.view()}
		}
		st.blockedUntil = time.Time{}
		st.windowCount = 0
		st.windowStart = now
		st.pending = nil
		return Decision{Outcome: Allowed}
	}
	st.pending = nil

	if now.Sub(st.windowStart) > g.cfg.Window {
		st.windowCount = 0
	}
	st.windowCount++
	st.windowStart = now

	if st.windowCount > g.cfg.Max {
		st.blockedUntil = now.Add(g.cfg.Block)
		st.pending = g.newChallenge()
		return Decision{Outcome: CaptchaRequired, Challenge: st.pending.view()}
	}
	return Decision{Outcome: Allowed}
}

// Blocked reports whether connID currently has to solve a challenge.
func (g *Gate) Blocked(connID string) bool {
	st, ok := g.states[connID]
	return ok && st.pending != nil && g.now().Before(st.blockedUntil)
}

// Forget discards the state of a closed connection.
func (g *Gate) Forget(connID string) {
	delete(g.states, connID)
}

// Len reports how many connections have rate state.
func (g *Gate) Len() int {
	return len(g.states)
}

func (g *Gate) newChallenge() *challenge {
	a := g.intn(10) + 1
	b := g.intn(10) + 1
	return &challenge{
		Challenge: Challenge{
			ID:       uuid.NewString(),
			Question: fmt.Sprintf("%d + %d = ?", a, b),
		},
		answer: a + b,
	}
}

func (c *challenge) view() *Challenge {
	v := c.Challenge
	return &v
}
