// internal/gate/gate.go
package gate

import (
	"sync"

	"golang.org/x/time/rate"
)

// Budgets per connection, in events per second unless noted.
const (
	globalRate = 300 // any inbound event; exceeding this disconnects
	gameRate   = 60  // gameplay state events
	actionRate = 2   // lobby and matchmaking actions

	chatEvents        = 5 // chat messages per chatWindow
	chatWindowSeconds = 5
)

// Verdict is the outcome of admitting one inbound event.
type Verdict int

const (
	// Allow lets the event through.
	Allow Verdict = iota
	// Drop silently discards the event.
	Drop
	// Throttle discards the event and the caller should notify the client.
	Throttle
	// Disconnect means the connection has burned its global budget and
	// must be torn down.
	Disconnect
)

// Limiter holds the per-connection token buckets. One Limiter per socket.
type Limiter struct {
	global *rate.Limiter
	game   *rate.Limiter
	action *rate.Limiter
	chat   *rate.Limiter
}

// NewLimiter builds a Limiter with full buckets.
func NewLimiter() *Limiter {
	return &Limiter{
		global: rate.NewLimiter(rate.Limit(globalRate), globalRate),
		game:   rate.NewLimiter(rate.Limit(gameRate), gameRate),
		action: rate.NewLimiter(rate.Limit(actionRate), actionRate),
		chat:   rate.NewLimiter(rate.Limit(float64(chatEvents)/chatWindowSeconds), chatEvents),
	}
}

// Admit charges the global bucket. Every inbound event goes through here
// first; a connection that floods past the global budget is cut off.
func (l *Limiter) Admit() Verdict {
	if !l.global.Allow() {
		return Disconnect
	}
	return Allow
}

// AdmitGame charges the gameplay bucket on top of the global one.
func (l *Limiter) AdmitGame() Verdict {
	if v := l.Admit(); v != Allow {
		return v
	}
	if !l.game.Allow() {
		return Drop
	}
	return Allow
}

// AdmitAction charges the lobby-action bucket on top of the global one.
func (l *Limiter) AdmitAction() Verdict {
	if v := l.Admit(); v != Allow {
		return v
	}
	if !l.action.Allow() {
		return Drop
	}
	return Allow
}

// AdmitChat charges the chat bucket on top of the global one. Over-limit
// chat gets a Throttle so the sender can be told to slow down.
func (l *Limiter) AdmitChat() Verdict {
	if v := l.Admit(); v != Allow {
		return v
	}
	if !l.chat.Allow() {
		return Throttle
	}
	return Allow
}

// Registry hands out one Limiter per session id.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// For returns the session's Limiter, creating it on first use.
func (r *Registry) For(sessionID string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[sessionID]
	if !ok {
		l = NewLimiter()
		r.limiters[sessionID] = l
	}
	return l
}

// Release drops the session's Limiter after disconnect.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, sessionID)
}
