// Package notify holds the single-slot toast model: one message per
// user-initiated action, auto-dismissed, never stacking.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

type Toast struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier struct {
	mu      sync.Mutex
	current *Toast
	ttl     time.Duration
	now     func() time.Time // for tests
}

func New(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = 6 * time.Second
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

// Push replaces the current toast. A new message never waits for the
// previous one to be dismissed.
func (n *Notifier) Push(level Level, message string) Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	t := Toast{ID: uuid.NewString(), Level: level, Message: message, At: n.now()}
	n.current = &t
	return t
}

// Current returns the visible toast, or nil once it has aged out.
func (n *Notifier) Current() *Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	if n.now().Sub(n.current.At) >= n.ttl {
		n.current = nil
		return nil
	}
	t := *n.current
	return &t
}

// Dismiss clears the toast early.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = nil
}
