// Package toast keeps the short-lived notifications shown to the user.
package toast

import (
	"sync"
	"time"

	"chessclient/internal/clock"
	"chessclient/internal/logging"
)

// Level is the severity of a toast.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 5 * time.Second

// Toast is one notification.
type Toast struct {
	ID      int
	Message string
	Level   Level
	Pinned  bool
}

// Sink holds the visible toasts and expires them.
type Sink struct {
	mu       sync.Mutex
	clock    clock.Clock
	ttl      time.Duration
	nextID   int
	toasts   []Toast
	onChange func()
}

// NewSink creates a sink. A nil clock uses real time; ttl <= 0 uses DefaultTTL.
func NewSink(c clock.Clock, ttl time.Duration) *Sink {
	if c == nil {
		c = clock.Real{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sink{clock: c, ttl: ttl}
}

// OnChange sets a callback run after toasts are added or removed.
func (s *Sink) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Show displays msg until the TTL elapses.
func (s *Sink) Show(msg string, level Level) {
	id := s.add(msg, level, false)
	s.clock.AfterFunc(s.ttl, func() { s.remove(id) })
}

// Pin displays msg until Dismiss is called.
func (s *Sink) Pin(msg string, level Level) int {
	return s.add(msg, level, true)
}

// Dismiss removes a toast.
func (s *Sink) Dismiss(id int) {
	s.remove(id)
}

// Active returns the visible toasts, oldest first.
func (s *Sink) Active() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toast(nil), s.toasts...)
}

func (s *Sink) add(msg string, level Level, pinned bool) int {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.toasts = append(s.toasts, Toast{ID: id, Message: msg, Level: level, Pinned: pinned})
	fn := s.onChange
	s.mu.Unlock()

	logging.Debugf("toast %s: %s", level, msg)
	if fn != nil {
		fn()
	}
	return id
}

func (s *Sink) remove(id int) {
	s.mu.Lock()
	removed := false
	for i, t := range s.toasts {
		if t.ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			removed = true
			break
		}
	}
	fn := s.onChange
	s.mu.Unlock()

	if removed && fn != nil {
		fn()
	}
}
