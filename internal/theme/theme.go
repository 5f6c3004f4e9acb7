// Package theme stores the light/dark preference and tells listeners when
// it changes.
package theme

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"chessclient/internal/logging"
)

// Theme is one of Light or Dark.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"

	Default = Dark
)

// ErrNoPreference is returned by a Backend with nothing stored.
var ErrNoPreference = errors.New("no stored theme")

// Backend persists the preference.
type Backend interface {
	Load() (Theme, error)
	Save(Theme) error
}

// Parse recognises "light" and "dark", case-insensitively.
func Parse(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Normalize maps anything that is not Light to Dark.
func Normalize(t Theme) Theme {
	if t == Light {
		return Light
	}
	return Dark
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if Normalize(t) == Dark {
		return Light
	}
	return Dark
}

// Store resolves, applies and persists the preference.
type Store struct {
	mu        sync.Mutex
	backend   Backend
	system    func() (Theme, bool)
	current   Theme
	resolved  bool
	listeners []func(Theme)
}

// Option configures a Store.
type Option func(*Store)

// WithSystem sets how the operating system preference is detected.
func WithSystem(fn func() (Theme, bool)) Option {
	return func(s *Store) { s.system = fn }
}

// New creates a store. A nil backend keeps the preference in memory only.
func New(b Backend, opts ...Option) *Store {
	if b == nil {
		b = &MemoryBackend{}
	}
	s := &Store{backend: b, system: func() (Theme, bool) { return "", false }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers fn to run whenever the applied theme changes.
func (s *Store) OnChange(fn func(Theme)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Theme returns the stored preference, else the system preference, else
// Default. The result is cached for the session.
func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked()
}

func (s *Store) resolveLocked() Theme {
	if s.resolved {
		return s.current
	}
	s.resolved = true
	s.current = Default

	stored, err := s.backend.Load()
	switch {
	case err == nil:
		if t, ok := Parse(string(stored)); ok {
			s.current = t
			return s.current
		}
		logging.Warnf("ignoring stored theme %q", stored)
	case !errors.Is(err, ErrNoPreference):
		logging.Warnf("theme storage unavailable: %v", err)
	}
	if t, ok := s.system(); ok {
		s.current = Normalize(t)
	}
	return s.current
}

// Apply makes t the active theme and notifies listeners if it changed.
// Applying the active theme again does nothing.
func (s *Store) Apply(t Theme) Theme {
	t = Normalize(t)
	s.mu.Lock()
	prev := s.resolveLocked()
	s.current = t
	listeners := append(([]func(Theme))(nil), s.listeners...)
	s.mu.Unlock()

	if prev != t {
		for _, fn := range listeners {
			fn(t)
		}
	}
	return t
}

// Toggle switches to the opposite theme and persists it. A failing backend
// is logged and the new theme stays in memory.
func (s *Store) Toggle() Theme {
	next := s.Theme().Opposite()
	s.Apply(next)
	if err := s.backend.Save(next); err != nil {
		logging.Warnf("could not save theme: %v", err)
	}
	logging.Debugf("theme toggled to %s", next)
	return next
}

// SystemFromEnv reads the terminal background from COLORFGBG ("fg;bg").
// Background colours 7 and 9-15 are light.
func SystemFromEnv(getenv func(string) string) func() (Theme, bool) {
	return func() (Theme, bool) {
		v := getenv("COLORFGBG")
		if v == "" {
			return "", false
		}
		parts := strings.Split(v, ";")
		bg, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return "", false
		}
		if bg == 7 || (bg >= 9 && bg <= 15) {
			return Light, true
		}
		return Dark, true
	}
}
