package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chessclient/internal/board"
	"chessclient/internal/clock"
	"chessclient/internal/game"
	"chessclient/internal/toast"
)

type fakeConn struct {
	mu       sync.Mutex
	in       chan []byte
	done     chan struct{}
	closed   bool
	closeErr error
	written  [][]byte
	controls [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 16), done: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.in:
		return websocket.TextMessage, data, nil
	case <-c.done:
		c.mu.Lock()
		err := c.closeErr
		c.mu.Unlock()
		if err == nil {
			err = errors.New("use of closed network connection")
		}
		return 0, nil, err
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed connection")
	}
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) WriteControl(_ int, data []byte, _ time.Time) error {
	c.mu.Lock()
	c.controls = append(c.controls, data)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.drop(nil)
	return nil
}

// drop ends the read loop with err, as a network failure or server close would.
func (c *fakeConn) drop(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeErr = err
	close(c.done)
}

func (c *fakeConn) writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

func (c *fakeConn) closeFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.controls...)
}

type fakeDialer struct {
	mu      sync.Mutex
	fail    error
	calls   int
	conns   []*fakeConn
	headers []http.Header
	// gate, when set, holds every dial until it is closed.
	gate chan struct{}
}

func (d *fakeDialer) dial(_ context.Context, _ string, h http.Header) (Transport, error) {
	d.mu.Lock()
	gate := d.gate
	d.mu.Unlock()
	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.headers = append(d.headers, h)
	if d.fail != nil {
		return nil, d.fail
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) setFail(err error) {
	d.mu.Lock()
	d.fail = err
	d.mu.Unlock()
}

func (d *fakeDialer) hold() chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gate = make(chan struct{})
	return d.gate
}

func (d *fakeDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

// leakyClock hands out timers that ignore Stop, so only the session's own
// state checks can keep a stale callback from acting.
type leakyClock struct{ *clock.Manual }

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (c leakyClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.Manual.AfterFunc(d, f)
	return leakyTimer{}
}

type harness struct {
	s      *Session
	game   *game.Game
	board  *board.Board
	toasts *toast.Sink
	clock  *clock.Manual
	dialer *fakeDialer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithClock(t, nil)
}

func newHarnessWithClock(t *testing.T, c clock.Clock) *harness {
	t.Helper()
	m := clock.NewManual(time.Unix(0, 0))
	if c == nil {
		c = m
	} else if lc, ok := c.(leakyClock); ok {
		m = lc.Manual
	}
	g := game.New("g1")
	b := board.New(g, board.Options{Player: "red", Variant: "chaturaji", Clock: c})
	sink := toast.NewSink(c, 0)
	d := &fakeDialer{}
	s := New(Options{
		URL:       "ws://test/ws/game/g1?player_id=p1",
		GameID:    "g1",
		PlayerID:  "p1",
		UserAgent: "chessclient/test",
		Dial:      d.dial,
		Clock:     c,
		View:      g,
		Board:     b,
		Notifier:  sink,
	})
	b.SetSender(s)
	return &harness{s: s, game: g, board: b, toasts: sink, clock: m, dialer: d}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
