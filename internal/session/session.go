// Package session owns the live connection to the game server: connecting,
// reconnecting with backoff, sending intents and dispatching what the server
// pushes back.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chessclient/internal/board"
	"chessclient/internal/clock"
	"chessclient/internal/game"
	"chessclient/internal/logging"
	"chessclient/internal/protocol"
	"chessclient/internal/toast"
	"chessclient/internal/view"
)

var (
	// ErrNotConnected is returned when sending without an open connection.
	// The message is dropped.
	ErrNotConnected = errors.New("not connected")
	// ErrDestroyed is returned by Connect after Disconnect(true).
	ErrDestroyed = errors.New("session destroyed")
	// ErrExhausted is returned by Connect once reconnecting has given up.
	ErrExhausted = errors.New("reconnect attempts exhausted")
	// ErrCancelled is returned by a Connect whose dial was overtaken by
	// Disconnect(false). The session is idle and may Connect again.
	ErrCancelled = errors.New("connect cancelled")
)

const (
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxAttempts = 5

	// LostMessage is shown once reconnecting has given up.
	LostMessage = "Connection lost. Please reload the client."

	writeWait = 5 * time.Second
)

// Board receives authoritative game updates.
type Board interface {
	UpdateBoard(protocol.GameStateData)
	ShowMove(protocol.MoveMade)
}

// Notifier shows toasts.
type Notifier interface {
	Show(msg string, level toast.Level)
	Pin(msg string, level toast.Level) int
}

// MoveArchive records the moves seen in a game.
type MoveArchive interface {
	RecordMove(ctx context.Context, gameID string, number int, player, from, to string) error
}

// Options configures a Session. URL is the full game endpoint, see
// config.GameURL. Zero BaseDelay and MaxAttempts use the defaults; a zero
// PingInterval disables keepalives.
type Options struct {
	URL          string
	GameID       string
	PlayerID     string
	UserAgent    string
	BaseDelay    time.Duration
	MaxAttempts  int
	PingInterval time.Duration

	Dial     DialFunc
	Clock    clock.Clock
	View     view.View
	Board    Board
	Notifier Notifier
	Archive  MoveArchive

	// ArchivedMoves is how many moves of this game are already archived;
	// numbering continues after them.
	ArchivedMoves int
}

// Session is the one connection of a client to one game.
type Session struct {
	opts Options

	mu       sync.Mutex
	state    State
	conn     Transport
	attempts int
	isHost   bool
	moves    int
	retry    clock.Timer
	ping     clock.Timer

	// dispatchMu keeps inbound handling strictly one message at a time.
	dispatchMu sync.Mutex
}

// New creates an idle session. Nothing is dialed until Connect.
func New(opts Options) *Session {
	if opts.Dial == nil {
		opts.Dial = WebsocketDialer()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.View == nil {
		opts.View = game.New(opts.GameID)
	}
	if opts.Board == nil {
		opts.Board = board.New(opts.View, board.Options{Player: opts.PlayerID, Clock: opts.Clock})
	}
	if opts.Notifier == nil {
		opts.Notifier = toast.NewSink(opts.Clock, 0)
	}
	return &Session{opts: opts, moves: opts.ArchivedMoves}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns the reconnect counter.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// IsHost reports whether the server named this player host.
func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isHost
}

// PlayerID returns the local participant id.
func (s *Session) PlayerID() string {
	return s.opts.PlayerID
}

// Connect dials the server. It does nothing while a connection is open or
// being opened, so at most one transport exists at a time. A failed dial
// schedules a reconnect and returns the dial error.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateConnecting, StateOpen, StateClosing:
		s.mu.Unlock()
		logging.Debugf("connection already exists or in progress")
		return nil
	case StateDestroyed:
		s.mu.Unlock()
		return ErrDestroyed
	case StateExhausted:
		s.mu.Unlock()
		return ErrExhausted
	}
	s.state = StateConnecting
	s.mu.Unlock()

	header := http.Header{}
	if s.opts.UserAgent != "" {
		header.Set("User-Agent", s.opts.UserAgent)
	}
	logging.Infof("connecting to %s", s.opts.URL)
	conn, err := s.opts.Dial(ctx, s.opts.URL, header)

	s.mu.Lock()
	if s.state != StateConnecting {
		// Disconnect ran while dialing.
		destroyed := s.state == StateDestroyed
		s.mu.Unlock()
		if conn != nil {
			closeNormally(conn, "client disconnect")
		}
		if destroyed {
			return ErrDestroyed
		}
		return ErrCancelled
	}
	if err != nil {
		logging.Warnf("connect failed: %v", err)
		exhausted := s.scheduleReconnectLocked()
		s.opts.View.SetConnected(false)
		s.mu.Unlock()
		if exhausted {
			s.notifyExhausted()
		}
		return fmt.Errorf("dial %s: %w", s.opts.URL, err)
	}
	s.conn = conn
	s.state = StateOpen
	s.attempts = 0
	s.schedulePingLocked()
	s.opts.View.SetConnected(true)
	s.mu.Unlock()

	logging.Infof("connected to game %s as %s", s.opts.GameID, s.opts.PlayerID)
	go s.readLoop(conn)
	return nil
}

// Disconnect closes the connection with a normal closure. An intentional
// disconnect destroys the session: pending and future reconnects are
// suppressed. Otherwise the session returns to idle and may Connect again.
func (s *Session) Disconnect(intentional bool) {
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.stopRetryLocked()
	s.stopPingLocked()
	if intentional {
		s.state = StateDestroyed
		s.conn = nil
		s.opts.View.SetConnected(false)
	} else if conn != nil {
		s.state = StateClosing
	} else if !s.state.Terminal() {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if conn != nil {
		closeNormally(conn, "client disconnect")
	}
}

// Send encodes msg and writes it when the connection is open. Otherwise the
// message is dropped with a warning and ErrNotConnected is returned.
func (s *Session) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.conn == nil {
		logging.Warnf("not connected, cannot send message: %s", data)
		return ErrNotConnected
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logging.Warnf("send failed: %v", err)
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// SendMove sends a move intent.
func (s *Session) SendMove(m protocol.MoveIntent) error {
	if m.Player == "" {
		m.Player = s.opts.PlayerID
	}
	return s.Send(protocol.NewMove(m))
}

// Resign gives up the game.
func (s *Session) Resign() error {
	return s.Send(protocol.NewResign(s.opts.PlayerID))
}

// OfferDraw proposes a draw.
func (s *Session) OfferDraw() error {
	return s.Send(protocol.NewOfferDraw(s.opts.PlayerID))
}

// Ping sends a keepalive.
func (s *Session) Ping() error {
	return s.Send(protocol.NewPing())
}

// Leave tells the server the player is leaving and destroys the session.
func (s *Session) Leave() error {
	err := s.Send(protocol.NewLeaveGame(s.opts.PlayerID))
	s.Disconnect(true)
	return err
}

func (s *Session) readLoop(conn Transport) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleClose(conn, err)
			return
		}
		s.HandleMessage(data)
	}
}

func (s *Session) handleClose(conn Transport, err error) {
	s.mu.Lock()
	if s.conn != conn {
		// Replaced or torn down by Disconnect.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.stopPingLocked()

	exhausted := false
	switch {
	case s.state == StateDestroyed:
	case s.state == StateClosing, websocket.IsCloseError(err, websocket.CloseNormalClosure):
		logging.Infof("connection closed")
		s.state = StateIdle
	default:
		logging.Warnf("connection lost: %v", err)
		s.state = StateClosed
		exhausted = s.scheduleReconnectLocked()
	}
	s.opts.View.SetConnected(false)
	s.mu.Unlock()

	_ = conn.Close()
	if exhausted {
		s.notifyExhausted()
	}
}

// scheduleReconnectLocked arms the next attempt. Attempt k waits
// BaseDelay*k. It reports true when the attempts are used up.
func (s *Session) scheduleReconnectLocked() bool {
	if s.state == StateDestroyed {
		return false
	}
	// A manual Connect can fail while an earlier attempt is still armed.
	s.stopRetryLocked()
	if s.attempts >= s.opts.MaxAttempts {
		s.state = StateExhausted
		logging.Errorf("max reconnection attempts reached")
		return true
	}
	s.attempts++
	delay := s.opts.BaseDelay * time.Duration(s.attempts)
	s.state = StateReconnecting
	logging.Infof("reconnecting in %s (%d/%d)", delay, s.attempts, s.opts.MaxAttempts)
	s.retry = s.opts.Clock.AfterFunc(delay, s.reconnect)
	return false
}

func (s *Session) reconnect() {
	s.mu.Lock()
	if s.state != StateReconnecting {
		// Destroyed or reconnected by hand in the meantime.
		s.mu.Unlock()
		return
	}
	s.retry = nil
	s.mu.Unlock()

	if err := s.Connect(context.Background()); err != nil {
		logging.Debugf("reconnect: %v", err)
	}
}

func (s *Session) stopRetryLocked() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}

func (s *Session) schedulePingLocked() {
	if s.opts.PingInterval <= 0 {
		return
	}
	s.ping = s.opts.Clock.AfterFunc(s.opts.PingInterval, s.keepalive)
}

func (s *Session) stopPingLocked() {
	if s.ping != nil {
		s.ping.Stop()
		s.ping = nil
	}
}

func (s *Session) keepalive() {
	if err := s.Ping(); err != nil {
		return
	}
	s.mu.Lock()
	if s.state == StateOpen {
		s.schedulePingLocked()
	}
	s.mu.Unlock()
}

func (s *Session) notifyExhausted() {
	s.opts.Notifier.Pin(LostMessage, toast.Error)
}

func closeNormally(conn Transport, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}
