package session

import (
	"context"
	"fmt"
	"time"

	"chessclient/internal/board"
	"chessclient/internal/logging"
	"chessclient/internal/protocol"
	"chessclient/internal/toast"
	"chessclient/internal/view"
)

const archiveTimeout = 5 * time.Second

// HandleMessage decodes one inbound frame and applies it. Malformed frames
// and unknown types are logged and dropped; nothing escapes as a panic.
func (s *Session) HandleMessage(data []byte) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("handling message %s: %v", data, r)
		}
	}()

	msg, err := protocol.Decode(data)
	if err != nil {
		logging.Warnf("dropping message: %v", err)
		return
	}
	logging.Debugf("received %s", msg.MessageType())
	s.dispatch(msg)
}

func (s *Session) dispatch(msg protocol.Message) {
	v, n := s.opts.View, s.opts.Notifier

	switch m := msg.(type) {
	case protocol.ConnectionEstablished:
		id := m.PlayerID
		if id == "" {
			id = s.opts.PlayerID
		}
		s.setHost(m.IsHost)
		n.Show(fmt.Sprintf("Connected as %s", id), toast.Success)

	case protocol.GameState:
		s.opts.Board.UpdateBoard(m.Data)
		if m.IsHost != nil {
			s.setHost(*m.IsHost)
		}

	case protocol.MoveMade:
		s.opts.Board.ShowMove(m)
		v.AppendHistory(view.HistoryEntry{
			Player: board.Label(m.Player),
			From:   m.From,
			To:     m.To,
			At:     s.opts.Clock.Now(),
		})
		s.archive(m)

	case protocol.PlayerJoined:
		n.Show(fmt.Sprintf("%s joined the game", m.PlayerID), toast.Info)
		v.SetPlayerStatus(m.PlayerID, view.StatusConnected)

	case protocol.PlayerLeft:
		n.Show(fmt.Sprintf("%s left the game", m.PlayerID), toast.Warning)
		status := view.StatusLeft
		if m.Disconnected {
			status = view.StatusDisconnected
		}
		v.SetPlayerStatus(m.PlayerID, status)

	case protocol.HostMigration:
		if m.NewHost == s.opts.PlayerID {
			s.setHost(true)
			n.Show("You are now the host", toast.Success)
		} else {
			s.setHost(false)
			n.Show(fmt.Sprintf("%s is now the host", m.NewHost), toast.Info)
		}

	case protocol.ChatMessage:
		v.AppendChat(view.ChatLine{Player: m.Player, Message: m.Message, At: s.opts.Clock.Now()})

	default:
		logging.Infof("unknown message type: %s", msg.MessageType())
	}
}

func (s *Session) setHost(isHost bool) {
	s.mu.Lock()
	s.isHost = isHost
	s.mu.Unlock()
	s.opts.View.SetHost(isHost)
}

// archive stores the move in the background so a slow database never holds
// up dispatch.
func (s *Session) archive(m protocol.MoveMade) {
	if s.opts.Archive == nil {
		return
	}
	s.mu.Lock()
	s.moves++
	number := s.moves
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := s.opts.Archive.RecordMove(ctx, s.opts.GameID, number, m.Player, m.From, m.To); err != nil {
			logging.Warnf("archive move %d: %v", number, err)
		}
	}()
}
