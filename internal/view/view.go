// Package view declares what the connection and board logic may change on
// screen, so both can run against an in-memory model or a recording stub.
package view

import (
	"time"

	"chessclient/internal/protocol"
)

// Mark is a visual flag on a square.
type Mark string

const (
	Selected  Mark = "selected"
	Candidate Mark = "valid-move"
	LastMove  Mark = "last-move"
)

// Player connection states shown in the roster.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusLeft         = "left"
)

// HistoryEntry is one line of the move list.
type HistoryEntry struct {
	Player string // display label, e.g. "Red"
	From   string
	To     string
	At     time.Time
}

// Notation renders the move as "e2-e4".
func (e HistoryEntry) Notation() string {
	return e.From + "-" + e.To
}

func (e HistoryEntry) String() string {
	return e.Player + " " + e.Notation()
}

// ChatLine is one chat message.
type ChatLine struct {
	Player  string
	Message string
	At      time.Time
}

// View is the set of updates the client makes to what the user sees.
type View interface {
	SetCurrentPlayer(label string)
	SetScore(color string, score int)
	MarkSquares(m Mark, squares ...string)
	ClearSquares(m Mark, squares ...string)
	ClearMark(m Mark)
	SetPieces(pieces map[string]protocol.Piece)
	AppendHistory(e HistoryEntry)
	SetConnected(connected bool)
	SetHost(isHost bool)
	SetPlayerStatus(playerID, status string)
	AppendChat(line ChatLine)
}
