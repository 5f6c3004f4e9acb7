package game

import (
	"sync"
	"time"

	"chessclient/internal/protocol"
	"chessclient/internal/view"
)

const maxChatLines = 200

// Game is the client-side picture of one game: everything the renderer draws.
// It implements view.View and notifies watchers after each change.
type Game struct {
	Mu            sync.Mutex
	ID            string
	CurrentPlayer string
	Scores        map[string]int
	Pieces        map[string]protocol.Piece
	Marks         map[view.Mark]map[string]struct{}
	History       []view.HistoryEntry
	Chat          []view.ChatLine
	Players       map[string]string // playerID -> status
	Connected     bool
	IsHost        bool
	LastSeen      time.Time
	Watchers      map[chan struct{}]struct{}
}

// Snapshot is a copy of a Game taken under its lock.
type Snapshot struct {
	ID            string
	CurrentPlayer string
	Scores        map[string]int
	Pieces        map[string]protocol.Piece
	Marks         map[view.Mark][]string
	History       []view.HistoryEntry
	Chat          []view.ChatLine
	Players       map[string]string
	Connected     bool
	IsHost        bool
	LastSeen      time.Time
}

var _ view.View = (*Game)(nil)
