package game

import (
	"sort"
	"strconv"
	"time"

	"chessclient/internal/protocol"
	"chessclient/internal/view"
)

// New creates an empty game model.
func New(id string) *Game {
	return &Game{
		ID:       id,
		Scores:   make(map[string]int),
		Pieces:   make(map[string]protocol.Piece),
		Marks:    make(map[view.Mark]map[string]struct{}),
		Players:  make(map[string]string),
		Watchers: make(map[chan struct{}]struct{}),
	}
}

// AddWatcher registers a channel that receives a signal after every change.
// Signals are dropped when the channel is full.
func (g *Game) AddWatcher(ch chan struct{}) {
	g.Mu.Lock()
	g.Watchers[ch] = struct{}{}
	g.Mu.Unlock()
}

// RemoveWatcher unregisters a watcher channel.
func (g *Game) RemoveWatcher(ch chan struct{}) {
	g.Mu.Lock()
	delete(g.Watchers, ch)
	g.Mu.Unlock()
}

// update applies fn under the lock and then notifies watchers.
func (g *Game) update(fn func()) {
	g.Mu.Lock()
	fn()
	g.LastSeen = time.Now()
	for ch := range g.Watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	g.Mu.Unlock()
}

func (g *Game) SetCurrentPlayer(label string) {
	g.update(func() { g.CurrentPlayer = label })
}

func (g *Game) SetScore(color string, score int) {
	g.update(func() { g.Scores[color] = score })
}

func (g *Game) MarkSquares(m view.Mark, squares ...string) {
	g.update(func() {
		set, ok := g.Marks[m]
		if !ok {
			set = make(map[string]struct{})
			g.Marks[m] = set
		}
		for _, sq := range squares {
			set[sq] = struct{}{}
		}
	})
}

func (g *Game) ClearSquares(m view.Mark, squares ...string) {
	g.update(func() {
		for _, sq := range squares {
			delete(g.Marks[m], sq)
		}
	})
}

func (g *Game) ClearMark(m view.Mark) {
	g.update(func() { delete(g.Marks, m) })
}

func (g *Game) SetPieces(pieces map[string]protocol.Piece) {
	g.update(func() {
		g.Pieces = make(map[string]protocol.Piece, len(pieces))
		for sq, p := range pieces {
			g.Pieces[sq] = p
		}
	})
}

func (g *Game) AppendHistory(e view.HistoryEntry) {
	g.update(func() { g.History = append(g.History, e) })
}

func (g *Game) SetConnected(connected bool) {
	g.update(func() { g.Connected = connected })
}

func (g *Game) SetHost(isHost bool) {
	g.update(func() { g.IsHost = isHost })
}

func (g *Game) SetPlayerStatus(playerID, status string) {
	g.update(func() { g.Players[playerID] = status })
}

func (g *Game) AppendChat(line view.ChatLine) {
	g.update(func() {
		g.Chat = append(g.Chat, line)
		if len(g.Chat) > maxChatLines {
			g.Chat = append([]view.ChatLine(nil), g.Chat[len(g.Chat)-maxChatLines:]...)
		}
	})
}

// Marked returns the squares carrying m, sorted.
func (g *Game) Marked(m view.Mark) []string {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return markedLocked(g.Marks[m])
}

// ScoreText returns the score of color as displayed.
func (g *Game) ScoreText(color string) string {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return strconv.Itoa(g.Scores[color])
}

// Snapshot copies the current state.
func (g *Game) Snapshot() Snapshot {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	s := Snapshot{
		ID:            g.ID,
		CurrentPlayer: g.CurrentPlayer,
		Scores:        make(map[string]int, len(g.Scores)),
		Pieces:        make(map[string]protocol.Piece, len(g.Pieces)),
		Marks:         make(map[view.Mark][]string, len(g.Marks)),
		History:       append([]view.HistoryEntry(nil), g.History...),
		Chat:          append([]view.ChatLine(nil), g.Chat...),
		Players:       make(map[string]string, len(g.Players)),
		Connected:     g.Connected,
		IsHost:        g.IsHost,
		LastSeen:      g.LastSeen,
	}
	for k, v := range g.Scores {
		s.Scores[k] = v
	}
	for k, v := range g.Pieces {
		s.Pieces[k] = v
	}
	for m, set := range g.Marks {
		s.Marks[m] = markedLocked(set)
	}
	for k, v := range g.Players {
		s.Players[k] = v
	}
	return s
}

// Has reports whether square carries mark m in the snapshot.
func (s Snapshot) Has(m view.Mark, square string) bool {
	for _, sq := range s.Marks[m] {
		if sq == square {
			return true
		}
	}
	return false
}

func markedLocked(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for sq := range set {
		out = append(out, sq)
	}
	sort.Strings(out)
	return out
}
