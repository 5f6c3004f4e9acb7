// Package board turns clicks and drags into move intents and shows what the
// server reports about the game.
package board

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"chessclient/internal/clock"
	"chessclient/internal/logging"
	"chessclient/internal/protocol"
	"chessclient/internal/view"
)

// DefaultHighlight is how long the squares of the last move stay marked.
const DefaultHighlight = 2 * time.Second

// Sender delivers move intents to the server.
type Sender interface {
	SendMove(protocol.MoveIntent) error
}

// Options configures a Board.
type Options struct {
	Player       string
	Variant      string
	Clock        clock.Clock
	HighlightFor time.Duration
}

// Board tracks the selection and the local copy of piece placement.
type Board struct {
	mu           sync.Mutex
	view         view.View
	sender       Sender
	clock        clock.Clock
	highlightFor time.Duration
	player       string
	variant      string
	selected     string
	current      string
	pieces       map[string]protocol.Piece

	// lastMove is highlighted until highlight fires. highlightGen tells a
	// timer that lost a race with Stop that it is stale.
	lastMove     [2]string
	highlight    clock.Timer
	highlightGen int
}

// New creates a board drawing into v.
func New(v view.View, opts Options) *Board {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.HighlightFor <= 0 {
		opts.HighlightFor = DefaultHighlight
	}
	return &Board{
		view:         v,
		clock:        opts.Clock,
		highlightFor: opts.HighlightFor,
		player:       opts.Player,
		variant:      opts.Variant,
		pieces:       make(map[string]protocol.Piece),
	}
}

// SetSender sets where move intents go.
func (b *Board) SetSender(s Sender) {
	b.mu.Lock()
	b.sender = s
	b.mu.Unlock()
}

// LoadSetup shows the starting position of the board's variant.
func (b *Board) LoadSetup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pieces = Setup(b.variant)
	b.view.SetPieces(b.pieces)
}

// PieceAt returns the piece shown on square.
func (b *Board) PieceAt(square string) (protocol.Piece, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pieces[strings.ToLower(square)]
	return p, ok
}

// Selected returns the selected square, or "".
func (b *Board) Selected() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// CurrentPlayer returns the colour whose turn the server last reported.
func (b *Board) CurrentPlayer() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// SelectSquare makes square the only selected square and marks the
// candidate moves of the piece on it.
func (b *Board) SelectSquare(square string) error {
	if _, err := parseSquare(square); err != nil {
		return err
	}
	square = strings.ToLower(strings.TrimSpace(square))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectLocked(square)
	return nil
}

func (b *Board) selectLocked(square string) {
	b.clearSelectionLocked()
	b.selected = square
	b.view.MarkSquares(view.Selected, square)

	p, ok := b.pieces[square]
	if !ok {
		return
	}
	candidates, err := CandidateMoves(square, p.Kind)
	if err != nil {
		return
	}
	b.view.MarkSquares(view.Candidate, candidates...)
}

// ClearSelection drops the selection and its candidate marks.
func (b *Board) ClearSelection() {
	b.mu.Lock()
	b.clearSelectionLocked()
	b.mu.Unlock()
}

func (b *Board) clearSelectionLocked() {
	b.selected = ""
	b.view.ClearMark(view.Selected)
	b.view.ClearMark(view.Candidate)
}

// ClickSquare either completes a move from the selected square or, with
// nothing selected, selects an occupied square.
func (b *Board) ClickSquare(square string) error {
	if _, err := parseSquare(square); err != nil {
		return err
	}
	square = strings.ToLower(strings.TrimSpace(square))

	b.mu.Lock()
	if from := b.selected; from != "" {
		b.clearSelectionLocked()
		b.mu.Unlock()
		return b.move(from, square)
	}
	if _, ok := b.pieces[square]; ok {
		b.selectLocked(square)
	}
	b.mu.Unlock()
	return nil
}

// DragStart selects the square a piece is dragged from.
func (b *Board) DragStart(square string) error {
	return b.SelectSquare(square)
}

// Drop attempts a move from the selected square to square.
func (b *Board) Drop(square string) error {
	if _, err := parseSquare(square); err != nil {
		return err
	}
	square = strings.ToLower(strings.TrimSpace(square))

	b.mu.Lock()
	from := b.selected
	b.clearSelectionLocked()
	b.mu.Unlock()
	if from == "" {
		return nil
	}
	return b.move(from, square)
}

// DragEnd ends a drag, moved or not.
func (b *Board) DragEnd() {
	b.ClearSelection()
}

// move sends an intent. The server decides legality; the only local check
// is that the piece actually goes somewhere.
func (b *Board) move(from, to string) error {
	if from == to {
		logging.Debugf("ignoring move %s-%s: same square", from, to)
		return nil
	}
	b.mu.Lock()
	sender := b.sender
	intent := protocol.MoveIntent{From: from, To: to, Player: b.player, Variant: b.variant}
	b.mu.Unlock()

	if sender == nil {
		logging.Warnf("no connection to send move %s-%s", from, to)
		return nil
	}
	logging.Debugf("making move %s-%s", from, to)
	return sender.SendMove(intent)
}

// UpdateBoard applies an authoritative snapshot.
func (b *Board) UpdateBoard(st protocol.GameStateData) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if st.CurrentPlayer != "" {
		b.current = st.CurrentPlayer
		b.view.SetCurrentPlayer(Label(st.CurrentPlayer))
	}
	colors := make([]string, 0, len(st.Scores))
	for c := range st.Scores {
		colors = append(colors, c)
	}
	sort.Strings(colors)
	for _, c := range colors {
		b.view.SetScore(c, st.Scores[c])
	}
	if st.Variant != "" {
		b.variant = st.Variant
	}
	if st.Board != nil {
		b.pieces = make(map[string]protocol.Piece, len(st.Board))
		for sq, p := range st.Board {
			b.pieces[sq] = p
		}
		b.view.SetPieces(b.pieces)
	}
}

// ShowMove moves the piece in the local copy and highlights both squares
// for the highlight duration. A newer move replaces the highlight of the
// previous one and restarts the timer.
func (b *Board) ShowMove(m protocol.MoveMade) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pieces[m.From]; ok {
		delete(b.pieces, m.From)
		b.pieces[m.To] = p
		b.view.SetPieces(b.pieces)
	}

	if b.highlight != nil {
		b.highlight.Stop()
		b.view.ClearSquares(view.LastMove, b.lastMove[0], b.lastMove[1])
	}
	b.view.MarkSquares(view.LastMove, m.From, m.To)
	b.lastMove = [2]string{m.From, m.To}
	b.highlightGen++
	gen := b.highlightGen
	b.highlight = b.clock.AfterFunc(b.highlightFor, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if gen != b.highlightGen {
			return
		}
		b.highlight = nil
		b.view.ClearSquares(view.LastMove, m.From, m.To)
	})
}

// Label formats a player colour or id for display, e.g. "blue" -> "Blue".
func Label(player string) string {
	return cases.Title(language.English).String(player)
}
