package tui

import (
	"fmt"
	"sort"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"

	"chessclient/internal/board"
	"chessclient/internal/game"
	"chessclient/internal/protocol"
	"chessclient/internal/toast"
	"chessclient/internal/view"
)

const (
	historyLines = 8
	chatLines    = 5
)

// Canvas receives drawn cells. termbox itself is one; tests use a grid.
type Canvas interface {
	SetCell(x, y int, ch rune, fg, bg termbox.Attribute)
}

type termboxCanvas struct{}

func (termboxCanvas) SetCell(x, y int, ch rune, fg, bg termbox.Attribute) {
	termbox.SetCell(x, y, ch, fg, bg)
}

// Frame is everything one redraw needs.
type Frame struct {
	Game    game.Snapshot
	Toasts  []toast.Toast
	Palette Palette
	Player  string
}

// Render draws f onto c. Toasts and the help line go below whichever of the
// board and the panel ends lower.
func Render(c Canvas, f Frame) {
	drawBoard(c, f)
	bottom := max(toastY, drawPanel(c, f)+1)
	drawToasts(c, f, bottom)
	text(c, boardX, bottom+len(f.Toasts)+1, panelX+panelW, helpText, f.Palette.Text, f.Palette.Background)
}

func drawBoard(c Canvas, f Frame) {
	p := f.Palette
	for rank := 7; rank >= 0; rank-- {
		y := boardY + 7 - rank
		c.SetCell(boardX-2, y, rune('1'+rank), p.Text, p.Background)
		for file := 0; file < 8; file++ {
			drawSquare(c, f, squareName(file, rank), file, rank)
		}
	}
	for file := 0; file < 8; file++ {
		c.SetCell(boardX+file*cellW+cellW/2, boardY+8, rune('a'+file), p.Text, p.Background)
	}
}

func drawSquare(c Canvas, f Frame, sq string, file, rank int) {
	p := f.Palette
	bg := p.DarkSquare
	if (file+rank)%2 == 1 {
		bg = p.LightSquare
	}
	if f.Game.Has(view.Selected, sq) {
		bg = p.Selected
	}

	left, mid, right := ' ', ' ', ' '
	midFg := p.Marker
	if piece, ok := f.Game.Pieces[sq]; ok {
		mid = glyphOf(piece.Kind)
		midFg = colorOf(piece.Color, p.Text) | termbox.AttrBold
	}
	if f.Game.Has(view.Candidate, sq) {
		if mid == ' ' {
			mid = '·'
		} else {
			left, right = '(', ')'
		}
	}
	if f.Game.Has(view.LastMove, sq) {
		left, right = '[', ']'
	}

	x := boardX + file*cellW
	y := boardY + 7 - rank
	c.SetCell(x, y, left, p.Marker, bg)
	c.SetCell(x+1, y, mid, midFg, bg)
	c.SetCell(x+2, y, right, p.Marker, bg)
}

// drawPanel returns the first row below the panel.
func drawPanel(c Canvas, f Frame) int {
	p := f.Palette
	g := f.Game
	y := boardY
	line := func(s string, fg termbox.Attribute) {
		text(c, panelX, y, panelW, s, fg, p.Background)
		y++
	}

	line(fmt.Sprintf("Game %s  you: %s", g.ID, f.Player), p.Text|termbox.AttrBold)
	turn := g.CurrentPlayer
	if turn == "" {
		turn = "-"
	}
	line("Turn: "+turn, p.Text)
	for _, color := range protocol.Players {
		line(fmt.Sprintf("  %-7s %d", board.Label(color), g.Scores[color]), colorOf(color, p.Text))
	}

	status := "○ offline"
	if g.Connected {
		status = "● connected"
	}
	if g.IsHost {
		status += "  (host)"
	}
	line(status, p.Text)

	if len(g.Players) > 0 {
		y++
		line("Players:", p.Text|termbox.AttrBold)
		ids := make([]string, 0, len(g.Players))
		for id := range g.Players {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			line(fmt.Sprintf("  %s %s", id, g.Players[id]), p.Text)
		}
	}

	y++
	line("Moves:", p.Text|termbox.AttrBold)
	for _, e := range tail(g.History, historyLines) {
		line("  "+e.String(), p.Text)
	}

	if len(g.Chat) > 0 {
		y++
		line("Chat:", p.Text|termbox.AttrBold)
		for _, l := range tail(g.Chat, chatLines) {
			line(fmt.Sprintf("  %s: %s", l.Player, l.Message), p.Text)
		}
	}
	return y
}

var levelColors = map[toast.Level]termbox.Attribute{
	toast.Success: termbox.ColorGreen,
	toast.Info:    termbox.ColorCyan,
	toast.Warning: termbox.ColorYellow,
	toast.Error:   termbox.ColorRed,
}

func drawToasts(c Canvas, f Frame, top int) {
	for i, t := range f.Toasts {
		fg, ok := levelColors[t.Level]
		if !ok {
			fg = f.Palette.Text
		}
		text(c, boardX, top+i, panelX+panelW-boardX, fmt.Sprintf("[%s] %s", t.Level, t.Message), fg, f.Palette.Background)
	}
}

// text writes s from (x, y), cut to width display columns.
func text(c Canvas, x, y, width int, s string, fg, bg termbox.Attribute) {
	s = runewidth.Truncate(s, width, "…")
	for _, r := range s {
		c.SetCell(x, y, r, fg, bg)
		x += runewidth.RuneWidth(r)
	}
}

func tail[T any](s []T, n int) []T {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
