package tui

import (
	"strings"

	"github.com/nsf/termbox-go"

	"chessclient/internal/theme"
)

// Board geometry in terminal cells. Each square is cellW columns wide and
// one row high; rank 8 is the top row.
const (
	boardX = 3
	boardY = 1
	cellW  = 3

	panelX   = boardX + 8*cellW + 3
	panelW   = 40
	toastY   = boardY + 10
	helpText = "t theme  r resign  d draw  p ping  q quit"
)

// SquareAt maps a terminal cell to the square drawn there.
func SquareAt(x, y int) (string, bool) {
	if x < boardX || y < boardY {
		return "", false
	}
	file := (x - boardX) / cellW
	row := y - boardY
	if file > 7 || row > 7 {
		return "", false
	}
	return squareName(file, 7-row), true
}

// CellOf returns the middle cell of square.
func CellOf(square string) (x, y int, ok bool) {
	if len(square) != 2 {
		return 0, 0, false
	}
	file, rank := int(square[0]-'a'), int(square[1]-'1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, 0, false
	}
	return boardX + file*cellW + cellW/2, boardY + 7 - rank, true
}

func squareName(file, rank int) string {
	return string(rune('a'+file)) + string(rune('1'+rank))
}

// Palette is the set of colours for one theme.
type Palette struct {
	Text        termbox.Attribute
	Background  termbox.Attribute
	LightSquare termbox.Attribute
	DarkSquare  termbox.Attribute
	Selected    termbox.Attribute
	Marker      termbox.Attribute
}

var palettes = map[theme.Theme]Palette{
	theme.Dark: {
		Text:        termbox.ColorWhite,
		Background:  termbox.ColorBlack,
		LightSquare: termbox.ColorCyan,
		DarkSquare:  termbox.ColorBlack,
		Selected:    termbox.ColorMagenta,
		Marker:      termbox.ColorWhite,
	},
	theme.Light: {
		Text:        termbox.ColorBlack,
		Background:  termbox.ColorWhite,
		LightSquare: termbox.ColorWhite,
		DarkSquare:  termbox.ColorCyan,
		Selected:    termbox.ColorMagenta,
		Marker:      termbox.ColorBlack,
	},
}

// PaletteFor returns the colours of t.
func PaletteFor(t theme.Theme) Palette {
	return palettes[theme.Normalize(t)]
}

var playerColors = map[string]termbox.Attribute{
	"red":    termbox.ColorRed,
	"blue":   termbox.ColorBlue,
	"yellow": termbox.ColorYellow,
	"green":  termbox.ColorGreen,
}

func colorOf(player string, fallback termbox.Attribute) termbox.Attribute {
	if c, ok := playerColors[strings.ToLower(player)]; ok {
		return c
	}
	return fallback
}

var glyphs = map[string]rune{
	"pawn":     'P',
	"rook":     'R',
	"knight":   'N',
	"horse":    'N',
	"bishop":   'B',
	"boat":     'S',
	"elephant": 'B',
	"queen":    'Q',
	"king":     'K',
}

func glyphOf(kind string) rune {
	if g, ok := glyphs[strings.ToLower(kind)]; ok {
		return g
	}
	if kind == "" {
		return '?'
	}
	return []rune(strings.ToUpper(kind))[0]
}
