package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"

	"chessclient/internal/protocol"
)

// ErrBadSquare is returned for names that are not squares of the board.
var ErrBadSquare = errors.New("not a board square")

var (
	orthogonal = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	knightJump = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
)

func parseSquare(s string) (chess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !protocol.ValidSquare(s) {
		return chess.NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return chess.NewSquare(chess.File(s[0]-'a'), chess.Rank(s[1]-'1')), nil
}

func kindOf(kind string) chess.PieceType {
	switch strings.ToLower(kind) {
	case "pawn":
		return chess.Pawn
	case "rook":
		return chess.Rook
	case "knight", "horse":
		return chess.Knight
	case "bishop", "elephant":
		return chess.Bishop
	case "queen":
		return chess.Queen
	case "king":
		return chess.King
	}
	return chess.NoPieceType
}

// CandidateMoves returns the squares highlighted when a piece of the given
// kind on square is selected. This is a display hint only: pawns step one
// rank either way, rooks scan their rank and file, knights jump, and every
// other kind reaches the adjacent squares. Occupancy is ignored and the
// server decides what is legal.
func CandidateMoves(square, kind string) ([]string, error) {
	sq, err := parseSquare(square)
	if err != nil {
		return nil, err
	}
	f, r := int(sq.File()), int(sq.Rank())

	var out []string
	add := func(df, dr int) bool {
		nf, nr := f+df, r+dr
		if nf < 0 || nf > 7 || nr < 0 || nr > 7 {
			return false
		}
		out = append(out, chess.NewSquare(chess.File(nf), chess.Rank(nr)).String())
		return true
	}

	switch kindOf(kind) {
	case chess.Pawn:
		add(0, 1)
		add(0, -1)
	case chess.Rook:
		for _, d := range orthogonal {
			for i := 1; add(d[0]*i, d[1]*i); i++ {
			}
		}
	case chess.Knight:
		for _, d := range knightJump {
			add(d[0], d[1])
		}
	default:
		for df := -1; df <= 1; df++ {
			for dr := -1; dr <= 1; dr++ {
				if df != 0 || dr != 0 {
					add(df, dr)
				}
			}
		}
	}
	return out, nil
}
