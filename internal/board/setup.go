package board

import "chessclient/internal/protocol"

type placement struct {
	color   string
	squares map[string]string // square -> kind
}

var chaturaji = []placement{
	{"red", map[string]string{"a1": "king", "b1": "knight", "c1": "bishop", "d1": "boat", "a2": "pawn", "b2": "pawn", "c2": "pawn", "d2": "pawn"}},
	{"green", map[string]string{"h1": "king", "h2": "knight", "h3": "bishop", "h4": "boat", "g1": "pawn", "g2": "pawn", "g3": "pawn", "g4": "pawn"}},
	{"yellow", map[string]string{"e8": "king", "f8": "knight", "g8": "bishop", "h8": "boat", "e7": "pawn", "f7": "pawn", "g7": "pawn", "h7": "pawn"}},
	{"blue", map[string]string{"a8": "king", "a7": "knight", "a6": "bishop", "a5": "boat", "b8": "pawn", "b7": "pawn", "b6": "pawn", "b5": "pawn"}},
}

// Enochian corners start with king and bishop sharing the throne square;
// only the king is shown there.
var enochian = []placement{
	{"yellow", map[string]string{"a8": "king", "b8": "queen", "c8": "knight", "d8": "rook", "a7": "pawn", "b7": "pawn", "c7": "pawn", "d7": "pawn"}},
	{"blue", map[string]string{"h8": "king", "h7": "queen", "h6": "knight", "h5": "rook", "g8": "pawn", "g7": "pawn", "g6": "pawn", "g5": "pawn"}},
	{"red", map[string]string{"h1": "king", "g1": "queen", "f1": "knight", "e1": "rook", "h2": "pawn", "g2": "pawn", "f2": "pawn", "e2": "pawn"}},
	{"black", map[string]string{"a1": "king", "a2": "queen", "a3": "knight", "a4": "rook", "b1": "pawn", "b2": "pawn", "b3": "pawn", "b4": "pawn"}},
}

// Setup returns the starting position of a variant. Unknown variants get
// the Chaturaji layout.
func Setup(variant string) map[string]protocol.Piece {
	layout := chaturaji
	if variant == "enochian" {
		layout = enochian
	}
	out := make(map[string]protocol.Piece, 32)
	for _, p := range layout {
		for sq, kind := range p.squares {
			out[sq] = protocol.Piece{Kind: kind, Color: p.color}
		}
	}
	return out
}
