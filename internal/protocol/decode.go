package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned for payloads that cannot be turned into a Message.
var ErrMalformed = errors.New("malformed message")

type fields map[string]json.RawMessage

// Decode parses one inbound frame. Unknown types decode to Unknown; payloads
// missing required fields return an error wrapping ErrMalformed.
func Decode(data []byte) (Message, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	typ, err := f.str("type")
	if err != nil {
		return nil, err
	}
	if typ == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch typ {
	case TypeConnectionEstablished:
		id, err := f.str("player_id")
		if err != nil {
			return nil, err
		}
		host, err := f.boolean("is_host")
		if err != nil {
			return nil, err
		}
		return ConnectionEstablished{PlayerID: id, IsHost: host != nil && *host}, nil

	case TypeGameState:
		return decodeGameState(f)

	case TypeMoveMade:
		return decodeMoveMade(f)

	case TypePlayerJoined:
		id, err := f.required("player_id", "player")
		if err != nil {
			return nil, err
		}
		return PlayerJoined{PlayerID: id}, nil

	case TypePlayerDisconnected, TypePlayerLeft:
		id, err := f.required("player_id", "player")
		if err != nil {
			return nil, err
		}
		return PlayerLeft{PlayerID: id, Disconnected: typ == TypePlayerDisconnected}, nil

	case TypeHostMigration:
		host, err := f.required("new_host")
		if err != nil {
			return nil, err
		}
		return HostMigration{NewHost: host}, nil

	case TypeChatMessage:
		text, err := f.required("message")
		if err != nil {
			return nil, err
		}
		player, err := f.str("player", "player_id")
		if err != nil {
			return nil, err
		}
		return ChatMessage{Player: player, Message: text}, nil
	}
	return Unknown{Type: typ}, nil
}

func decodeGameState(f fields) (Message, error) {
	host, err := f.boolean("is_host")
	if err != nil {
		return nil, err
	}
	msg := GameState{IsHost: host}

	raw, ok := f["data"]
	if !ok || isNull(raw) {
		return msg, nil
	}
	var d fields
	if err := unmarshalLoose(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: game_state data: %v", ErrMalformed, err)
	}

	if msg.Data.CurrentPlayer, err = d.player("current_player"); err != nil {
		return nil, err
	}
	if msg.Data.Status, err = d.str("status"); err != nil {
		return nil, err
	}
	if msg.Data.Variant, err = d.str("variant"); err != nil {
		return nil, err
	}
	if raw, ok := d["scores"]; ok && !isNull(raw) {
		if msg.Data.Scores, err = decodeScores(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := d["board"]; ok && !isNull(raw) {
		if msg.Data.Board, err = decodeBoard(raw); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func decodeMoveMade(f fields) (Message, error) {
	src := f
	if raw, ok := f["move"]; ok && !isNull(raw) {
		if _, flat := f["from"]; !flat {
			var nested fields
			if err := unmarshalLoose(raw, &nested); err != nil {
				return nil, fmt.Errorf("%w: move_made move: %v", ErrMalformed, err)
			}
			src = nested
		}
	}
	from, err := src.required("from")
	if err != nil {
		return nil, err
	}
	to, err := src.required("to")
	if err != nil {
		return nil, err
	}
	if !ValidSquare(from) || !ValidSquare(to) {
		return nil, fmt.Errorf("%w: move_made squares %q-%q", ErrMalformed, from, to)
	}
	player, err := f.str("player", "player_id")
	if err != nil {
		return nil, err
	}
	if player == "" {
		if player, err = src.str("player"); err != nil {
			return nil, err
		}
	}
	return MoveMade{From: strings.ToLower(from), To: strings.ToLower(to), Player: player}, nil
}

func decodeScores(raw json.RawMessage) (map[string]int, error) {
	var in fields
	if err := unmarshalLoose(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: scores: %v", ErrMalformed, err)
	}
	out := make(map[string]int, len(in))
	for color, v := range in {
		n, err := number(v)
		if err != nil {
			return nil, fmt.Errorf("%w: score for %s: %v", ErrMalformed, color, err)
		}
		out[color] = n
	}
	return out, nil
}

func decodeBoard(raw json.RawMessage) (map[string]Piece, error) {
	var in map[string]Piece
	if err := unmarshalLoose(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: board: %v", ErrMalformed, err)
	}
	out := make(map[string]Piece, len(in))
	for sq, p := range in {
		sq = strings.ToLower(sq)
		if !ValidSquare(sq) || p.Kind == "" {
			continue
		}
		out[sq] = p
	}
	return out, nil
}

// ValidSquare reports whether s names a square of the 8x8 board, e.g. "e2".
func ValidSquare(s string) bool {
	if len(s) != 2 {
		return false
	}
	f, r := s[0]|0x20, s[1]
	return f >= 'a' && f <= 'h' && r >= '1' && r <= '8'
}

// str returns the first present key as a string. Missing keys yield "".
func (f fields) str(keys ...string) (string, error) {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok || isNull(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: field %s is not a string", ErrMalformed, k)
		}
		return s, nil
	}
	return "", nil
}

func (f fields) required(keys ...string) (string, error) {
	s, err := f.str(keys...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, keys[0])
	}
	return s, nil
}

func (f fields) boolean(key string) (*bool, error) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: field %s is not a bool", ErrMalformed, key)
	}
	return &b, nil
}

// player accepts a colour name or an index into Players.
func (f fields) player(key string) (string, error) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return seat(n)
		}
		return strings.ToLower(s), nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: field %s is neither a colour nor an index", ErrMalformed, key)
	}
	return seat(n)
}

func seat(n int) (string, error) {
	if n < 0 || n >= len(Players) {
		return "", fmt.Errorf("%w: player index %d out of range", ErrMalformed, n)
	}
	return Players[n], nil
}

func number(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("not a number")
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

// unmarshalLoose decodes raw into v, also accepting a JSON string holding
// the encoded value, which is how some servers relay stored state.
func unmarshalLoose(raw json.RawMessage, v any) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return json.Unmarshal([]byte(s), v)
	}
	return json.Unmarshal(raw, v)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
