// Package protocol defines the JSON messages exchanged with the game server.
package protocol

// Outbound message types.
const (
	TypeMove      = "move"
	TypeResign    = "resign"
	TypeOfferDraw = "offer_draw"
	TypeLeaveGame = "leave_game"
	TypePing      = "ping"
)

// Inbound message types.
const (
	TypeConnectionEstablished = "connection_established"
	TypeGameState             = "game_state"
	TypeMoveMade              = "move_made"
	TypePlayerJoined          = "player_joined"
	TypePlayerDisconnected    = "player_disconnected"
	TypePlayerLeft            = "player_left"
	TypeHostMigration         = "host_migration"
	TypeChatMessage           = "chat_message"
)

// Players lists the seat colours in turn order. Servers that send the
// current player as an index refer to this order.
var Players = []string{"red", "blue", "yellow", "green"}

// MoveIntent is a move proposed to the server for validation.
type MoveIntent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Player  string `json:"player"`
	Variant string `json:"variant"`
}

// MoveRequest carries a MoveIntent. The server reads the move from data.
type MoveRequest struct {
	Type string     `json:"type"`
	Data MoveIntent `json:"data"`
}

// PlayerAction is resign, offer_draw or leave_game.
type PlayerAction struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

// Ping is the keepalive message.
type Ping struct {
	Type string `json:"type"`
}

// NewMove wraps an intent for sending.
func NewMove(m MoveIntent) MoveRequest {
	return MoveRequest{Type: TypeMove, Data: m}
}

// NewResign builds a resign request.
func NewResign(playerID string) PlayerAction {
	return PlayerAction{Type: TypeResign, PlayerID: playerID}
}

// NewOfferDraw builds a draw offer.
func NewOfferDraw(playerID string) PlayerAction {
	return PlayerAction{Type: TypeOfferDraw, PlayerID: playerID}
}

// NewLeaveGame builds a leave notice.
func NewLeaveGame(playerID string) PlayerAction {
	return PlayerAction{Type: TypeLeaveGame, PlayerID: playerID}
}

// NewPing builds a keepalive.
func NewPing() Ping {
	return Ping{Type: TypePing}
}

// Piece is a piece as displayed on a square.
type Piece struct {
	Kind  string `json:"type"`
	Color string `json:"color"`
}

// Message is implemented by every decoded inbound message.
type Message interface {
	MessageType() string
}

// ConnectionEstablished confirms the server accepted the connection.
type ConnectionEstablished struct {
	PlayerID string
	IsHost   bool
}

// GameState is an authoritative snapshot.
type GameState struct {
	Data   GameStateData
	IsHost *bool
}

// GameStateData holds the fields of a snapshot the client displays.
// Board is nil when the server did not send piece placement.
type GameStateData struct {
	CurrentPlayer string
	Scores        map[string]int
	Board         map[string]Piece
	Status        string
	Variant       string
}

// MoveMade announces an accepted move.
type MoveMade struct {
	From   string
	To     string
	Player string
}

// PlayerJoined announces a new participant.
type PlayerJoined struct {
	PlayerID string
}

// PlayerLeft announces that a participant went away. Disconnected is true
// for player_disconnected and false for player_left.
type PlayerLeft struct {
	PlayerID     string
	Disconnected bool
}

// HostMigration names the new host.
type HostMigration struct {
	NewHost string
}

// ChatMessage is a chat line.
type ChatMessage struct {
	Player  string
	Message string
}

// Unknown is any message whose type the client does not handle.
type Unknown struct {
	Type string
}

func (ConnectionEstablished) MessageType() string { return TypeConnectionEstablished }
func (GameState) MessageType() string             { return TypeGameState }
func (MoveMade) MessageType() string              { return TypeMoveMade }
func (PlayerJoined) MessageType() string          { return TypePlayerJoined }
func (HostMigration) MessageType() string         { return TypeHostMigration }
func (ChatMessage) MessageType() string           { return TypeChatMessage }
func (u Unknown) MessageType() string             { return u.Type }

func (p PlayerLeft) MessageType() string {
	if p.Disconnected {
		return TypePlayerDisconnected
	}
	return TypePlayerLeft
}
