package storage

import (
	"time"

	"github.com/google/uuid"
)

// Preference is the stored theme of one player.
type Preference struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PlayerID  string    `gorm:"uniqueIndex"`
	Theme     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArchivedMove is one move seen by the client in a game.
type ArchivedMove struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GameID    string    `gorm:"index;uniqueIndex:idx_game_move"`
	Number    int       `gorm:"uniqueIndex:idx_game_move"`
	Player    string
	From      string `gorm:"column:from_square"`
	To        string `gorm:"column:to_square"`
	CreatedAt time.Time
}
