package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chessclient/internal/theme"
)

// Store wraps a gorm DB. A nil *Store is valid: writes are no-ops and reads
// find nothing, so callers need not check whether a database is configured.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// SaveTheme upserts the theme of playerID.
func (s *Store) SaveTheme(ctx context.Context, playerID string, t theme.Theme) error {
	if s == nil {
		return nil
	}
	pref := Preference{ID: uuid.New(), PlayerID: playerID, Theme: string(t)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"theme", "updated_at"}),
		}).
		Create(&pref).Error
}

// LoadTheme returns the stored theme of playerID.
func (s *Store) LoadTheme(ctx context.Context, playerID string) (theme.Theme, error) {
	if s == nil {
		return "", ErrNotFound
	}
	var pref Preference
	if err := s.db.WithContext(ctx).First(&pref, "player_id = ?", playerID).Error; err != nil {
		return "", err
	}
	t, ok := theme.Parse(pref.Theme)
	if !ok {
		return "", fmt.Errorf("stored theme %q for %s", pref.Theme, playerID)
	}
	return t, nil
}

// RecordMove archives move number of gameID. Replays of the same number
// after a reconnect are ignored.
func (s *Store) RecordMove(ctx context.Context, gameID string, number int, player, from, to string) error {
	if s == nil {
		return nil
	}
	move := ArchivedMove{
		ID:     uuid.New(),
		GameID: gameID,
		Number: number,
		Player: player,
		From:   from,
		To:     to,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&move).Error
}

// LoadMoves returns the archived moves of gameID in order.
func (s *Store) LoadMoves(ctx context.Context, gameID string) ([]ArchivedMove, error) {
	if s == nil {
		return nil, nil
	}
	var moves []ArchivedMove
	if err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("number").
		Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// ThemeBackend keeps one player's theme in the database.
type ThemeBackend struct {
	Store    *Store
	PlayerID string
}

var _ theme.Backend = ThemeBackend{}

func (b ThemeBackend) Load() (theme.Theme, error) {
	t, err := b.Store.LoadTheme(context.Background(), b.PlayerID)
	if errors.Is(err, ErrNotFound) {
		return "", theme.ErrNoPreference
	}
	return t, err
}

func (b ThemeBackend) Save(t theme.Theme) error {
	return b.Store.SaveTheme(context.Background(), b.PlayerID, t)
}
