package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"chessclient/internal/protocol"
	"chessclient/internal/toast"
	"chessclient/internal/view"
)

func lastToast(t *testing.T, h *harness) toast.Toast {
	t.Helper()
	active := h.toasts.Active()
	if len(active) == 0 {
		t.Fatalf("expected a toast")
	}
	return active[len(active)-1]
}

func TestGameStateUpdatesLabelAndScores(t *testing.T) {
	h := newHarness(t)
	h.s.HandleMessage([]byte(`{"type":"game_state","data":{"current_player":"blue","scores":{"red":3,"blue":5}}}`))

	s := h.game.Snapshot()
	if s.CurrentPlayer != "Blue" {
		t.Fatalf("expected current player Blue, got %q", s.CurrentPlayer)
	}
	if got := h.game.ScoreText("blue"); got != "5" {
		t.Fatalf("expected blue score 5, got %q", got)
	}
	if got := h.game.ScoreText("red"); got != "3" {
		t.Fatalf("expected red score 3, got %q", got)
	}
}

func TestGameStateCarriesHostFlag(t *testing.T) {
	h := newHarness(t)
	h.s.HandleMessage([]byte(`{"type":"game_state","is_host":true,"data":{}}`))
	if !h.s.IsHost() || !h.game.Snapshot().IsHost {
		t.Fatalf("expected host flag set")
	}
}

func TestMoveMadeAppendsHistoryAndHighlights(t *testing.T) {
	h := newHarness(t)
	h.s.HandleMessage([]byte(`{"type":"move_made","from":"e2","to":"e4","player":"red"}`))

	s := h.game.Snapshot()
	if len(s.History) != 1 {
		t.Fatalf("expected one history entry, got %d", len(s.History))
	}
	if entry := s.History[0].String(); !strings.Contains(entry, "e2-e4") || !strings.Contains(entry, "Red") {
		t.Fatalf("unexpected history entry %q", entry)
	}
	if !s.Has(view.LastMove, "e2") || !s.Has(view.LastMove, "e4") {
		t.Fatalf("expected e2 and e4 highlighted, got %v", s.Marks[view.LastMove])
	}

	h.clock.Advance(2 * time.Second)
	if got := h.game.Marked(view.LastMove); len(got) != 0 {
		t.Fatalf("expected highlight cleared, got %v", got)
	}
}

func TestNestedMoveMade(t *testing.T) {
	h := newHarness(t)
	h.s.HandleMessage([]byte(`{"type":"move_made","move":{"from":"a2","to":"a3"},"player":"blue"}`))
	if s := h.game.Snapshot(); len(s.History) != 1 || s.History[0].Notation() != "a2-a3" {
		t.Fatalf("unexpected history %v", s.History)
	}
}

func TestMalformedAndUnknownAreIgnored(t *testing.T) {
	h := newHarness(t)
	for _, frame := range []string{
		`not json`,
		`{"no_type":true}`,
		`{"type":"move_made","from":"z9","to":"e4"}`,
		`{"type":"player_joined"}`,
		`{"type":"server_stats","load":0.3}`,
	} {
		h.s.HandleMessage([]byte(frame))
	}
	s := h.game.Snapshot()
	if len(s.History) != 0 || len(s.Players) != 0 || len(h.toasts.Active()) != 0 {
		t.Fatalf("ignored frames changed state: %+v", s)
	}
}

func TestConnectionEstablished(t *testing.T) {
	h := newHarness(t)
	h.s.HandleMessage([]byte(`{"type":"connection_established","player_id":"p1","is_host":true}`))

	if !h.s.IsHost() {
		t.Fatalf("expected host")
	}
	if got := lastToast(t, h); got.Message != "Connected as p1" || got.Level != toast.Success {
		t.Fatalf("unexpected toast %+v", got)
	}
}

func TestJoinAndLeaveUpdateRoster(t *testing.T) {
	h := newHarness(t)
	h.s.HandleMessage([]byte(`{"type":"player_joined","player_id":"p2"}`))
	if got := lastToast(t, h); got.Message != "p2 joined the game" || got.Level != toast.Info {
		t.Fatalf("unexpected toast %+v", got)
	}
	if st := h.game.Snapshot().Players["p2"]; st != view.StatusConnected {
		t.Fatalf("expected p2 connected, got %q", st)
	}

	h.s.HandleMessage([]byte(`{"type":"player_disconnected","player_id":"p2"}`))
	if got := lastToast(t, h); got.Message != "p2 left the game" || got.Level != toast.Warning {
		t.Fatalf("unexpected toast %+v", got)
	}
	if st := h.game.Snapshot().Players["p2"]; st != view.StatusDisconnected {
		t.Fatalf("expected p2 disconnected, got %q", st)
	}

	h.s.HandleMessage([]byte(`{"type":"player_left","player":"p3"}`))
	if st := h.game.Snapshot().Players["p3"]; st != view.StatusLeft {
		t.Fatalf("expected p3 left, got %q", st)
	}
}

func TestHostMigration(t *testing.T) {
	h := newHarness(t)
	h.s.HandleMessage([]byte(`{"type":"host_migration","new_host":"p1"}`))
	if !h.s.IsHost() {
		t.Fatalf("expected to become host")
	}
	if got := lastToast(t, h); got.Message != "You are now the host" {
		t.Fatalf("unexpected toast %+v", got)
	}

	h.s.HandleMessage([]byte(`{"type":"host_migration","new_host":"p4"}`))
	if h.s.IsHost() || h.game.Snapshot().IsHost {
		t.Fatalf("expected host flag cleared")
	}
	if got := lastToast(t, h); got.Message != "p4 is now the host" || got.Level != toast.Info {
		t.Fatalf("unexpected toast %+v", got)
	}
}

func TestChatIsAppended(t *testing.T) {
	h := newHarness(t)
	h.s.HandleMessage([]byte(`{"type":"chat_message","player":"p2","message":"gg"}`))
	chat := h.game.Snapshot().Chat
	if len(chat) != 1 || chat[0].Player != "p2" || chat[0].Message != "gg" {
		t.Fatalf("unexpected chat %+v", chat)
	}
}

type panickyBoard struct{}

func (panickyBoard) UpdateBoard(protocol.GameStateData) { panic("boom") }
func (panickyBoard) ShowMove(protocol.MoveMade)         {}

func TestHandlerPanicIsContained(t *testing.T) {
	h := newHarness(t)
	h.s.opts.Board = panickyBoard{}

	h.s.HandleMessage([]byte(`{"type":"game_state","data":{"current_player":"red"}}`))
	h.s.HandleMessage([]byte(`{"type":"chat_message","player":"p2","message":"still here"}`))

	if len(h.game.Snapshot().Chat) != 1 {
		t.Fatalf("dispatch stopped after a panicking handler")
	}
}

type recordedMove struct {
	game   string
	number int
	from   string
	to     string
}

type fakeArchive struct {
	mu    sync.Mutex
	moves []recordedMove
}

func (a *fakeArchive) RecordMove(_ context.Context, gameID string, number int, _, from, to string) error {
	a.mu.Lock()
	a.moves = append(a.moves, recordedMove{game: gameID, number: number, from: from, to: to})
	a.mu.Unlock()
	return nil
}

func (a *fakeArchive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.moves)
}

func TestMovesAreArchived(t *testing.T) {
	h := newHarness(t)
	a := &fakeArchive{}
	h.s.opts.Archive = a

	h.s.HandleMessage([]byte(`{"type":"move_made","from":"e2","to":"e4","player":"red"}`))
	h.s.HandleMessage([]byte(`{"type":"move_made","from":"d7","to":"d5","player":"blue"}`))
	waitFor(t, "archived moves", func() bool { return a.count() == 2 })

	a.mu.Lock()
	defer a.mu.Unlock()
	numbers := map[int]string{}
	for _, m := range a.moves {
		if m.game != "g1" {
			t.Fatalf("unexpected game id %q", m.game)
		}
		numbers[m.number] = m.from + m.to
	}
	if numbers[1] != "e2e4" || numbers[2] != "d7d5" {
		t.Fatalf("unexpected archive numbering %v", numbers)
	}
}

func TestArchiveNumberingContinues(t *testing.T) {
	h := newHarness(t)
	a := &fakeArchive{}
	h.s.opts.Archive = a
	h.s.moves = 7

	h.s.HandleMessage([]byte(`{"type":"move_made","from":"e2","to":"e4","player":"red"}`))
	waitFor(t, "archived move", func() bool { return a.count() == 1 })

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.moves[0].number != 8 {
		t.Fatalf("expected move number 8, got %d", a.moves[0].number)
	}
}
