package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chessclient/internal/board"
	"chessclient/internal/game"
	"chessclient/internal/protocol"
	"chessclient/internal/toast"
)

type serverResult struct {
	userAgent string
	move      protocol.MoveRequest
	closeCode int
	err       error
}

func TestLiveWebsocketRoundTrip(t *testing.T) {
	results := make(chan serverResult, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := serverResult{userAgent: r.Header.Get("User-Agent")}
		defer func() { results <- res }()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			res.err = err
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"connection_established","player_id":"red","is_host":true}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"game_state","data":{"current_player":"red","scores":{"red":1}}}`))

		_, data, err := conn.ReadMessage()
		if err != nil {
			res.err = err
			return
		}
		if res.err = json.Unmarshal(data, &res.move); res.err != nil {
			return
		}
		_, _, err = conn.ReadMessage()
		if ce, ok := err.(*websocket.CloseError); ok {
			res.closeCode = ce.Code
		}
	}))
	defer srv.Close()

	g := game.New("live")
	b := board.New(g, board.Options{Player: "red", Variant: "chaturaji"})
	s := New(Options{
		URL:       "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game/live?player_id=red",
		GameID:    "live",
		PlayerID:  "red",
		UserAgent: "chessclient/live",
		View:      g,
		Board:     b,
		Notifier:  toast.NewSink(nil, time.Minute),
	})
	b.SetSender(s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitFor(t, "game state", func() bool { return g.Snapshot().CurrentPlayer == "Red" })
	if !s.IsHost() {
		t.Fatalf("expected host from connection_established")
	}

	b.LoadSetup()
	if err := b.ClickSquare("a2"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := b.ClickSquare("a3"); err != nil {
		t.Fatalf("move: %v", err)
	}
	s.Disconnect(true)

	select {
	case res := <-results:
		if res.err != nil {
			t.Fatalf("server: %v", res.err)
		}
		if res.userAgent != "chessclient/live" {
			t.Fatalf("unexpected user agent %q", res.userAgent)
		}
		want := protocol.NewMove(protocol.MoveIntent{From: "a2", To: "a3", Player: "red", Variant: "chaturaji"})
		if res.move != want {
			t.Fatalf("expected %+v got %+v", want, res.move)
		}
		if res.closeCode != websocket.CloseNormalClosure {
			t.Fatalf("expected close 1000, got %d", res.closeCode)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server never finished")
	}
}
