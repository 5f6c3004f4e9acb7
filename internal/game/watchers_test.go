package game

import (
	"testing"

	"chessclient/internal/view"
)

func TestWatchersAreNotifiedWithoutBlocking(t *testing.T) {
	g := New("g1")
	ch := make(chan struct{}, 1)
	g.AddWatcher(ch)

	// A full channel must not block further updates.
	g.SetConnected(true)
	g.SetHost(true)

	select {
	case <-ch:
	default:
		t.Fatalf("expected a change signal")
	}

	g.RemoveWatcher(ch)
	g.SetPlayerStatus("p2", view.StatusConnected)
	select {
	case <-ch:
		t.Fatalf("removed watcher still notified")
	default:
	}
	if s := g.Snapshot(); !s.Connected || !s.IsHost || s.Players["p2"] != view.StatusConnected {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}
