package utils

import (
	"strings"
	"testing"
)

func TestRandomHexLength(t *testing.T) {
	if got := RandomHex(4); len(got) != 8 {
		t.Fatalf("expected 8 hex digits, got %q", got)
	}
}

func TestRandomID(t *testing.T) {
	a, b := RandomID("player", 4), RandomID("player", 4)
	if !strings.HasPrefix(a, "player-") || len(a) != len("player-")+8 {
		t.Fatalf("unexpected id %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if got := RandomID("", 2); len(got) != 4 {
		t.Fatalf("expected bare hex without prefix, got %q", got)
	}
}
