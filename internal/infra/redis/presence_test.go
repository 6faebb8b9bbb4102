package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestPresenceSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	presence := NewPresence(newClient(mr), time.Minute)

	presence.MarkJoined("conn-1", "Alice")
	if !mr.Exists("poll:student:conn-1") {
		t.Fatalf("expected presence key to be set")
	}
	if got, _ := mr.Get("poll:student:conn-1"); got != "Alice" {
		t.Fatalf("expected name stored, got %q", got)
	}

	presence.MarkLeft("conn-1")
	if mr.Exists("poll:student:conn-1") {
		t.Fatalf("expected presence key to be removed")
	}

	// Leaving twice is harmless.
	presence.MarkLeft("conn-1")
}
