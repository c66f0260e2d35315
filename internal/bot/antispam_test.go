package bot

import (
	"testing"
	"time"
)

func TestSpamGuardAllowsWithinLimit(t *testing.T) {
	g := NewSpamGuard(10*time.Second, 5)
	now := time.Now()

	for i := 0; i < 5; i++ {
		spamming, _ := g.Record("u1", now.Add(time.Duration(i)*time.Second))
		if spamming {
			t.Fatalf("message %d flagged within limit", i+1)
		}
	}
}

func TestSpamGuardTripsOverLimit(t *testing.T) {
	g := NewSpamGuard(10*time.Second, 5)
	now := time.Now()

	for i := 0; i < 5; i++ {
		g.Record("u1", now)
	}

	spamming, warn := g.Record("u1", now)
	if !spamming {
		t.Fatal("6th message in window should be flagged")
	}
	if !warn {
		t.Error("first trip should warn")
	}

	spamming, warn = g.Record("u1", now)
	if !spamming {
		t.Fatal("7th message should still be flagged")
	}
	if warn {
		t.Error("repeat trips must not warn again")
	}
}

func TestSpamGuardWindowSlides(t *testing.T) {
	g := NewSpamGuard(10*time.Second, 5)
	now := time.Now()

	for i := 0; i < 6; i++ {
		g.Record("u1", now)
	}

	// Past the window the sender is clean again and may warn on a new episode.
	later := now.Add(11 * time.Second)
	if spamming, _ := g.Record("u1", later); spamming {
		t.Fatal("sender should be clean after the window drains")
	}

	for i := 0; i < 5; i++ {
		g.Record("u1", later)
	}
	if _, warn := g.Record("u1", later); !warn {
		t.Error("a fresh episode should warn once more")
	}
}

func TestSpamGuardTracksKeysIndependently(t *testing.T) {
	g := NewSpamGuard(10*time.Second, 2)
	now := time.Now()

	g.Record("noisy|a", now)
	g.Record("noisy|a", now)
	if spamming, _ := g.Record("noisy|a", now); !spamming {
		t.Fatal("noisy key should trip")
	}
	if spamming, _ := g.Record("quiet|a", now); spamming {
		t.Error("another sender in the same chat must be unaffected")
	}
	// The same sender under a different conversation key is also clean.
	if spamming, _ := g.Record("noisy|b", now); spamming {
		t.Error("the same sender in another chat must be unaffected")
	}
}
