package cache

import (
	"testing"
	"time"

	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/strategy"
)

func testDocs(ids ...string) []document.Document {
	docs := make([]document.Document, len(ids))
	for i, id := range ids {
		docs[i] = document.New(id, "t", "c", strategy.KnowledgeBase, "d", 0.9, nil, time.Time{}, time.Now())
	}
	return docs
}

func TestGetMissOnUnknownKey(t *testing.T) {
	c := New()
	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache reported a hit")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := New()
	c.Put("k", testDocs("a", "b"), time.Minute)

	docs, ok := c.Get("k")
	if !ok {
		t.Fatal("Get reported a miss after Put")
	}
	if len(docs) != 2 || docs[0].ID() != "a" || docs[1].ID() != "b" {
		t.Errorf("unexpected snapshot: %d docs", len(docs))
	}
}

func TestGetReturnsSnapshotCopy(t *testing.T) {
	c := New()
	c.Put("k", testDocs("a", "b"), time.Minute)

	first, _ := c.Get("k")
	first[0] = document.Document{}

	second, _ := c.Get("k")
	if second[0].ID() != "a" {
		t.Error("mutating a returned snapshot corrupted the cached entry")
	}
}

func TestTTLExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewWithClock(func() time.Time { return now })

	c.Put("k", testDocs("a"), 10*time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry missing before expiry")
	}

	now = now.Add(10 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry served at expiry boundary")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed on read: Len = %d", c.Len())
	}
}

func TestSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewWithClock(func() time.Time { return now })

	c.Put("old", testDocs("a"), time.Second)
	c.Put("fresh", testDocs("b"), time.Hour)

	now = now.Add(time.Minute)
	if dropped := c.Sweep(); dropped != 1 {
		t.Errorf("Sweep dropped %d entries, want 1", dropped)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", c.Len())
	}
}

func TestReset(t *testing.T) {
	c := New()
	c.Put("k", testDocs("a"), time.Minute)
	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Len = %d after reset, want 0", c.Len())
	}
}

func TestKeyDeterministic(t *testing.T) {
	if Key("a|b|3") != Key("a|b|3") {
		t.Error("identical material produced different keys")
	}
	if Key("a|b|3") == Key("a|b|4") {
		t.Error("different material produced the same key")
	}
}
