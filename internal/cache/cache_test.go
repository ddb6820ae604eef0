package cache

import (
	"errors"
	"testing"
	"time"
)

func TestSetGetExpiry(t *testing.T) {
	c := New(true)
	defer c.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	etag := c.Set("game:g1", []byte(`{"a":1}`), time.Minute)
	data, got, ok := c.Get("game:g1")
	if !ok || string(data) != `{"a":1}` || got != etag {
		t.Fatalf("Get = %q, %q, %v", data, got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, _, ok := c.Get("game:g1"); ok {
		t.Error("expired entry still returned")
	}
	if stats := c.Stats(); stats["expired_keys"] != 1 {
		t.Errorf("Stats = %v", stats)
	}
	c.evict()
	if stats := c.Stats(); stats["total_keys"] != 0 {
		t.Errorf("after evict Stats = %v", stats)
	}
}

func TestDisabledCache(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Hour)
	if etag != ComputeETag([]byte("v")) {
		t.Errorf("disabled Set etag = %q", etag)
	}
	if _, _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned a value")
	}
}

func TestFetch(t *testing.T) {
	c := New(true)
	defer c.Close()

	calls := 0
	load := func() ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	_, etag1, hit, err := c.Fetch("k", time.Hour, load)
	if err != nil || hit {
		t.Fatalf("first Fetch hit=%v err=%v", hit, err)
	}
	data, etag2, hit, err := c.Fetch("k", time.Hour, load)
	if err != nil || !hit || string(data) != "payload" || etag1 != etag2 {
		t.Fatalf("second Fetch = %q %q hit=%v err=%v", data, etag2, hit, err)
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, _, _, err := c.Fetch("bad", time.Hour, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("Fetch error = %v", err)
	}
	if _, _, ok := c.Get("bad"); ok {
		t.Error("failed load was cached")
	}
}

func TestInvalidateGame(t *testing.T) {
	c := New(true)
	defer c.Close()
	c.Set(GameKey("g1"), []byte("1"), time.Hour)
	c.Set(PointKey("g1", 1), []byte("2"), time.Hour)
	c.Set(PointKey("g1", 12), []byte("3"), time.Hour)
	c.Set(GameKey("g10"), []byte("4"), time.Hour)

	if n := c.InvalidateGame("g1"); n != 3 {
		t.Errorf("InvalidateGame = %d, want 3", n)
	}
	if _, _, ok := c.Get(PointKey("g1", 12)); ok {
		t.Error("point of reloaded game still cached")
	}
	if _, _, ok := c.Get(GameKey("g10")); !ok {
		t.Error("game sharing an id prefix was removed")
	}
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("x"))
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{etag, true},
		{`W/"other", ` + etag, true},
		{`W/"other"`, false},
	}
	for _, tt := range tests {
		if got := CheckETagMatch(tt.header, etag); got != tt.want {
			t.Errorf("CheckETagMatch(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
