package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "shot:a"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}

	val := []byte("hello")
	if err := m.Set(ctx, "shot:a", val, 0); err != nil {
		t.Fatal(err)
	}
	val[0] = 'j'

	got, err := m.Get(ctx, "shot:a")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("Get = %q, want hello", got)
	}
	if m.Hits()["shot"] != 1 {
		t.Errorf("hits = %v, want one shot hit", m.Hits())
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "plan:x", []byte("1"), time.Minute); err != nil {
		t.Fatal(err)
	}
	now = now.Add(59 * time.Second)
	if _, err := m.Get(ctx, "plan:x"); err != nil {
		t.Errorf("entry expired early: %v", err)
	}
	now = now.Add(time.Second)
	if _, err := m.Get(ctx, "plan:x"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after ttl, got %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("expired entry kept: %d entries", m.Len())
	}
}

func TestMemoryExpiryKeepsFreshSet(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "shot:k", []byte("old"), time.Second); err != nil {
		t.Fatal(err)
	}
	now = now.Add(time.Minute)

	// the refresh lands after Get has seen the stale entry and before it
	// takes the write lock
	refreshed := false
	m.now = func() time.Time {
		if !refreshed {
			refreshed = true
			if err := m.Set(ctx, "shot:k", []byte("new"), time.Minute); err != nil {
				t.Error(err)
			}
		}
		return now
	}

	if _, err := m.Get(ctx, "shot:k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss for the stale read, got %v", err)
	}
	got, err := m.Get(ctx, "shot:k")
	if err != nil {
		t.Fatalf("fresh entry was dropped: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("Get = %q, want new", got)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	type shot struct{ X, Z float64 }
	if err := SetJSON(ctx, m, "shot:k", shot{1, 2}, 0); err != nil {
		t.Fatal(err)
	}
	var got shot
	if err := GetJSON(ctx, m, "shot:k", &got); err != nil {
		t.Fatal(err)
	}
	if got != (shot{1, 2}) {
		t.Errorf("GetJSON = %+v", got)
	}
}

func TestKey(t *testing.T) {
	a := Key("shot", "1", 0.5, 2)
	b := Key("shot", "1", 0.5, 2)
	c := Key("shot", "1", 0.5, 3)
	if a != b {
		t.Error("same parts gave different keys")
	}
	if a == c {
		t.Error("different parts gave the same key")
	}
	if kindOf(a) != "shot" || len(a) != len("shot:")+32 {
		t.Errorf("unexpected key %q", a)
	}
	if Key("shot", "ab", "c") == Key("shot", "a", "bc") {
		t.Error("part boundaries ignored")
	}
}

func TestOpenWithoutURL(t *testing.T) {
	c, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok := c.(*Memory); !ok {
		t.Errorf("Open(\"\") = %T, want *Memory", c)
	}
}

func TestRedis(t *testing.T) {
	url := os.Getenv("PUTTSIM_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PUTTSIM_TEST_REDIS_URL not set")
	}

	c, err := Open(url)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	key := Key("test", time.Now().UnixNano())
	if _, err := c.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, key)
	if err != nil || string(got) != "v" {
		t.Errorf("Get = %q, %v", got, err)
	}
}
