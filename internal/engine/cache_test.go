package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("search_videos", "cats", "")
	k2 := CacheKey("search_videos", "cats", "")
	k3 := CacheKey("search_videos", "dogs", "")

	if k1 != k2 {
		t.Errorf("same parts produced different keys: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("different parts produced the same key")
	}
	if !strings.HasPrefix(k1, "yt:") {
		t.Errorf("key %s missing yt: prefix", k1)
	}
}

func TestCacheL1RoundTrip(t *testing.T) {
	InitCache("", time.Minute, 100, time.Minute)
	ctx := context.Background()

	key := CacheKey("t", "l1")
	if _, ok := CacheGet(ctx, key); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	CacheSet(ctx, key, []byte(`{"ok":true}`))
	data, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("got %s", data)
	}
}

func TestCacheL2SurvivesL1Loss(t *testing.T) {
	mr := miniredis.RunT(t)
	redisURL := "redis://" + mr.Addr()

	InitCache(redisURL, time.Minute, 100, time.Minute)
	ctx := context.Background()

	key := CacheKey("t", "l2")
	CacheSet(ctx, key, []byte("persisted"))

	// Re-init simulates a restart: L1 is gone, L2 is not.
	InitCache(redisURL, time.Minute, 100, time.Minute)

	data, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected L2 hit after restart")
	}
	if string(data) != "persisted" {
		t.Errorf("got %s", data)
	}
}

func TestCacheExpiry(t *testing.T) {
	InitCache("", 30*time.Millisecond, 100, time.Minute)
	ctx := context.Background()

	key := CacheKey("t", "expiry")
	CacheSet(ctx, key, []byte("x"))
	if _, ok := CacheGet(ctx, key); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected miss after expiry")
	}
}

func TestCacheJSONHelpers(t *testing.T) {
	InitCache("", time.Minute, 100, time.Minute)
	ctx := context.Background()

	key := CacheKey("t", "json")
	CacheStoreJSON(ctx, key, map[string]any{"videoId": "abc", "available": true})

	got, ok := CacheLoadJSON[map[string]any](ctx, key)
	if !ok {
		t.Fatal("expected hit")
	}
	if got["videoId"] != "abc" || got["available"] != true {
		t.Errorf("got %v", got)
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache("", time.Minute, 3, time.Minute)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		CacheSet(ctx, CacheKey("t", name), []byte(name))
	}

	count := 0
	respCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("L1 holds %d entries, limit is 3", count)
	}
}
