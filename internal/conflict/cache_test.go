package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/callsift/callsift/internal/events"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ResolvedPairCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewResolvedPairCache(client, ttl), mr
}

func TestResolvedPairCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	ctx := context.Background()
	id := PairID("ev-1", "ev-2")

	if cache.IsResolved(ctx, id) {
		t.Fatal("fresh cache should not report the pair as resolved")
	}
	if err := cache.MarkResolved(ctx, id); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if !cache.IsResolved(ctx, id) {
		t.Fatal("marked pair should be reported as resolved")
	}
}

func TestResolvedPairCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	id := PairID("ev-1", "ev-2")

	if err := cache.MarkResolved(ctx, id); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if cache.IsResolved(ctx, id) {
		t.Fatal("entry should expire after the TTL")
	}
}

func TestResolvedPairCacheNilIsSafe(t *testing.T) {
	var cache *ResolvedPairCache
	ctx := context.Background()

	if cache.IsResolved(ctx, "conflict:a:b") {
		t.Fatal("nil cache must report not resolved")
	}
	if err := cache.MarkResolved(ctx, "conflict:a:b"); err != nil {
		t.Fatalf("nil cache mark must be a no-op, got %v", err)
	}
}

func TestResolvedPairCacheUnreachableServer(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	mr.Close()

	// Detection must keep working when the cache backend is down.
	if cache.IsResolved(context.Background(), "conflict:a:b") {
		t.Fatal("errors must degrade to not-resolved")
	}
}

func TestDetectBatchSuppressesCachedPairs(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := callEvent("ev-1", now)
	b := callEvent("ev-2", now.Add(time.Second))

	store := &fakeStore{
		pairs: []events.CandidatePair{
			{OriginalID: "ev-1", DuplicateID: "ev-2", ConflictType: "time_variance", Similarity: 0.9},
		},
		records: map[string]*events.Event{"ev-1": &a, "ev-2": &b},
	}
	cache, _ := newTestCache(t, time.Hour)
	if err := cache.MarkResolved(context.Background(), PairID("ev-1", "ev-2")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	det := newTestDetector(store, WithCache(cache))
	conflicts, summary := det.DetectBatch(context.Background(), "user-1")
	if len(conflicts) != 0 {
		t.Fatalf("cached pair should be suppressed, got %d conflicts", len(conflicts))
	}
	if summary.Suppressed != 1 {
		t.Fatalf("expected 1 suppressed pair, got %d", summary.Suppressed)
	}
}
