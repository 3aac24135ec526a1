package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ragkit-dev/ragkit/agent"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStoreFromClient(client, "test:", time.Hour)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return mr, store
}

func TestRedisStore_LoadMissingSession(t *testing.T) {
	_, store := setupMiniredis(t)
	ctx := context.Background()

	messages, err := store.Load(ctx, "nope")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected empty history, got %d messages", len(messages))
	}
}

func TestRedisStore_ReplaceAndLoad(t *testing.T) {
	_, store := setupMiniredis(t)
	ctx := context.Background()

	want := []agent.Message{
		{Role: agent.RoleUser, Content: "hello", Index: 0},
		{Role: agent.RoleAssistant, Content: "hi there", Index: 1},
	}

	if err := store.Replace(ctx, "sess-1", want); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRedisStore_TTLRefreshedOnWrite(t *testing.T) {
	mr, store := setupMiniredis(t)
	ctx := context.Background()

	msgs := []agent.Message{{Role: agent.RoleUser, Content: "hi", Index: 0}}
	if err := store.Replace(ctx, "sess-ttl", msgs); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	mr.FastForward(30 * time.Minute)
	if err := store.Replace(ctx, "sess-ttl", msgs); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	// The second write reset the clock, so the key survives past the
	// original expiry.
	mr.FastForward(45 * time.Minute)
	got, err := store.Load(ctx, "sess-ttl")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("session expired despite TTL refresh")
	}

	mr.FastForward(2 * time.Hour)
	got, err = store.Load(ctx, "sess-ttl")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("idle session should be forgotten after the TTL")
	}
}

func TestRedisStore_Evict(t *testing.T) {
	_, store := setupMiniredis(t)
	ctx := context.Background()

	if err := store.Replace(ctx, "sess-2", []agent.Message{{Role: agent.RoleUser, Content: "x", Index: 0}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if err := store.Evict(ctx, "sess-2"); err != nil {
		t.Fatalf("Evict failed: %v", err)
	}

	got, err := store.Load(ctx, "sess-2")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty history after evict, got %d", len(got))
	}
}

func TestRedisStore_Closed(t *testing.T) {
	_, store := setupMiniredis(t)
	ctx := context.Background()

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := store.Load(ctx, "x"); err != ErrStoreClosed {
		t.Errorf("Load on closed store error = %v, want ErrStoreClosed", err)
	}
	if err := store.Replace(ctx, "x", nil); err != ErrStoreClosed {
		t.Errorf("Replace on closed store error = %v, want ErrStoreClosed", err)
	}
}
