package lock

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestTryAcquireExclusivePerSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := SubmitLock{R: client, TTL: time.Minute}
	ctx := context.Background()

	ok, err := l.TryAcquire(ctx, "sess-1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = l.TryAcquire(ctx, "sess-1")
	if err != nil || ok {
		t.Fatalf("second acquire should be refused: ok=%v err=%v", ok, err)
	}

	// Another session is independent.
	ok, err = l.TryAcquire(ctx, "sess-2")
	if err != nil || !ok {
		t.Fatalf("other session acquire: ok=%v err=%v", ok, err)
	}

	l.Release(ctx, "sess-1")
	ok, err = l.TryAcquire(ctx, "sess-1")
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestLockExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := SubmitLock{R: client, TTL: time.Second}
	ctx := context.Background()

	if ok, _ := l.TryAcquire(ctx, "sess-1"); !ok {
		t.Fatal("first acquire should succeed")
	}
	mr.FastForward(2 * time.Second)
	if ok, _ := l.TryAcquire(ctx, "sess-1"); !ok {
		t.Fatal("slot should be free after TTL")
	}
}

func TestNilClientAlwaysAllows(t *testing.T) {
	l := SubmitLock{}
	if ok, err := l.TryAcquire(context.Background(), "sess-1"); err != nil || !ok {
		t.Fatalf("nil client must allow: ok=%v err=%v", ok, err)
	}
}
