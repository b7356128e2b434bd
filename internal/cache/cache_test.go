package cache

import (
	"testing"
	"time"
)

func TestMemoryGetSetInvalidate(t *testing.T) {
	t.Parallel()

	store := NewMemory()

	if _, ok, err := store.Get("missing"); err != nil || ok {
		t.Fatalf("Get on empty store = ok=%t err=%v, want miss", ok, err)
	}

	if err := store.Set("k", 42, time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	value, ok, err := store.Get("k")
	if err != nil || !ok {
		t.Fatalf("Get after Set = ok=%t err=%v, want hit", ok, err)
	}
	if value.(int) != 42 {
		t.Fatalf("Get returned %v, want 42", value)
	}

	if err := store.Invalidate("k"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Fatal("Get after Invalidate still hit")
	}
}

func TestMemoryEntriesExpirePassively(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	if err := store.Set("k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if _, ok, _ := store.Get("k"); !ok {
		t.Fatal("entry missing before TTL elapsed")
	}

	time.Sleep(25 * time.Millisecond)

	if _, ok, _ := store.Get("k"); ok {
		t.Fatal("entry still served past its TTL")
	}
}

func TestNilMemoryReportsUnavailable(t *testing.T) {
	t.Parallel()

	var store *Memory
	if _, _, err := store.Get("k"); err != ErrUnavailable {
		t.Fatalf("Get on nil store = %v, want ErrUnavailable", err)
	}
	if err := store.Set("k", 1, time.Minute); err != ErrUnavailable {
		t.Fatalf("Set on nil store = %v, want ErrUnavailable", err)
	}
	if err := store.Invalidate("k"); err != ErrUnavailable {
		t.Fatalf("Invalidate on nil store = %v, want ErrUnavailable", err)
	}
}
