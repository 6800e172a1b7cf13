package payroll

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSessionStoreExpiry(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	sess := store.Put(Session{OwnerID: "u1", Year: 2025, Month: 3})
	if sess.Token == "" || !sess.ExpiresAt.Equal(now.Add(10*time.Minute)) {
		t.Fatalf("unexpected session %+v", sess)
	}
	if _, err := store.Get(sess.Token); err != nil {
		t.Fatalf("get: %v", err)
	}

	now = now.Add(10 * time.Minute)
	if _, err := store.Get(sess.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected expiry at ttl, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired session to be dropped, got %d", store.Len())
	}
	if _, err := store.Get("unknown"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected unknown token to read as expired, got %v", err)
	}
}

func TestSessionStoreTakeOnce(t *testing.T) {
	store := NewSessionStore(0)
	sess := store.Put(Session{OwnerID: "u1"})

	denied := errors.New("denied")
	if _, err := store.Take(sess.Token, func(Session) error { return denied }); !errors.Is(err, denied) {
		t.Fatalf("expected authorize error, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatal("a denied take must leave the session in place")
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Take(sess.Token, nil); err == nil {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if taken != 1 {
		t.Fatalf("expected exactly one take, got %d", taken)
	}
}

func TestSessionStoreSweep(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Minute)
	store.now = func() time.Time { return now }
	store.Put(Session{OwnerID: "a"})
	now = now.Add(30 * time.Second)
	live := store.Put(Session{OwnerID: "b"})
	now = now.Add(45 * time.Second)

	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept, got %d", removed)
	}
	if _, err := store.Get(live.Token); err != nil {
		t.Fatalf("expected younger session to survive: %v", err)
	}
}
