package service

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"voc-chatbot-be/internal/constant"
	"voc-chatbot-be/internal/repository/memory"
)

// fakeLocker is an in-memory sessionLocker recording which token holds
// each key.
type fakeLocker struct {
	mu         sync.Mutex
	holders    map[string]string
	acquireErr error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{holders: make(map[string]string)}
}

func (f *fakeLocker) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if _, held := f.holders[key]; held {
		return false, nil
	}
	f.holders[key] = token
	return true, nil
}

func (f *fakeLocker) Release(ctx context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holders[key] != token {
		return nil
	}
	delete(f.holders, key)
	return nil
}

func (f *fakeLocker) holder(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holders[key]
}

func lockTestService(locker sessionLocker, ttl time.Duration) *chatService {
	return &chatService{
		locker:         locker,
		lockTTL:        ttl,
		sessionRepo:    memory.NewSessionRepository(),
		pipelineLogger: log.New(io.Discard, "", 0),
	}
}

func TestLockSessionAcquireAndRelease(t *testing.T) {
	locker := newFakeLocker()
	cs := lockTestService(locker, time.Second)
	key := constant.SessionLockPrefix + "sess-1"

	unlock, err := cs.lockSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("lockSession: %v", err)
	}
	if locker.holder(key) == "" {
		t.Fatal("lock not held after acquisition")
	}

	unlock()
	if locker.holder(key) != "" {
		t.Error("lock still held after release")
	}

	if _, err := cs.lockSession(context.Background(), "sess-1"); err != nil {
		t.Errorf("re-acquire after release: %v", err)
	}
}

func TestLockSessionBusyRejectsSecondTurn(t *testing.T) {
	locker := newFakeLocker()
	key := constant.SessionLockPrefix + "sess-1"
	locker.holders[key] = "holder-token"

	cs := lockTestService(locker, 50*time.Millisecond)
	_, err := cs.lockSession(context.Background(), "sess-1")
	if !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("err = %v, want ErrSessionBusy", err)
	}
	if locker.holder(key) != "holder-token" {
		t.Error("rejected turn disturbed the holder's lock")
	}
}

func TestLockSessionReleaseIsTokenGuarded(t *testing.T) {
	locker := newFakeLocker()
	cs := lockTestService(locker, time.Second)
	key := constant.SessionLockPrefix + "sess-1"

	unlock, err := cs.lockSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("lockSession: %v", err)
	}

	// Simulate TTL expiry and takeover by another turn.
	locker.mu.Lock()
	locker.holders[key] = "successor-token"
	locker.mu.Unlock()

	unlock()
	if locker.holder(key) != "successor-token" {
		t.Error("stale release deleted the successor's lock")
	}
}

func TestLockSessionWaitsForHolder(t *testing.T) {
	locker := newFakeLocker()
	key := constant.SessionLockPrefix + "sess-1"
	locker.holders[key] = "holder-token"

	go func() {
		time.Sleep(30 * time.Millisecond)
		locker.mu.Lock()
		delete(locker.holders, key)
		locker.mu.Unlock()
	}()

	cs := lockTestService(locker, time.Second)
	unlock, err := cs.lockSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("lockSession after holder released: %v", err)
	}
	unlock()
}

func TestLockSessionFallsBackToLocalLock(t *testing.T) {
	locker := newFakeLocker()
	locker.acquireErr = errors.New("connection refused")

	cs := lockTestService(locker, time.Second)
	unlock, err := cs.lockSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("lockSession with unreachable redis: %v", err)
	}

	mu := cs.sessionRepo.Lock("sess-1")
	if mu.TryLock() {
		mu.Unlock()
		t.Fatal("local mutex not held during the fallback")
	}

	unlock()
	if !mu.TryLock() {
		t.Fatal("local mutex still held after release")
	}
	mu.Unlock()
}
