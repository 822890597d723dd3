package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionalquest/onboard/pkg/ports"
	"github.com/fractionalquest/onboard/pkg/session"
)

func TestManager_SerializesSameUser(t *testing.T) {
	manager := session.NewManager()
	ctx := context.Background()

	// A read-modify-write counter loses updates unless calls for the same
	// user run sequentially.
	counter := 0
	var wg sync.WaitGroup
	writes := 50

	for i := 0; i < writes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, "u1", func(context.Context) error {
				v := counter
				time.Sleep(time.Millisecond) // Simulate IO
				counter = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, writes, counter)
}

func TestManager_IndependentUsersDoNotBlock(t *testing.T) {
	manager := session.NewManager()
	ctx := context.Background()

	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = manager.WithLock(ctx, "u1", func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	// A different user must proceed while u1's lock is held.
	done := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "u2", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock for u2 blocked behind u1")
	}
	close(release)
}

func TestManager_PropagatesError(t *testing.T) {
	manager := session.NewManager()
	want := errors.New("boom")

	err := manager.WithLock(context.Background(), "u1", func(context.Context) error {
		return want
	})
	assert.ErrorIs(t, err, want)
}

// recordingLocker records lock/unlock calls for inspection.
type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
	fail     bool
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return nil, errors.New("lock held elsewhere")
	}
	l.locked = append(l.locked, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked = append(l.unlocked, key)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(session.WithLocker(locker), session.WithLockTTL(time.Second))

	err := manager.WithLock(context.Background(), "u1", func(context.Context) error { return nil })
	require.NoError(t, err)

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Equal(t, []string{"u1"}, locker.locked)
	assert.Equal(t, []string{"u1"}, locker.unlocked, "lock must be released even on the happy path")
}

func TestManager_DistributedLockerFailure(t *testing.T) {
	locker := &recordingLocker{fail: true}
	manager := session.NewManager(session.WithLocker(locker))

	ran := false
	err := manager.WithLock(context.Background(), "u1", func(context.Context) error {
		ran = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, ran, "critical section must not run without the lock")
}
