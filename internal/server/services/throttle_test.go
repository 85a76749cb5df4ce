package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginThrottle_DisabledIsNil(t *testing.T) {
	assert.Nil(t, NewLoginThrottle(0, time.Minute))
	assert.Nil(t, NewLoginThrottle(3, 0))

	var th *LoginThrottle
	th.Fail("x")
	th.Reset("x")
	assert.False(t, th.Blocked("x"))
}

func TestLoginThrottle_BlocksAfterMax(t *testing.T) {
	th := NewLoginThrottle(3, time.Minute)

	for range 2 {
		th.Fail("alice")
	}
	assert.False(t, th.Blocked("alice"))

	th.Fail("alice")
	assert.True(t, th.Blocked("alice"))
	assert.False(t, th.Blocked("bob"))

	th.Reset("alice")
	assert.False(t, th.Blocked("alice"))
}

func TestLoginThrottle_WindowExpires(t *testing.T) {
	th := NewLoginThrottle(1, 50*time.Millisecond)

	th.Fail("alice")
	require.True(t, th.Blocked("alice"))

	require.Eventually(t, func() bool { return !th.Blocked("alice") }, 2*time.Second, 10*time.Millisecond)
}

func TestLoginThrottle_ResetWaitsForPendingFail(t *testing.T) {
	th := NewLoginThrottle(2, time.Minute)

	// hold the lock as Fail does between reading and writing the count
	th.mu.Lock()
	n, _ := th.failures.Peek("alice")

	done := make(chan struct{})
	go func() {
		th.Reset("alice")
		close(done)
	}()

	select {
	case <-done:
		th.mu.Unlock()
		t.Fatal("Reset ran while a Fail was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	th.failures.Add("alice", n+2)
	th.mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Reset did not finish")
	}
	assert.False(t, th.Blocked("alice"), "reset must win over the earlier failure")
}

func TestLoginThrottle_ConcurrentFailReset(t *testing.T) {
	th := NewLoginThrottle(1000, time.Minute)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				th.Fail("alice")
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				th.Reset("alice")
			}
		}()
	}
	wg.Wait()

	th.Reset("alice")
	assert.False(t, th.Blocked("alice"))
	_, ok := th.failures.Peek("alice")
	assert.False(t, ok)
}
