//go:build !integration

package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"telegram-course-bot/internal/config"
	"telegram-course-bot/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := NewClient(context.Background(), &config.RedisConfig{URL: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewClient_ParsesURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := NewClient(context.Background(), &config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.NoError(t, c.Ping(context.Background()))
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	c, mr := newTestClient(t)
	rl := NewRateLimiter(c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, 42, ScopeMessage, "text", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := rl.Allow(ctx, 42, ScopeMessage, "text", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("should keep separate budgets per scope and user", func(t *testing.T) {
		ok, err := rl.Allow(ctx, 42, ScopeCallback, "text", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = rl.Allow(ctx, 43, ScopeMessage, "text", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("should reset after the window", func(t *testing.T) {
		assert.Greater(t, mr.TTL(rateKey(42, ScopeMessage, "text")), time.Duration(0))
		mr.FastForward(time.Minute + time.Second)

		ok, err := rl.Allow(ctx, 42, ScopeMessage, "text", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "window should reset")
	})
}

func TestLedgerRepo_MarkUsedIsIdempotent(t *testing.T) {
	c, mr := newTestClient(t)
	l := NewLedgerRepo(c, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.MarkUsed(ctx, "ABC123"))
	require.NoError(t, l.MarkUsed(ctx, "ABC123"))

	has, err := l.Has(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, time.Duration(0), mr.TTL(usedKey("ABC123")), "used references never expire")

	require.NoError(t, l.Release(ctx, "ABC123"))
	require.NoError(t, l.Release(ctx, "ABC123"))
	has, err = l.Has(ctx, "ABC123")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLedgerRepo_ClaimContract(t *testing.T) {
	c, mr := newTestClient(t)
	l := NewLedgerRepo(c, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.MarkUsed(ctx, "USED"))
	_, ok, err := l.Claim(ctx, "USED")
	require.NoError(t, err)
	assert.False(t, ok, "used references cannot be claimed")

	first, ok, err := l.Claim(ctx, "NEW")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, first)

	_, ok, err = l.Claim(ctx, "NEW")
	require.NoError(t, err)
	assert.False(t, ok, "second claim must fail while the first is in flight")

	has, err := l.Has(ctx, "NEW")
	require.NoError(t, err)
	assert.False(t, has, "a claim is not a used entry")

	require.NoError(t, l.Abandon(ctx, "NEW", first))
	second, ok, err := l.Claim(ctx, "NEW")
	require.NoError(t, err)
	assert.True(t, ok, "abandoned references can be claimed again")

	require.NoError(t, l.Commit(ctx, "NEW", second))
	has, err = l.Has(ctx, "NEW")
	require.NoError(t, err)
	assert.True(t, has)
	assert.False(t, mr.Exists(claimKey("NEW")))

	assert.ErrorIs(t, l.Commit(ctx, "NEW", second), domain.ErrDuplicateTransaction)
}

func TestLedgerRepo_ClaimExpires(t *testing.T) {
	c, mr := newTestClient(t)
	l := NewLedgerRepo(c, time.Minute)
	ctx := context.Background()

	_, ok, err := l.Claim(ctx, "STALE")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok, err = l.Claim(ctx, "STALE")
	require.NoError(t, err)
	assert.True(t, ok, "expired claims free the reference")
}

func TestLedgerRepo_ExpiredClaimCannotTouchSuccessor(t *testing.T) {
	c, mr := newTestClient(t)
	l := NewLedgerRepo(c, time.Minute)
	ctx := context.Background()

	stale, ok, err := l.Claim(ctx, "R1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	current, ok, err := l.Claim(ctx, "R1")
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("should keep the successor claim after a stale abandon", func(t *testing.T) {
		require.NoError(t, l.Abandon(ctx, "R1", stale))

		_, ok, err := l.Claim(ctx, "R1")
		require.NoError(t, err)
		assert.False(t, ok, "reference is still held by the second claimant")
	})

	t.Run("should refuse a stale commit while the successor holds the claim", func(t *testing.T) {
		assert.ErrorIs(t, l.Commit(ctx, "R1", stale), domain.ErrTransactionInFlight)

		has, err := l.Has(ctx, "R1")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("should let the successor commit", func(t *testing.T) {
		require.NoError(t, l.Commit(ctx, "R1", current))

		has, err := l.Has(ctx, "R1")
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestLedgerRepo_CommitAfterExpiryWithoutSuccessor(t *testing.T) {
	c, mr := newTestClient(t)
	l := NewLedgerRepo(c, time.Minute)
	ctx := context.Background()

	token, ok, err := l.Claim(ctx, "LATE")
	require.NoError(t, err)
	require.True(t, ok)
	mr.FastForward(2 * time.Minute)

	require.NoError(t, l.Commit(ctx, "LATE", token))
	has, err := l.Has(ctx, "LATE")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestLedgerRepo_ConcurrentClaims(t *testing.T) {
	c, _ := newTestClient(t)
	l := NewLedgerRepo(c, time.Minute)
	ctx := context.Background()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := l.Claim(ctx, "RACE"); err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}
