package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOTPService(t *testing.T) (*OTPService, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewOTPService(client, 5*time.Minute), srv
}

func TestOTPIssueAndVerify(t *testing.T) {
	svc, _ := setupOTPService(t)
	ctx := context.Background()

	t.Run("Issued Code Verifies", func(t *testing.T) {
		code, err := svc.Issue(ctx, "+84901234567")
		require.NoError(t, err)
		assert.Len(t, code, OTPLength)

		ok, err := svc.Verify(ctx, "+84901234567", code)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Code Is Single Use", func(t *testing.T) {
		code, err := svc.Issue(ctx, "+84901234567")
		require.NoError(t, err)

		ok, err := svc.Verify(ctx, "+84901234567", code)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = svc.Verify(ctx, "+84901234567", code)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Wrong Code Does Not Consume", func(t *testing.T) {
		code, err := svc.Issue(ctx, "+84901234567")
		require.NoError(t, err)

		ok, err := svc.Verify(ctx, "+84901234567", "000000")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = svc.Verify(ctx, "+84901234567", code)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("No Code Stored", func(t *testing.T) {
		ok, err := svc.Verify(ctx, "+84999999999", "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Concurrent Verifies Consume Once", func(t *testing.T) {
		code, err := svc.Issue(ctx, "+84901234567")
		require.NoError(t, err)

		var wg sync.WaitGroup
		var successes int32
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := svc.Verify(ctx, "+84901234567", code)
				assert.NoError(t, err)
				if ok {
					atomic.AddInt32(&successes, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), successes)
	})
}

func TestOTPReissueInvalidatesPrior(t *testing.T) {
	svc, _ := setupOTPService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "+84901234567")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "+84901234567")
	require.NoError(t, err)

	if first != second {
		ok, err := svc.Verify(ctx, "+84901234567", first)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := svc.Verify(ctx, "+84901234567", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOTPExpiry(t *testing.T) {
	svc, srv := setupOTPService(t)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "+84901234567")
	require.NoError(t, err)

	srv.FastForward(5*time.Minute + time.Second)

	ok, err := svc.Verify(ctx, "+84901234567", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOTPInvalidate(t *testing.T) {
	svc, _ := setupOTPService(t)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "+84901234567")
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(ctx, "+84901234567"))

	ok, err := svc.Verify(ctx, "+84901234567", code)
	require.NoError(t, err)
	assert.False(t, ok)
}
