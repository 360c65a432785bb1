package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mvc/pkg/cache"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	t.Run("stores and returns values", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		c := cache.NewMemory[int]()

		_, err := c.Get(ctx, "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)

		require.NoError(t, c.Set(ctx, "answer", 42, 0))
		v, err := c.Get(ctx, "answer")
		require.NoError(t, err)
		require.Equal(t, 42, v)
	})

	t.Run("expires entries", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		c := cache.NewMemory[string]()
		require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))

		time.Sleep(5 * time.Millisecond)
		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("default ttl applies to zero", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		c := cache.NewMemory[string](cache.WithDefaultTTL(time.Millisecond))
		require.NoError(t, c.Set(ctx, "k", "v", 0))
		require.NoError(t, c.Set(ctx, "forever", "v", -1))

		time.Sleep(5 * time.Millisecond)
		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)

		_, err = c.Get(ctx, "forever")
		require.NoError(t, err)
	})

	t.Run("drops the oldest entry when full", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		c := cache.NewMemory[int](cache.WithMaxEntries(2))
		require.NoError(t, c.Set(ctx, "a", 1, 0))
		require.NoError(t, c.Set(ctx, "b", 2, 0))
		require.NoError(t, c.Set(ctx, "c", 3, 0))

		require.Equal(t, 2, c.Len())
		_, err := c.Get(ctx, "a")
		require.ErrorIs(t, err, cache.ErrNotFound)
		_, err = c.Get(ctx, "c")
		require.NoError(t, err)
	})

	t.Run("delete, clear and close", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		c := cache.NewMemory[int]()
		require.NoError(t, c.Set(ctx, "a", 1, 0))
		require.NoError(t, c.Set(ctx, "b", 2, 0))

		require.NoError(t, c.Delete(ctx, "a"))
		_, err := c.Get(ctx, "a")
		require.ErrorIs(t, err, cache.ErrNotFound)

		require.NoError(t, c.Clear(ctx))
		require.Equal(t, 0, c.Len())

		require.NoError(t, c.Close())
		require.ErrorIs(t, c.Set(ctx, "a", 1, 0), cache.ErrClosed)
		_, err = c.Get(ctx, "a")
		require.ErrorIs(t, err, cache.ErrClosed)
	})
}

func TestLoader_GetOrSet(t *testing.T) {
	t.Parallel()

	t.Run("fills once and serves from cache", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		l := cache.NewLoader[string](cache.NewMemory[string](), 0)

		var calls atomic.Int32
		fill := func(context.Context) (string, error) {
			calls.Add(1)
			return "value", nil
		}

		for range 3 {
			v, err := l.GetOrSet(ctx, "k", fill)
			require.NoError(t, err)
			require.Equal(t, "value", v)
		}
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("deduplicates concurrent misses", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		l := cache.NewLoader[int](cache.NewMemory[int](), 0)

		var (
			calls   atomic.Int32
			release = make(chan struct{})
			wg      sync.WaitGroup
		)
		fill := func(context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 7, nil
		}

		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := l.GetOrSet(ctx, "k", fill)
				require.NoError(t, err)
				require.Equal(t, 7, v)
			}()
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		l := cache.NewLoader[int](cache.NewMemory[int](), 0)
		boom := errors.New("boom")

		_, err := l.GetOrSet(ctx, "k", func(context.Context) (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)

		v, err := l.GetOrSet(ctx, "k", func(context.Context) (int, error) { return 1, nil })
		require.NoError(t, err)
		require.Equal(t, 1, v)
	})

	t.Run("forget drops the entry", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		l := cache.NewLoader[int](cache.NewMemory[int](), 0)

		_, err := l.GetOrSet(ctx, "k", func(context.Context) (int, error) { return 1, nil })
		require.NoError(t, err)
		require.NoError(t, l.Forget(ctx, "k"))

		_, err = l.Cache().Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestJSON(t *testing.T) {
	t.Parallel()

	type column struct {
		Name string
		Key  string
	}

	var codec cache.JSON[[]column]
	data, err := codec.Encode([]column{{Name: "id", Key: "PRI"}})
	require.NoError(t, err)

	got, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, []column{{Name: "id", Key: "PRI"}}, got)

	_, err = codec.Decode([]byte("{"))
	require.ErrorIs(t, err, cache.ErrDecode)
}

func TestOpenRedis_Validation(t *testing.T) {
	t.Parallel()

	_, err := cache.OpenRedis(context.Background(), cache.RedisConfig{})
	require.ErrorIs(t, err, cache.ErrEmptyConnectionURL)

	_, err = cache.OpenRedis(context.Background(), cache.RedisConfig{URL: "http://localhost:6379"})
	require.ErrorIs(t, err, cache.ErrFailedToParseURL)
}
