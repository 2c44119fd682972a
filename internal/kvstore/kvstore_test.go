package kvstore

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	value := []byte(`["a"]`)
	require.NoError(t, store.Set(ctx, "reports", value))

	// Mutating the caller's slice must not change the stored value
	value[2] = 'b'

	got, err := store.Get(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, string(got))

	require.NoError(t, store.Set(ctx, "reports", []byte(`[]`)))
	got, err = store.Get(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Update(ctx, "counter", func(current []byte) ([]byte, error) {
		assert.Nil(t, current, "missing key yields nil")
		return []byte("1"), nil
	}))

	err := store.Update(ctx, "counter", func(current []byte) ([]byte, error) {
		assert.Equal(t, "1", string(current))
		return nil, errors.New("abort")
	})
	assert.EqualError(t, err, "abort")

	got, err := store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "1", string(got), "aborted update writes nothing")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Update(ctx, "counter", func(current []byte) ([]byte, error) {
				n, err := strconv.Atoi(string(current))
				if err != nil {
					return nil, err
				}
				return []byte(strconv.Itoa(n + 1)), nil
			}))
		}()
	}
	wg.Wait()

	got, err = store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "51", string(got))
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	store := NewRedisStore(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "reports")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.Set(ctx, "reports", []byte(`[]`)))

	err = store.Update(ctx, "reports", func(current []byte) ([]byte, error) {
		return []byte(`[]`), nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpdateConflict)
}
