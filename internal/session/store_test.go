package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the shared Store contract against an implementation.
func storeUnderTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, KeyAdmin)
	assert.ErrorIs(t, err, ErrNotFound, "empty store must report ErrNotFound")

	record := []byte(`{"role":"Admin","isLoggedIn":true,"name":"Ada"}`)
	require.NoError(t, store.Set(ctx, KeyAdmin, record))

	got, err := store.Get(ctx, KeyAdmin)
	require.NoError(t, err)
	assert.Equal(t, record, got, "record must round-trip verbatim")

	// Disjoint namespace keys do not conflict
	other := []byte(`{"role":"Student","isLoggedIn":true}`)
	require.NoError(t, store.Set(ctx, KeyStudent, other))
	got, err = store.Get(ctx, KeyAdmin)
	require.NoError(t, err)
	assert.Equal(t, record, got)

	// Last write wins for a given key
	updated := []byte(`{"role":"Admin","isLoggedIn":false}`)
	require.NoError(t, store.Set(ctx, KeyAdmin, updated))
	got, err = store.Get(ctx, KeyAdmin)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, store.Delete(ctx, KeyAdmin))
	_, err = store.Get(ctx, KeyAdmin)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is a no-op
	assert.NoError(t, store.Delete(ctx, KeyAdmin))
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestMemoryStoreRespectsContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, KeyStudent)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Set(ctx, KeyStudent, []byte(`{}`)), context.Canceled)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })

	storeUnderTest(t, store)
}

func TestRedisStoreRecordsHaveNoExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyLecturer, []byte(`{"role":"Lecturer","isLoggedIn":true}`)))

	// Records persist until overwritten or cleared; no TTL is set
	assert.Equal(t, int64(0), int64(mr.TTL(keyPrefix+KeyLecturer)))
}
