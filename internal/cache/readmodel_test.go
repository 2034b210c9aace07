package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ReadModelStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewReadModelStore(client), mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestReadModelStore_GetMissAndHit(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var out payload
	hit, err := store.Get(ctx, "nope", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.SetAggregate(ctx, KeyUserStats, payload{Name: "stats", Count: 7}))

	hit, err = store.Get(ctx, KeyUserStats, &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, payload{Name: "stats", Count: 7}, out)
}

func TestReadModelStore_SetListingRegistersKey(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	key := "users:list:page=1:limit=10:search=:role=:status="
	require.NoError(t, store.SetListing(ctx, key, payload{Count: 1}, time.Minute))

	assert.True(t, mr.Exists(key))
	members, err := mr.SMembers(listingRegistry)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, members)
}

func TestReadModelStore_InvalidateDropsEverything(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	listingA := "users:list:page=1:limit=10:search=:role=:status="
	listingB := "users:list:page=2:limit=10:search=ann:role=:status="
	require.NoError(t, store.SetListing(ctx, listingA, payload{}, time.Minute))
	require.NoError(t, store.SetListing(ctx, listingB, payload{}, time.Minute))
	require.NoError(t, store.SetAggregate(ctx, KeyUserStats, payload{}))
	require.NoError(t, store.SetAggregate(ctx, KeyRoleStats, payload{}))
	require.NoError(t, mr.Set("unrelated", "kept"))

	require.NoError(t, store.Invalidate(ctx))

	assert.False(t, mr.Exists(listingA))
	assert.False(t, mr.Exists(listingB))
	assert.False(t, mr.Exists(KeyUserStats))
	assert.False(t, mr.Exists(KeyRoleStats))
	assert.False(t, mr.Exists(listingRegistry))
	assert.True(t, mr.Exists("unrelated"), "invalidation only touches read model keys")
}

func TestReadModelStore_InvalidateWithEmptyRegistry(t *testing.T) {
	store, _ := newTestStore(t)

	assert.NoError(t, store.Invalidate(context.Background()))
}
