package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = client.Close()
		client = nil
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{ID: 1, Name: "Kibble"}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, ProductKey(1), &first, ProductTTL, fetch(&first)))
	assert.Equal(t, "Kibble", first.Name)
	assert.True(t, mr.Exists("product:1"))
	assert.Equal(t, ProductTTL, mr.TTL("product:1"))

	var second cachedThing
	require.NoError(t, Aside(ctx, ProductKey(1), &second, ProductTTL, fetch(&second)))
	assert.Equal(t, "Kibble", second.Name)
	assert.Equal(t, 1, calls)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := withMiniredis(t)
	boom := errors.New("boom")

	var dest cachedThing
	err := Aside(context.Background(), UserKey(9), &dest, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("user:9"))
}

func TestAside_NoClientFallsThrough(t *testing.T) {
	client = nil
	var dest cachedThing
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		dest.Name = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", dest.Name)
}

func TestInvalidateCategory(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, CategoryKey(3), cachedThing{ID: 3}, CategoryTTL))
	require.NoError(t, SetJSON(ctx, CategoryListKey, []cachedThing{{ID: 3}}, CategoryTTL))

	InvalidateCategory(ctx, 3)
	assert.False(t, mr.Exists("category:3"))
	assert.False(t, mr.Exists(CategoryListKey))
}
