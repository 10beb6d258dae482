package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title string `json:"title"`
}

func newStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewStore(rdb)
}

func TestStore_AsideFetchesOnceThenServesFromRedis(t *testing.T) {
	mr, s := newStore(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			dest.Title = "hello"
			return nil
		}
	}

	var first payload
	require.NoError(t, s.Aside(ctx, PostKey(1), &first, PostTTL, fetch(&first)))
	var second payload
	require.NoError(t, s.Aside(ctx, PostKey(1), &second, PostTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "hello", second.Title)
	assert.Equal(t, PostTTL, mr.TTL(PostKey(1)))

	s.Invalidate(ctx, PostKey(1))
	var third payload
	require.NoError(t, s.Aside(ctx, PostKey(1), &third, PostTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestStore_AsidePropagatesFetchError(t *testing.T) {
	_, s := newStore(t)
	boom := errors.New("db down")

	var dest payload
	err := s.Aside(context.Background(), PostKey(2), &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStore_Generation(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	assert.Equal(t, int64(0), s.Generation(ctx, ApprovedPostsGeneration))
	s.Bump(ctx, ApprovedPostsGeneration)
	s.Bump(ctx, ApprovedPostsGeneration)
	assert.Equal(t, int64(2), s.Generation(ctx, ApprovedPostsGeneration))
	assert.Equal(t, "posts:approved:g2:20:0", ApprovedPostsKey(2, 20, 0))
}

func TestStore_NilClientIsNoop(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	assert.False(t, s.Enabled())
	require.NoError(t, s.SetJSON(ctx, "k", payload{Title: "x"}, time.Minute))
	found, err := s.GetJSON(ctx, "k", &payload{})
	require.NoError(t, err)
	assert.False(t, found)

	calls := 0
	require.NoError(t, s.Aside(ctx, "k", &payload{}, time.Minute, func() error { calls++; return nil }))
	require.NoError(t, s.Aside(ctx, "k", &payload{}, time.Minute, func() error { calls++; return nil }))
	assert.Equal(t, 2, calls)
}

func TestNewClient_ParsesURL(t *testing.T) {
	c, err := NewClient("redis://:secret@localhost:6390/2")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "localhost:6390", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)
}
