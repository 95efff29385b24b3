package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetSetDel(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "user:1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "user:1", []byte(`{"id":1}`), time.Hour))
	val, err := c.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(val))
	assert.Equal(t, time.Hour, mr.TTL("user:1"))

	require.NoError(t, c.Del(ctx, "user:1", "user:2"))
	assert.False(t, mr.Exists("user:1"))
	require.NoError(t, c.Del(ctx))
}

func TestExpiry(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "product:7", []byte("x"), 30*time.Minute))
	mr.FastForward(31 * time.Minute)

	_, err := c.Get(ctx, "product:7")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(addr, "", 0)
	assert.Error(t, err)
}

func TestGetAfterServerLoss(t *testing.T) {
	c, mr := newTestClient(t)
	mr.Close()

	_, err := c.Get(context.Background(), "user:1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
