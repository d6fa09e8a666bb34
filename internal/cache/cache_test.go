package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	v, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, m.Delete(ctx, "k"))
	v, _ = m.Get(ctx, "k")
	assert.Nil(t, v)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 15*time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(14 * time.Minute)
	v, _ := m.Get(ctx, "k")
	assert.NotNil(t, v)

	now = now.Add(time.Minute)
	v, _ = m.Get(ctx, "k")
	assert.Nil(t, v)

	v, _ = m.Get(ctx, "forever")
	assert.NotNil(t, v)
}

func TestMemory_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "product_list:", []byte("a"), time.Minute)
	_ = m.Set(ctx, "product_list:name=tea", []byte("b"), time.Minute)
	_ = m.Set(ctx, "refresh_token:abc", []byte("c"), time.Minute)

	require.NoError(t, m.DeleteByPrefix(ctx, "product_list:"))

	assert.Equal(t, 1, m.Len())
	v, _ := m.Get(ctx, "refresh_token:abc")
	assert.Equal(t, []byte("c"), v)
}

func TestMemory_Incr(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := m.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = m.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	v, _ := m.Get(ctx, "gen")
	assert.Equal(t, []byte("2"), v)

	_ = m.Set(ctx, "word", []byte("abc"), 0)
	_, err = m.Incr(ctx, "word")
	assert.Error(t, err)
}

func TestMemory_Count(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "product_list:a", []byte("a"), 0)
	_ = m.Set(ctx, "product_list:b", []byte("b"), 0)
	_, _ = m.Incr(ctx, "product_list_generation")

	assert.Equal(t, 2, m.Count("product_list:"))
	assert.Equal(t, 3, m.Len())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	_ = m.Set(ctx, "k", value, 0)
	value[0] = 'x'

	got, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), got)
}

func TestClient_NilIsSafe(t *testing.T) {
	ctx := context.Background()
	var c *Client

	v, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.DeleteByPrefix(ctx, "k"))
	_, err = c.Incr(ctx, "k")
	assert.NoError(t, err)
	assert.NoError(t, c.Close())
}

func TestClient_UnreachableFailsSafe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c := New(Options{Addr: "127.0.0.1:1", Timeout: 50 * time.Millisecond})
	defer c.Close()

	v, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Error(t, c.DeleteByPrefix(ctx, "product_list:"))
}

func TestClient_StrictReportsErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c := New(Options{Addr: "127.0.0.1:1", Timeout: 50 * time.Millisecond})
	defer c.Close()
	strict := c.Strict()

	_, err := strict.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, strict.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Error(t, strict.Delete(ctx, "k"))
	_, err = strict.Incr(ctx, "k")
	assert.Error(t, err)

	// the original client keeps failing safe
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
}
