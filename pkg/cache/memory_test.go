package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, 0)

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))

	// returned slice is a copy
	v[0] = 'x'
	v2, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "v", string(v2))

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, 0)
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Capacity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, 0)
	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))

	// 读取 a 后 b 成为最久未使用
	_, ok, _ := m.Get(ctx, "a")
	require.True(t, ok)

	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))
	assert.Equal(t, 2, m.Len())

	_, ok, _ = m.Get(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "a")
	assert.True(t, ok)
	_, ok, _ = m.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemory_CacheTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, 20*time.Millisecond)
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))

	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok, _ := m.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "memcached"})
	assert.Error(t, err)

	c, err := New(context.Background(), Config{Type: TypeMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)
}
