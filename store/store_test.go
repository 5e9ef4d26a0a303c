package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpl(t *testing.T) {
	var _ Store = &Memory{}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return stamp }

	require.NoError(t, m.Put(ctx, "b", "group b {}"))
	require.NoError(t, m.Put(ctx, "a", "group a {}"))

	names, e := m.List(ctx)
	require.NoError(t, e)
	assert.Equal(t, []string{"a", "b"}, names)

	rec, e := m.Get(ctx, "b")
	require.NoError(t, e)
	assert.Equal(t, Record{Name: "b", Source: "group b {}", Updated: stamp}, *rec)

	require.NoError(t, m.Delete(ctx, "b"))
	require.NoError(t, m.Delete(ctx, "b"))
	_, e = m.Get(ctx, "b")
	assert.ErrorIs(t, e, ErrNotFound)
}
