package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cid, err := s.Put(ctx, []byte("checkpoint payload"))
	require.NoError(t, err)
	require.NotEmpty(t, cid)

	got, err := s.Get(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, []byte("checkpoint payload"), got)
}

func TestMemoryStore_PutIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Put(ctx, []byte("same bytes"))
	require.NoError(t, err)
	b, err := s.Put(ctx, []byte("same bytes"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "no-such-cid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Pin(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cid, err := s.Put(ctx, []byte("pinned"))
	require.NoError(t, err)

	assert.NoError(t, s.Pin(ctx, cid))
	assert.ErrorIs(t, s.Pin(ctx, "no-such-cid"), ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cid, err := s.Put(ctx, []byte("original"))
	require.NoError(t, err)

	got, err := s.Get(ctx, cid)
	require.NoError(t, err)
	got[0] = 'X'

	again, err := s.Get(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}
