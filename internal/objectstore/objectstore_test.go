package objectstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carematch/pkg/platform/sentinel"
)

func TestInMemory(t *testing.T) {
	store := NewInMemory()
	store.Put("/uploads/wwcc.pdf", []byte("%PDF-1.4"))

	t.Run("leading slash is ignored", func(t *testing.T) {
		data, err := store.Get(context.Background(), "uploads/wwcc.pdf")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4"), data)
	})

	t.Run("missing object is not found", func(t *testing.T) {
		_, err := store.Get(context.Background(), "uploads/missing.pdf")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("returned bytes are a copy", func(t *testing.T) {
		data, err := store.Get(context.Background(), "uploads/wwcc.pdf")
		require.NoError(t, err)
		data[0] = 'X'
		again, err := store.Get(context.Background(), "uploads/wwcc.pdf")
		require.NoError(t, err)
		assert.Equal(t, byte('%'), again[0])
	})
}

func TestReadLimited(t *testing.T) {
	data, err := readLimited(bytes.NewReader(make([]byte, MaxObjectBytes)))
	require.NoError(t, err)
	assert.Len(t, data, MaxObjectBytes)

	_, err = readLimited(bytes.NewReader(make([]byte, MaxObjectBytes+1)))
	assert.ErrorIs(t, err, ErrTooLarge)
}
