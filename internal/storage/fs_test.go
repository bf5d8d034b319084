package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key, err := s.Put(ctx, ItemKey("abc"), strings.NewReader("<assessmentItem/>"))
	require.NoError(t, err)
	assert.Equal(t, "items/abc.xml", key)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "<assessmentItem/>", string(b))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, key), "deleting twice is fine")
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.xml", "items/../../x", "/"} {
		_, err := s.Put(ctx, key, strings.NewReader("x"))
		assert.Error(t, err, key)
	}
}
