package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObject(t *testing.T) {
	store := New()

	uri, err := store.PutObject(context.Background(), "runs/r1/diagnostics.csv", "text/csv", strings.NewReader("from_url,to_url\n"))
	require.NoError(t, err)
	assert.Equal(t, "mem://runs/r1/diagnostics.csv", uri)

	content, ok := store.GetObject("runs/r1/diagnostics.csv")
	require.True(t, ok)
	assert.Equal(t, "from_url,to_url\n", string(content))
	assert.Equal(t, 1, store.Len())
}

func TestBlobStorePutObjectEmptyPath(t *testing.T) {
	store := New()

	_, err := store.PutObject(context.Background(), "", "text/csv", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestBlobStorePutObjectOverwrites(t *testing.T) {
	store := New()

	_, err := store.PutObject(context.Background(), "k", "text/plain", strings.NewReader("old"))
	require.NoError(t, err)
	_, err = store.PutObject(context.Background(), "k", "text/plain", strings.NewReader("new"))
	require.NoError(t, err)

	content, ok := store.GetObject("k")
	require.True(t, ok)
	assert.Equal(t, "new", string(content))
}
