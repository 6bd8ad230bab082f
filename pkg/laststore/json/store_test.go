package json_test

import (
	"path/filepath"
	"testing"

	jsonstore "github.com/khaled151277/xvkeyboard/pkg/laststore/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyStoreHasNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := jsonstore.NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.LastLayout()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := jsonstore.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetLastLayout("ara"))
	require.NoError(t, store.Close())

	reopened, err := jsonstore.NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	code, ok, err := reopened.LastLayout()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ara", code)
}

func TestOverwriteKeepsLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := jsonstore.NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SetLastLayout("us"))
	require.NoError(t, store.SetLastLayout("ara"))

	code, ok, err := store.LastLayout()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ara", code)
}
