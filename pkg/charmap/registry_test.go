package charmap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/khaled151277/xvkeyboard/pkg/charmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRegistry(t *testing.T) *charmap.Registry {
	t.Helper()
	return charmap.NewRegistry(zap.NewNop().Sugar())
}

func writeLayout(t *testing.T, dir, code, content string) string {
	t.Helper()
	path := filepath.Join(dir, code+".json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolveCharFallsBackToBuiltin(t *testing.T) {
	r := newRegistry(t)

	assert.Equal(t, "q", r.ResolveChar("nosuch", "Q", false))
	assert.Equal(t, "Q", r.ResolveChar("nosuch", "Q", true))
	assert.Equal(t, ":", r.ResolveChar("nosuch", ";", true))
}

func TestResolveCharUnknownKeyReturnsKeyName(t *testing.T) {
	r := newRegistry(t)

	assert.Equal(t, "Enter", r.ResolveChar("us", "Enter", false))
	assert.Equal(t, "F5", r.ResolveChar("us", "F5", true))
}

func TestResolveCharShiftedNeverEmptyForFallbackKeys(t *testing.T) {
	r := newRegistry(t)
	for _, key := range []string{"Q", "A", "Z", "1", ";", "'", "\\", "/"} {
		assert.NotEmpty(t, r.ResolveChar("whatever", key, true), "key %q", key)
		assert.NotEmpty(t, r.ResolveChar("whatever", key, false), "key %q", key)
	}
}

func TestLoadFileNullShiftedMeansNoShiftVariant(t *testing.T) {
	dir := t.TempDir()
	path := writeLayout(t, dir, "ara", `{"Q": ["ض", null], "H": ["ا", "أ"], "-": ["-"]}`)

	r := newRegistry(t)
	require.NoError(t, r.LoadFile("ara", path))

	// Shift requested but the slot is explicitly null: the base char wins.
	assert.Equal(t, "ض", r.ResolveChar("ara", "Q", true))
	assert.Equal(t, "أ", r.ResolveChar("ara", "H", true))
	assert.Equal(t, "-", r.ResolveChar("ara", "-", true))
}

func TestLoadFileRejectsBadShapes(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		name    string
		content string
	}{
		{"not an object", `["a"]`},
		{"empty pair", `{"Q": []}`},
		{"too many elements", `{"Q": ["a", "b", "c"]}`},
		{"null base", `{"Q": [null, "b"]}`},
		{"not json", `{{{`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeLayout(t, dir, "bad", tc.content)
			r := newRegistry(t)
			assert.Error(t, r.LoadFile("bad", path))
			assert.False(t, r.HasTable("bad"))
		})
	}
}

func TestLoadDirSkipsBadFilesAndKeepsGood(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "ara", `{"Q": ["ض", null]}`)
	writeLayout(t, dir, "broken", `nope`)

	r := newRegistry(t)
	require.NoError(t, r.LoadDir(dir))

	assert.True(t, r.HasTable("ara"))
	assert.False(t, r.HasTable("broken"))
}

func TestGetTableNeverNil(t *testing.T) {
	r := newRegistry(t)
	table := r.GetTable("nothing-loaded")
	require.NotNil(t, table)
	assert.Equal(t, "q", table["Q"].Base)
}

func TestResolveSelection(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "ara", `{"Q": ["ض"]}`)

	r := newRegistry(t)
	require.NoError(t, r.LoadDir(dir))

	// Exact match.
	assert.Equal(t, "ara", r.ResolveSelection("ara"))
	// Language-family fallback onto the built-in base.
	assert.Equal(t, "us", r.ResolveSelection("en_GB"))
	assert.Equal(t, "us", r.ResolveSelection("us"))
	// Unknown code degrades to the first loaded table.
	assert.Equal(t, "ara", r.ResolveSelection("de"))

	// With nothing loaded at all, the hardcoded base is the answer.
	empty := newRegistry(t)
	assert.Equal(t, "us", empty.ResolveSelection("de"))
}
