package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestResolveDivisionGlob(t *testing.T) {
	t.Run("sharded subdirectory preferred", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "division", "part-00000.parquet"))
		touch(t, filepath.Join(dir, "division.parquet"))

		glob, err := resolveDivisionGlob(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "division", "*.parquet"), glob)
	})

	t.Run("single file fallback", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "division.parquet"))

		glob, err := resolveDivisionGlob(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "division.parquet"), glob)
	})

	t.Run("numbered files fallback", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "divisions-00001.parquet"))
		touch(t, filepath.Join(dir, "divisions-00002.parquet"))

		glob, err := resolveDivisionGlob(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "divisions-*.parquet"), glob)
	})

	t.Run("empty sharded subdirectory is skipped", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "division"), 0o755))
		touch(t, filepath.Join(dir, "division.parquet"))

		glob, err := resolveDivisionGlob(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "division.parquet"), glob)
	})

	t.Run("no shards found", func(t *testing.T) {
		_, err := resolveDivisionGlob(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no division parquet files")
	})
}

func TestResolveBoundaryGlob(t *testing.T) {
	t.Run("sharded subdirectory", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "division_area", "part-00000.parquet"))

		glob, ok := resolveBoundaryGlob(dir)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "division_area", "*.parquet"), glob)
	})

	t.Run("legacy root files", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "division_area-00001.parquet"))

		glob, ok := resolveBoundaryGlob(dir)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "division_area*.parquet"), glob)
	})

	t.Run("absent boundaries", func(t *testing.T) {
		_, ok := resolveBoundaryGlob(t.TempDir())
		assert.False(t, ok)
	})
}

func TestSubtypeList(t *testing.T) {
	assert.Equal(t, "'locality'", subtypeList([]string{"locality"}))
	assert.Equal(t, "'country', 'dependency'", subtypeList(CountrySubtypes))
}
