package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSearchConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultSearchConfig()
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Zero(t, cfg.MaxDepth)
	assert.Contains(t, cfg.Languages, "en")
	assert.Contains(t, cfg.Languages, "ru")
}

func TestLoadLanguages(t *testing.T) {
	t.Parallel()

	t.Run("replaces the table", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "languages.yml")
		require.NoError(t, os.WriteFile(path, []byte("en: https://en.wikipedia.org/w/api.php\nsv: https://sv.wikipedia.org/w/api.php\n"), 0o644))

		cfg := DefaultSearchConfig()
		require.NoError(t, cfg.LoadLanguages(path))

		assert.Len(t, cfg.Languages, 2)
		assert.Equal(t, "https://sv.wikipedia.org/w/api.php", cfg.Languages["sv"])
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "languages.yml")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		cfg := DefaultSearchConfig()
		assert.Error(t, cfg.LoadLanguages(path))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultSearchConfig()
		assert.Error(t, cfg.LoadLanguages("/does/not/exist.yml"))
	})
}
