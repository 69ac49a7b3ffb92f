package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rocket/internal/config"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "myproject")
	require.NoError(t, Init(name))

	for _, rel := range []string{
		"config.toml",
		"theme/theme.toml",
		"theme/default.html",
		"content/index.rocket",
		".gitignore",
	} {
		assert.FileExists(t, filepath.Join(name, rel))
	}
}

func TestInitConfigIsLoadable(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "myproject")
	require.NoError(t, Init(name))

	cfg, err := config.Load(filepath.Join(name, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "content", cfg.ContentDir)
	assert.Equal(t, "Rocket Documentation", cfg.Constants["title"])
}

func TestInitRefusesExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(name, 0o755))

	assert.Error(t, Init(name))
}
