package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rocket/internal/config"
)

const testTemplate = `<title>{{striptags page.title}}</title>
<nav>{{toctree "index"}}</nav>
<main>{{{body}}}</main>`

// writeProject lays out a complete project in a temp dir and returns the
// loaded configuration. Paths in the config are absolute so the test
// does not depend on the working directory.
func writeProject(t *testing.T, pages map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	themeDir := filepath.Join(dir, "theme")
	require.NoError(t, os.MkdirAll(themeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(themeDir, "theme.toml"),
		[]byte("[templates]\ndefault = \"default.html\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(themeDir, "default.html"),
		[]byte(testTemplate), 0o644))

	contentDir := filepath.Join(dir, "content")
	for rel, body := range pages {
		path := filepath.Join(contentDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`theme = %q
content_dir = %q
output = %q

[constants]
title = "Test Project"
version = "1.2.3"

[templates]
"**" = "default"
`, filepath.Join(themeDir, "theme.toml"), contentDir, filepath.Join(dir, "build"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	return cfg
}

func readOutput(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Output, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestBuildEndToEnd(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		"index.rocket": `(:h1 home "Home":)
(:toctree "guides/setup":)
Welcome to the project, version (:version:).
`,
		"guides/setup.rocket": `(:h1 setup "Setup Guide":)
Back to (:ref home:).
`,
	})

	b, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Run(context.Background()))

	index := readOutput(t, cfg, "index.html")
	assert.Contains(t, index, "<title>Home</title>")
	assert.Contains(t, index, `<h1 id="home">Home</h1>`)
	assert.Contains(t, index, "version 1.2.3")

	setup := readOutput(t, cfg, "guides/setup/index.html")
	assert.Contains(t, setup, "<title>Setup Guide</title>")
	// Cross-page reference resolved to a relative link with the target's
	// title as link text.
	assert.Contains(t, setup, `<a href="../../index">Home</a>`)
}

func TestBuildTocTreeTitles(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		"index.rocket":        "(:h1 home \"Home\":)\n(:toctree \"guides/setup\":)\n",
		"guides/setup.rocket": "(:h1 setup \"Setup Guide\":)\n",
	})

	b, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Run(context.Background()))

	index := readOutput(t, cfg, "index.html")
	// The entry title was extracted from the child page's heading.
	assert.Contains(t, index, ">Setup Guide</a>")

	setup := readOutput(t, cfg, "guides/setup/index.html")
	assert.Contains(t, setup, `class="reference internal current"`)
}

func TestBuildUndefinedReferenceFails(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		"index.rocket": "(:h1 home \"Home\":)\nSee (:ref missing-target:).\n",
		"other.rocket": "(:h1 other \"Other\":)\n",
	})

	b, err := New(cfg)
	require.NoError(t, err)
	err = b.Run(context.Background())
	require.Error(t, err)

	// The healthy page is still written.
	assert.FileExists(t, filepath.Join(cfg.Output, "other", "index.html"))
	assert.NoFileExists(t, filepath.Join(cfg.Output, "index.html"))
}

func TestBuildHeadingJumpFailsPage(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		"index.rocket": "(:h1 home \"Home\":)\n",
		"bad.rocket":   "(:h3 \"Too Deep\":)\n",
	})

	b, err := New(cfg)
	require.NoError(t, err)
	err = b.Run(context.Background())
	require.Error(t, err)

	assert.FileExists(t, filepath.Join(cfg.Output, "index.html"))
	assert.NoFileExists(t, filepath.Join(cfg.Output, "bad", "index.html"))
}

func TestBuildParseErrorFailsPage(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		"index.rocket": "(:h1 home \"Home\":)\n",
		"bad.rocket":   "(:concat unterminated\n",
	})

	b, err := New(cfg)
	require.NoError(t, err)
	require.Error(t, b.Run(context.Background()))
	assert.FileExists(t, filepath.Join(cfg.Output, "index.html"))
}

func TestBuildEmptyContentDir(t *testing.T) {
	cfg := writeProject(t, map[string]string{})
	require.NoError(t, os.MkdirAll(cfg.ContentDir, 0o755))

	b, err := New(cfg)
	require.NoError(t, err)
	assert.Error(t, b.Run(context.Background()))
}

func TestBuildIsDeterministic(t *testing.T) {
	pages := map[string]string{
		"index.rocket":        "(:h1 home \"Home\":)\n(:toctree \"a\" \"b\":)\n",
		"a.rocket":            "(:h1 a-page \"A\":)\n(:ref b-page:)\n",
		"b.rocket":            "(:h1 b-page \"B\":)\n(:ref a-page:)\n",
		"guides/setup.rocket": "(:h1 setup \"Setup\":)\n",
	}

	cfg1 := writeProject(t, pages)
	b1, err := New(cfg1)
	require.NoError(t, err)
	require.NoError(t, b1.Run(context.Background()))

	cfg2 := writeProject(t, pages)
	b2, err := New(cfg2)
	require.NoError(t, err)
	require.NoError(t, b2.Run(context.Background()))

	for _, rel := range []string{"index.html", "a/index.html", "b/index.html"} {
		assert.Equal(t, readOutput(t, cfg1, rel), readOutput(t, cfg2, rel), rel)
	}
}
