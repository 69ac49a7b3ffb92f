// Package scaffold creates empty Rocket projects.
package scaffold

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const configTOML = `theme = "theme/theme.toml"
content_dir = "content"
output = "build"

[constants]
title = "Rocket Documentation"

[templates]
"**" = "default"
`

const themeTOML = `[templates]
default = "default.html"
`

const themeHTML = `<!doctype html>
<html>
<head>
<title>{{project.title}}{{#if page.title}} - {{striptags page.title}}{{/if}}</title>
<meta charset="utf-8">
</head>
<body>
<nav class="root-toc">
{{toctree "index"}}
</nav>
<div class="body">
{{{body}}}
</div>
</body>
</html>
`

const indexRocket = `(:h1 Welcome:)

Start writing your documentation here.
`

const gitignore = "build/\n"

// Init creates a new project skeleton in a directory named after the
// project. The directory must not already exist.
func Init(name string) error {
	slog.Debug("Creating project", "name", name)

	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("directory %q already exists", name)
	}

	dirs := []string{
		name,
		filepath.Join(name, "content"),
		filepath.Join(name, "theme"),
	}
	for _, dir := range dirs {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	files := map[string]string{
		filepath.Join(name, "config.toml"):             configTOML,
		filepath.Join(name, "theme", "theme.toml"):     themeTOML,
		filepath.Join(name, "theme", "default.html"):   themeHTML,
		filepath.Join(name, "content", "index.rocket"): indexRocket,
		filepath.Join(name, ".gitignore"):              gitignore,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	return nil
}
