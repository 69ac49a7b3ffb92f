// Package theme loads a theme definition and renders pages through its
// handlebars templates.
package theme

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aymerick/raymond"
	toml "github.com/pelletier/go-toml/v2"

	"git.home.luguber.info/inful/rocket/internal/rocketerr"
)

type rawConfig struct {
	Templates map[string]string `toml:"templates"`
	Constants map[string]any    `toml:"constants"`
}

// Theme is a parsed theme: a set of named templates plus theme-level
// constants exposed to every render.
type Theme struct {
	Constants map[string]any

	templates map[string]*raymond.Template
}

// Load reads a theme.toml and parses every template it names, resolved
// relative to the theme file's directory.
func Load(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rocketerr.Wrap(err, rocketerr.CategoryTheme, fmt.Sprintf("theme file %s not readable", path))
	}

	raw := rawConfig{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, rocketerr.Wrap(err, rocketerr.CategoryTheme, fmt.Sprintf("theme file %s not parseable", path))
	}

	themeDir := filepath.Dir(path)
	templates := make(map[string]*raymond.Template, len(raw.Templates))
	for name, templatePath := range raw.Templates {
		source, err := os.ReadFile(filepath.Join(themeDir, templatePath))
		if err != nil {
			return nil, rocketerr.Wrap(err, rocketerr.CategoryTheme, fmt.Sprintf("template %q not readable", name))
		}
		tpl, err := raymond.Parse(string(source))
		if err != nil {
			return nil, rocketerr.Wrap(err, rocketerr.CategoryTheme, fmt.Sprintf("template %q not parseable", name))
		}
		templates[name] = tpl
	}

	constants := raw.Constants
	if constants == nil {
		constants = make(map[string]any)
	}
	return &Theme{Constants: constants, templates: templates}, nil
}
