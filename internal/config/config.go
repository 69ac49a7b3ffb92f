// Package config loads the project configuration file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"git.home.luguber.info/inful/rocket/internal/highlight"
	"git.home.luguber.info/inful/rocket/internal/rocketerr"
)

// Config is the parsed project configuration.
type Config struct {
	Theme       string            `toml:"theme"`
	ContentDir  string            `toml:"content_dir"`
	Output      string            `toml:"output"`
	SyntaxTheme string            `toml:"syntax_theme"`
	PrettyURL   *bool             `toml:"pretty_url"`
	Templates   map[string]string `toml:"templates"`
	Constants   map[string]any    `toml:"constants"`

	// templateRules is Templates flattened into a deterministic order:
	// longest (most specific) pattern first.
	templateRules []templateRule
}

type templateRule struct {
	pattern string
	name    string
}

// Load reads and validates the configuration at path. A .env file in
// the working directory is loaded first so constants and paths may be
// expanded from the environment by the shell invoking the build.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rocketerr.Wrap(err, rocketerr.CategoryConfig, fmt.Sprintf("configuration file %s not readable", path))
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, rocketerr.Wrap(err, rocketerr.CategoryConfig, fmt.Sprintf("configuration file %s not parseable", path))
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.Output == "" {
		c.Output = "build"
	}
	if c.SyntaxTheme == "" {
		c.SyntaxTheme = highlight.DefaultSyntaxTheme
	}
	if c.Constants == nil {
		c.Constants = make(map[string]any)
	}
}

func (c *Config) validate() error {
	if c.Theme == "" {
		return rocketerr.New(rocketerr.CategoryConfig, "no theme configured")
	}

	for pattern, name := range c.Templates {
		if !doublestar.ValidatePattern(pattern) {
			return rocketerr.Newf(rocketerr.CategoryConfig, "invalid template pattern %q", pattern)
		}
		c.templateRules = append(c.templateRules, templateRule{pattern: pattern, name: name})
	}
	sort.Slice(c.templateRules, func(i, j int) bool {
		a, b := c.templateRules[i], c.templateRules[j]
		if len(a.pattern) != len(b.pattern) {
			return len(a.pattern) > len(b.pattern)
		}
		return a.pattern < b.pattern
	})
	return nil
}

// Pretty reports whether pretty "directory/index.html" URLs are in
// effect. They are the default.
func (c *Config) Pretty() bool {
	return c.PrettyURL == nil || *c.PrettyURL
}

// TemplateFor selects the template name for a source path, falling back
// to "default". Patterns are tried most specific first so the mapping is
// deterministic regardless of map iteration order.
func (c *Config) TemplateFor(sourcePath string) string {
	candidate := filepath.ToSlash(sourcePath)
	for _, rule := range c.templateRules {
		if ok, _ := doublestar.Match(rule.pattern, candidate); ok {
			return rule.name
		}
	}
	return "default"
}
