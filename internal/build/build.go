// Package build provides the canonical build execution pipeline for
// Rocket. All execution paths (CLI, tests) route through Builder.
//
// A build runs in two phases. The build phase parses and evaluates
// every source file in parallel, producing page bodies with opaque
// placeholder markers where cross-references occur. The link phase,
// which starts only after every page has registered its reference
// targets and toctree entries, resolves the markers, renders each page
// through its theme template, and writes the output tree.
package build

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/rocket/internal/config"
	"git.home.luguber.info/inful/rocket/internal/eval"
	"git.home.luguber.info/inful/rocket/internal/markdown"
	"git.home.luguber.info/inful/rocket/internal/page"
	"git.home.luguber.info/inful/rocket/internal/rocketerr"
	"git.home.luguber.info/inful/rocket/internal/theme"
)

// sourceExtension marks files in the content directory that are Rocket
// markup. Everything else in the content tree is ignored.
const sourceExtension = ".rocket"

// Builder orchestrates a full project build.
type Builder struct {
	cfg   *config.Config
	theme *theme.Theme
	ev    *eval.Evaluator
}

// New prepares a builder: loads the theme and sets up the shared
// evaluator with the standard directive prelude.
func New(cfg *config.Config) (*Builder, error) {
	th, err := theme.Load(cfg.Theme)
	if err != nil {
		return nil, err
	}

	ev := eval.New(cfg.Pretty(), cfg.SyntaxTheme)
	projectVersion := ""
	if v, ok := cfg.Constants["version"].(string); ok {
		projectVersion = v
	}
	eval.RegisterStandard(ev, projectVersion)

	return &Builder{cfg: cfg, theme: th, ev: ev}, nil
}

// Run executes the full pipeline. It returns an error if any page
// failed; successfully built pages are still written.
func (b *Builder) Run(ctx context.Context) error {
	start := time.Now()

	sources, err := b.collectSources()
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return rocketerr.Newf(rocketerr.CategoryConfig, "no %s files under %s", sourceExtension, b.cfg.ContentDir)
	}

	pages, titles, failed := b.buildPhase(ctx, sources)
	b.ev.Toc.Finish(titles)
	failed += b.linkPhase(ctx, pages)

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return rocketerr.Newf(rocketerr.CategoryEvaluate, "%d of %d pages failed", failed, len(sources))
	}

	slog.Info("Build finished",
		"pages", len(pages),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// collectSources walks the content directory and returns every markup
// source in deterministic order.
func (b *Builder) collectSources() ([]string, error) {
	var sources []string
	err := filepath.WalkDir(b.cfg.ContentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, sourceExtension) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, rocketerr.Wrap(err, rocketerr.CategoryIO, "content directory not walkable")
	}
	sort.Strings(sources)
	return sources, nil
}

// buildPhase evaluates each source file. Files are split into
// contiguous chunks, one goroutine per chunk, each with a private
// worker so no evaluation state is shared.
func (b *Builder) buildPhase(ctx context.Context, sources []string) ([]*page.Page, map[string]string, int) {
	var (
		mu     sync.Mutex
		pages  []*page.Page
		titles = make(map[string]string)
		failed int
	)

	workers := runtime.NumCPU()
	if workers > len(sources) {
		workers = len(sources)
	}
	chunkSize := (len(sources) + workers - 1) / workers

	var wg sync.WaitGroup
	for chunk := 0; chunk < len(sources); chunk += chunkSize {
		end := chunk + chunkSize
		if end > len(sources) {
			end = len(sources)
		}

		wg.Add(1)
		go func(files []string) {
			defer wg.Done()
			w := eval.NewWorker(b.ev)
			for _, path := range files {
				if ctx.Err() != nil {
					return
				}
				pg, err := b.buildFile(w, path)
				mu.Lock()
				if err != nil {
					slog.Error("Page build failed", "path", path, "error", err)
					failed++
				} else {
					pages = append(pages, pg)
					titles[pg.Slug.String()] = pg.Title()
				}
				mu.Unlock()
			}
		}(sources[chunk:end])
	}
	wg.Wait()

	return pages, titles, failed
}

// buildFile evaluates a single source file into a page.
func (b *Builder) buildFile(w *eval.Worker, path string) (*page.Page, error) {
	w.Reset()
	slug, err := b.slugFor(path)
	if err != nil {
		return nil, err
	}
	w.SetSlug(slug)

	node, err := w.Parser.Parse(path)
	if err != nil {
		return nil, rocketerr.Wrap(err, rocketerr.CategoryParse, "parse failed")
	}

	body := w.Evaluate(&node)
	if err := w.PageErr(); err != nil {
		return nil, err
	}
	body += w.CloseSections()
	body = markdown.InjectParagraphs(body)

	return &page.Page{
		SourcePath:  path,
		Slug:        slug,
		Body:        body,
		ThemeConfig: w.ThemeConfig,
	}, nil
}

// slugFor derives the page slug from a source path: the path relative
// to the content root, extension stripped, with forward slashes.
func (b *Builder) slugFor(path string) (page.Slug, error) {
	rel, err := filepath.Rel(b.cfg.ContentDir, path)
	if err != nil {
		return page.Slug{}, rocketerr.Wrap(err, rocketerr.CategoryIO, "source outside content directory")
	}
	rel = strings.TrimSuffix(rel, sourceExtension)
	return page.NewSlug(filepath.ToSlash(rel)), nil
}

// linkPhase resolves placeholders, renders templates, and writes output
// files using a small worker pool fed from a channel. Returns the
// number of pages that failed.
func (b *Builder) linkPhase(ctx context.Context, pages []*page.Page) int {
	renderer := theme.NewRenderer(b.theme, b.ev.Toc, b.cfg.Constants)

	var (
		mu     sync.Mutex
		failed int
	)

	jobs := make(chan *page.Page)
	var wg sync.WaitGroup
	workers := runtime.NumCPU()
	if workers > len(pages) {
		workers = len(pages)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pg := range jobs {
				if err := b.linkFile(renderer, pg); err != nil {
					slog.Error("Page link failed", "slug", pg.Slug.String(), "error", err)
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}

	for _, pg := range pages {
		if ctx.Err() != nil {
			break
		}
		jobs <- pg
	}
	close(jobs)
	wg.Wait()

	return failed
}

// linkFile finishes one page: substitutes pending references, renders
// the theme template, and writes the result.
func (b *Builder) linkFile(renderer *theme.Renderer, pg *page.Page) error {
	slog.Debug("Linking", "slug", pg.Slug.String())

	body, err := b.ev.Substitute(pg)
	if err != nil {
		return err
	}

	rel, relErr := filepath.Rel(b.cfg.ContentDir, pg.SourcePath)
	if relErr != nil {
		rel = pg.SourcePath
	}
	templateName := b.cfg.TemplateFor(rel)
	rendered, err := renderer.Render(templateName, pg, body)
	if err != nil {
		return err
	}

	outPath := pg.Slug.OutputPath(b.cfg.Output, b.cfg.Pretty())
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return rocketerr.Wrap(err, rocketerr.CategoryIO, "output directory not creatable")
	}
	if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
		return rocketerr.Wrap(err, rocketerr.CategoryIO, fmt.Sprintf("writing %s", outPath))
	}
	return nil
}
