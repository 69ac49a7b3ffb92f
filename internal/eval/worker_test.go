package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rocket/internal/page"
)

// evaluateSource parses and evaluates a full markup string the way the
// build phase does.
func evaluateSource(t *testing.T, w *Worker, src string) string {
	t.Helper()
	root, err := w.Parser.ParseString(0, src)
	require.NoError(t, err)
	return w.Evaluate(&root)
}

func TestEvaluateTextPassesThrough(t *testing.T) {
	w := testWorker(t)
	assert.Equal(t, "plain text\n", evaluateSource(t, w, "plain text\n"))
}

func TestEvaluateDirectiveInvocation(t *testing.T) {
	w := testWorker(t)
	out := evaluateSource(t, w, "(:h1 Rocket:)")
	assert.Equal(t, `<section><h1 id="rocket">Rocket</h1>`, out)
	assert.Equal(t, "</section>", w.CloseSections())
}

func TestEvaluateLocalBindingShadowsPrelude(t *testing.T) {
	w := testWorker(t)
	out := evaluateSource(t, w, `(:define version 9.9:)(:concat (:version:):)`)
	assert.Equal(t, "9.9", out)
}

func TestEvaluateVariableWithArgumentsIsEmpty(t *testing.T) {
	w := testWorker(t)
	out := evaluateSource(t, w, "(:define x val:)a(:x arg:)b")
	assert.Equal(t, "ab", out)
	assert.NoError(t, w.PageErr())
}

func TestEvaluateUnknownDirectiveIsEmpty(t *testing.T) {
	w := testWorker(t)
	out := evaluateSource(t, w, "a(:no-such-directive x:)b")
	assert.Equal(t, "ab", out)
	assert.NoError(t, w.PageErr())
}

func TestEvaluateHeadingJumpFailsPage(t *testing.T) {
	w := testWorker(t)
	evaluateSource(t, w, "(:h3 Deep:)")
	assert.Error(t, w.PageErr())
}

func TestEvaluateRocketBody(t *testing.T) {
	w := testWorker(t)
	out := evaluateSource(t, w, "(:strong =>\n    bold words\nafter\n")
	assert.Equal(t, "<strong>bold words\n</strong>after\n", out)
}

func TestReset(t *testing.T) {
	w := testWorker(t)
	evaluateSource(t, w, "(:h1 One:)(:define x y:)(:theme-config k v:)")
	require.NotEmpty(t, w.ThemeConfig)
	require.NotEmpty(t, w.ctx)

	w.Reset()
	assert.Empty(t, w.ThemeConfig)
	assert.Empty(t, w.ctx)
	assert.NoError(t, w.PageErr())
	assert.Equal(t, "", w.CloseSections())
}

func TestAddAsset(t *testing.T) {
	w := testWorker(t)
	assert.Equal(t, "_static/logo.png", w.AddAsset("logo.png"))

	w.SetSlug(page.NewSlug("guides/setup"))
	assert.Equal(t, "../../_static/logo.png", w.AddAsset("logo.png"))
}

func TestSubstituteMalformedMarkerIndex(t *testing.T) {
	ev := New(true, "github")
	pg := &page.Page{
		Slug: page.NewSlug("index"),
		Body: "\x00" + ev.markerPrefix + ":7\x00",
	}
	_, err := ev.Substitute(pg)
	assert.Error(t, err)
}

func TestSubstituteLeavesForeignMarkersAlone(t *testing.T) {
	ev := New(true, "github")
	pg := &page.Page{
		Slug: page.NewSlug("index"),
		Body: "\x00not-our-prefix:0\x00",
	}
	out, err := ev.Substitute(pg)
	require.NoError(t, err)
	assert.Equal(t, pg.Body, out)
}
