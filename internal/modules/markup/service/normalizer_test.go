package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadingRule(t *testing.T) {
	assert.Equal(t, "\n[ FOO BAR ]\n", HeadingRule.Apply("<h2>Foo Bar</h2>"))
	assert.Equal(t, "\n[ NEW MAPS ]\n", HeadingRule.Apply(`<h3 class="x"><b>New</b> maps</h3>`))
}

func TestNormalizeHeading(t *testing.T) {
	n := New()

	assert.Equal(t, "[ FOO BAR ]", n.Normalize("<h2>Foo Bar</h2>"))
	assert.Equal(t, "[ GAMEPLAY ]\n\nFaster reloads.", n.Normalize("<h2>Gameplay</h2><p>Faster reloads.</p>"))
}

func TestNormalizeList(t *testing.T) {
	got := New().Normalize("<li>one</li><li>two</li>")

	lines := strings.Split(got, "\n")
	assert.Equal(t, []string{"• one", "• two"}, lines)
}

func TestNormalizeNestedList(t *testing.T) {
	got := New().Normalize("<p>Changes:</p>\n<ul>\n  <li>Fixed <b>crash</b></li>\n  <li>Added map</li>\n</ul>")
	assert.Equal(t, "Changes:\n\n• Fixed **crash**\n• Added map", got)
}

func TestNormalizePlainTextRoundTrip(t *testing.T) {
	n := New()
	cases := []string{
		"Fixed a crash when joining a server.",
		"Patch notes\n\nImproved stability.\nReduced memory usage.",
		"Damage 5 < 10 and Tom & Jerry",
		"[MAPS] Dust was updated",
	}

	for _, input := range cases {
		assert.Equal(t, input, n.Normalize(input))
	}
}

func TestNormalizePseudoHeading(t *testing.T) {
	got := New().Normalize(`<div class="bb_h2">Release notes</div><p>Hello</p>`)
	assert.Equal(t, "[ RELEASE NOTES ]\n\nHello", got)
}

func TestNormalizePseudoHeadingWithNestedMarkup(t *testing.T) {
	got := New().Normalize(`<div class="bb_h2"><span>New</span> maps</div><p>x</p>`)
	assert.Equal(t, "[ NEW MAPS ]\n\nx", got)
}

func TestNormalizeEmphasisAndLinks(t *testing.T) {
	got := New().Normalize(`<p><strong>Bold</strong>, <em>italic</em> and <u>under</u>. See <a href="https://example.com">the post</a>.<b> </b></p>`)
	assert.Equal(t, "**Bold**, *italic* and __under__. See the post.", got)
}

func TestNormalizeStripsMediaAndScripts(t *testing.T) {
	got := New().Normalize(`<p>Text<script>alert("x")</script><img src="a.png"><iframe src="v"></iframe><span>kept</span></p><style>p{}</style>`)
	assert.Equal(t, "Textkept", got)
}

func TestNormalizeDecodesEntitiesBeforeTags(t *testing.T) {
	got := New().Normalize("&lt;b&gt;Important&lt;/b&gt; &amp; fixed &#8212; done")
	assert.Equal(t, "**Important** & fixed — done", got)
}

func TestNormalizeCollapsesBlankLines(t *testing.T) {
	got := New().Normalize("one\n\n\n\n\ntwo\n   \n\n\nthree")
	assert.Equal(t, "one\n\ntwo\n\nthree", got)
	assert.NotContains(t, got, "\n\n\n")
}

func TestNormalizeBBCode(t *testing.T) {
	input := "[h2]Balance[/h2]\n[list]\n[*]AK-47 [b]damage[/b] reduced\n[*]See [url=https://example.com]forum[/url]\n[/list]\n[img]{STEAM_CLAN_IMAGE}/a.png[/img]\n[MAPS] Dust"

	got := New().Normalize(input)
	assert.Equal(t, "[ BALANCE ]\n\n• AK-47 **damage** reduced\n• See forum\n[MAPS] Dust", got)
}

func TestNormalizeKeepsUnpairedBBCode(t *testing.T) {
	n := New()

	assert.Equal(t, "Press [b] to open the buy menu.", n.Normalize("Press [b] to open the buy menu."))
	assert.Equal(t, "Hold [u] and **jump**", n.Normalize("Hold [u] and [b]jump[/b]"))
	assert.Equal(t, "Closed [/i] only", n.Normalize("Closed [/i] only"))
}

func TestVisibleText(t *testing.T) {
	got := VisibleText(`<p>Tournament results are in.</p><img src="https://cdn.example.com/update_banner.png"><a href="https://example.com/update">read</a>`)
	assert.Equal(t, "Tournament results are in.read", got)

	got = VisibleText("[p]Spotlight[/p][img]{STEAM_CLAN_IMAGE}/update.png[/img]")
	assert.Equal(t, "Spotlight", got)
}

func TestNormalizeMalformedMarkup(t *testing.T) {
	assert.NotPanics(t, func() {
		got := New().Normalize("<p><b>unclosed <i>tags<div></p>")
		assert.NotContains(t, got, "<")
	})
	assert.Equal(t, "", New().Normalize(""))
}

func TestCustomRuleOrder(t *testing.T) {
	n := NewWithRules(LineBreakRule, WhitespaceRule)
	assert.Equal(t, "a\nb", n.Normalize("a<br>b"))
}

func TestUsable(t *testing.T) {
	assert.False(t, Usable("", 0))
	assert.False(t, Usable("short", 15))
	assert.True(t, Usable("Fixed a bug in the launcher", 15))
	assert.True(t, Usable("ääääääääääääääää", 15))
}
