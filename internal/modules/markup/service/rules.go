package service

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

// Rule is one pure rewrite step of the normalizer
type Rule struct {
	Name  string
	Apply func(string) string
}

var strictPolicy = bluemonday.StrictPolicy()

var (
	htmlTagPattern  = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^>]*)?/?>`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	breakTag        = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockTag        = regexp.MustCompile(`(?i)</?(?:p|div)(\s[^>]*)?>`)
	listItemOpen    = regexp.MustCompile(`(?i)<li(\s[^>]*)?>`)
	listItemClose   = regexp.MustCompile(`(?i)</li\s*>`)
	listContainer   = regexp.MustCompile(`(?i)</?(?:ul|ol)(\s[^>]*)?>`)
	headingTag      = regexp.MustCompile(`(?is)<h([1-6])(\s[^>]*)?>(.*?)</h[1-6]\s*>`)
	anyTag          = regexp.MustCompile(`<[^>]*>`)
	boldTag         = regexp.MustCompile(`(?is)<(?:b|strong)(\s[^>]*)?>(.*?)</(?:b|strong)\s*>`)
	italicTag       = regexp.MustCompile(`(?is)<(?:i|em)(\s[^>]*)?>(.*?)</(?:i|em)\s*>`)
	underlineTag    = regexp.MustCompile(`(?is)<u(\s[^>]*)?>(.*?)</u\s*>`)
	anchorTag       = regexp.MustCompile(`(?is)<a(\s[^>]*)?>(.*?)</a\s*>`)
	mediaBlock      = regexp.MustCompile(`(?is)<(script|style|iframe|video|audio|object|noscript)(\s[^>]*)?>.*?</(?:script|style|iframe|video|audio|object|noscript)\s*>`)
	imageTag        = regexp.MustCompile(`(?i)<img[^>]*>`)
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
	bbcodeMedia     = regexp.MustCompile(`(?is)\[(img|previewyoutube|video)(=[^\]]*)?\].*?\[/(?:img|previewyoutube|video)\]`)
	bbcodeListGlue  = regexp.MustCompile(`(?i)\s*(\[\*\]|\[/?o?list\])\s*`)
	bbcodeTag       = regexp.MustCompile(`(?i)\[(/?)(b|i|u|s|strike|h[1-6]|list|olist|\*|url|p|quote|code|spoiler|noparse|hr|table|tr|td|th)(=[^\]]*)?\]`)
	bbcodeLineBreak = regexp.MustCompile(`\r?\n`)
)

// Go regexp has no backreferences, so each block tag gets its own pattern and
// a heading ends at the closing tag of the same kind.
var pseudoHeadings = []*regexp.Regexp{
	pseudoHeadingFor("div"),
	pseudoHeadingFor("span"),
	pseudoHeadingFor("p"),
}

func pseudoHeadingFor(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<` + tag + `\s[^>]*class\s*=\s*["']?[^"'>]*\bbb_h([1-6])\b[^>]*>(.*?)</` + tag + `\s*>`)
}

// DefaultRules returns the rewrite rules in the order they must run
func DefaultRules() []Rule {
	return []Rule{
		BBCodeRule,
		EntitiesRule,
		PseudoHeadingRule,
		LineBreakRule,
		HeadingRule,
		EmphasisRule,
		LinkRule,
		StripRule,
		WhitespaceRule,
	}
}

// BBCodeRule rewrites known BBCode tags into HTML. Only tags with a matching
// partner are rewritten: bracketed text that is not a known tag, or a lone
// tag such as "press [b]", is kept as is.
var BBCodeRule = Rule{
	Name: "bbcode",
	Apply: func(s string) string {
		if !bbcodeMedia.MatchString(s) && !lo.Contains(pairBBCode(s, bbcodeTag.FindAllStringSubmatchIndex(s, -1)), true) {
			return s
		}

		s = bbcodeMedia.ReplaceAllString(s, "")
		s = bbcodeListGlue.ReplaceAllString(s, "$1")
		s = bbcodeLineBreak.ReplaceAllString(s, "<br>")

		matches := bbcodeTag.FindAllStringSubmatchIndex(s, -1)
		paired := pairBBCode(s, matches)

		var sb strings.Builder
		last := 0
		for i, m := range matches {
			sb.WriteString(s[last:m[0]])
			last = m[1]
			if !paired[i] {
				sb.WriteString(s[m[0]:m[1]])
				continue
			}
			arg := ""
			if m[6] >= 0 {
				arg = strings.TrimPrefix(s[m[6]:m[7]], "=")
			}
			sb.WriteString(bbcodeToHTML(strings.ToLower(s[m[4]:m[5]]), arg, m[3] > m[2]))
		}
		sb.WriteString(s[last:])
		return sb.String()
	},
}

// pairBBCode reports which tag matches close or are closed by a tag of the
// same name. List items and rules stand alone and always pair.
func pairBBCode(s string, matches [][]int) []bool {
	paired := make([]bool, len(matches))
	open := map[string][]int{}
	for i, m := range matches {
		closing, name := m[3] > m[2], strings.ToLower(s[m[4]:m[5]])
		switch {
		case name == "*" || name == "hr":
			paired[i] = true
		case !closing:
			open[name] = append(open[name], i)
		case len(open[name]) > 0:
			stack := open[name]
			paired[stack[len(stack)-1]] = true
			paired[i] = true
			open[name] = stack[:len(stack)-1]
		}
	}
	return paired
}

func bbcodeToHTML(name, arg string, closing bool) string {
	slash := ""
	if closing {
		slash = "/"
	}

	switch name {
	case "b", "i", "u", "p":
		return "<" + slash + name + ">"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "<" + slash + name + ">"
	case "list":
		return "<" + slash + "ul>"
	case "olist":
		return "<" + slash + "ol>"
	case "*":
		if closing {
			return ""
		}
		return "<li>"
	case "url":
		if closing {
			return "</a>"
		}
		return `<a href="` + html.EscapeString(strings.Trim(arg, `"'`)) + `">`
	case "quote", "code", "table", "tr":
		return "<" + slash + "div>"
	case "hr":
		return "<br>"
	case "td", "th":
		if closing {
			return " "
		}
		return ""
	default:
		// s, strike, spoiler, noparse keep their text only
		return ""
	}
}

// EntitiesRule decodes character entities. Raw whitespace inside HTML is
// insignificant, so it collapses to single spaces once markup is detected.
var EntitiesRule = Rule{
	Name: "entities",
	Apply: func(s string) string {
		s = html.UnescapeString(s)
		s = strings.ReplaceAll(s, "\u00a0", " ")
		if htmlTagPattern.MatchString(s) {
			s = whitespaceRun.ReplaceAllString(s, " ")
		}
		return s
	},
}

// PseudoHeadingRule turns Steam's bb_hN styled blocks into real headings
var PseudoHeadingRule = Rule{
	Name: "pseudo-heading",
	Apply: func(s string) string {
		for _, pattern := range pseudoHeadings {
			s = pattern.ReplaceAllString(s, "<h${1}>${2}</h${1}>")
		}
		return s
	},
}

var LineBreakRule = Rule{
	Name: "line-breaks",
	Apply: func(s string) string {
		s = breakTag.ReplaceAllString(s, "\n")
		s = blockTag.ReplaceAllString(s, "\n")
		s = listItemOpen.ReplaceAllString(s, "\n• ")
		s = listItemClose.ReplaceAllString(s, "")
		return listContainer.ReplaceAllString(s, "\n")
	},
}

// HeadingRule renders headings as bracketed upper-case lines
var HeadingRule = Rule{
	Name: "headings",
	Apply: func(s string) string {
		return headingTag.ReplaceAllStringFunc(s, func(match string) string {
			inner := headingTag.FindStringSubmatch(match)[3]
			text := strings.TrimSpace(whitespaceRun.ReplaceAllString(anyTag.ReplaceAllString(inner, ""), " "))
			if text == "" {
				return "\n"
			}
			return "\n[ " + strings.ToUpper(text) + " ]\n"
		})
	},
}

var EmphasisRule = Rule{
	Name: "emphasis",
	Apply: func(s string) string {
		s = wrapEmphasis(boldTag, s, "**")
		s = wrapEmphasis(italicTag, s, "*")
		return wrapEmphasis(underlineTag, s, "__")
	},
}

func wrapEmphasis(pattern *regexp.Regexp, s, marker string) string {
	return pattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := pattern.FindStringSubmatch(match)[2]
		text := strings.TrimSpace(inner)
		if text == "" {
			return inner
		}
		lead := inner[:len(inner)-len(strings.TrimLeft(inner, " \t\n"))]
		trail := inner[len(strings.TrimRight(inner, " \t\n")):]
		return lead + marker + text + marker + trail
	})
}

// LinkRule keeps only the visible text of hyperlinks
var LinkRule = Rule{
	Name: "links",
	Apply: func(s string) string {
		return anchorTag.ReplaceAllString(s, "${2}")
	},
}

// StripRule removes media and script blocks with their content, then any
// markup left over.
var StripRule = Rule{
	Name: "strip",
	Apply: func(s string) string {
		s = mediaBlock.ReplaceAllString(s, "")
		s = imageTag.ReplaceAllString(s, "")
		if !strings.ContainsAny(s, "<>&") {
			return s
		}
		return html.UnescapeString(strictPolicy.Sanitize(s))
	},
}

// VisibleText reduces markup to the text a reader would see, without
// attribute values, media sources or link targets
func VisibleText(raw string) string {
	return visibleText.Normalize(raw)
}

var visibleText = NewWithRules(BBCodeRule, EntitiesRule, LinkRule, StripRule, WhitespaceRule)

var WhitespaceRule = Rule{
	Name: "whitespace",
	Apply: func(s string) string {
		lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		for i, line := range lines {
			lines[i] = strings.Trim(line, " \t\r")
		}
		s = excessNewlines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
		return strings.TrimSpace(s)
	},
}
