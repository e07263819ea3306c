package service

import (
	"net/url"
	"strings"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
)

// Identifier derives the dedup identity of a candidate
type Identifier struct {
	hostAliases map[string]string
}

// NewIdentifier maps each alias host to its canonical host when
// canonicalizing links
func NewIdentifier(hostAliases map[string]string) *Identifier {
	aliases := make(map[string]string, len(hostAliases))
	for alias, canonical := range hostAliases {
		aliases[strings.ToLower(alias)] = strings.ToLower(canonical)
	}
	return &Identifier{hostAliases: aliases}
}

// Identity is the numeric ID of the link's trailing path segment, else the
// canonical link, else the lower-cased title prefixed with "title:"
func (i *Identifier) Identity(c domain.Candidate) string {
	link := strings.TrimSpace(c.Link)
	if link == "" {
		return "title:" + strings.ToLower(strings.TrimSpace(c.Title))
	}

	if id, ok := NumericID(link); ok {
		return id
	}

	if canonical, ok := i.CanonicalURL(link); ok {
		return canonical
	}

	return strings.ToLower(link)
}

// NumericID returns the trailing path segment when it consists only of digits
func NumericID(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}

	path := strings.TrimRight(u.Path, "/")
	segment := path[strings.LastIndex(path, "/")+1:]
	if segment == "" {
		return "", false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return segment, true
}

// CanonicalURL lower-cases the link, forces https, drops www. and the query,
// fragment and trailing slash, and maps tracking hosts to their canonical host
func (i *Identifier) CanonicalURL(link string) (string, bool) {
	u, err := url.Parse(strings.ToLower(strings.TrimSpace(link)))
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	if canonical, ok := i.hostAliases[host]; ok {
		host = canonical
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	return "https://" + host + path, true
}

// StripQuery returns the link without query string and fragment
func StripQuery(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		return link[:i]
	}
	return link
}
