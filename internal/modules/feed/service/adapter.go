package service

import (
	"context"
	"net/url"
	"regexp"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/config"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/oops"
)

// Adapter yields candidates from one upstream source, newest first
type Adapter interface {
	Kind() domain.SourceKind
	URL() string
	FetchCandidates(ctx context.Context) ([]domain.Candidate, error)
}

// Hydrator fills in the body of a candidate discovered without one
type Hydrator interface {
	Hydrate(ctx context.Context, candidate domain.Candidate) (domain.Candidate, error)
}

// NewAdapters builds one adapter per configured source, keeping their order
func NewAdapters(cfg *config.Config, fetcher *Fetcher) ([]Adapter, error) {
	hydrator := NewPageHydrator(fetcher, cfg.ContentSelectors)

	var linkPatterns []*regexp.Regexp
	for _, pattern := range []string{cfg.UpdatePattern, cfg.NewsPattern} {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, oops.Code(errors.CodeConfig).With("pattern", pattern).Wrap(err)
		}
		linkPatterns = append(linkPatterns, re)
	}

	adapters := make([]Adapter, 0, len(cfg.FeedSources))
	for _, source := range cfg.FeedSources {
		switch source.Kind {
		case domain.SourceKindHtml:
			adapters = append(adapters, NewHTMLListingAdapter(source.URL, fetcher, hydrator, linkPatterns...))
		case domain.SourceKindRss:
			adapters = append(adapters, NewRSSAdapter(source.URL, fetcher, hydrator))
		case domain.SourceKindJson:
			adapters = append(adapters, NewJSONAPIAdapter(source.URL, cfg.Language, fetcher))
		default:
			return nil, oops.Code(errors.CodeConfig).With("kind", source.Kind).Wrap(errors.ErrInvalidFeedSource)
		}
	}

	return adapters, nil
}

func resolveLink(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !ref.IsAbs() || ref.Host == "" {
		return "", false
	}
	ref.Fragment = ""
	return ref.String(), true
}

func withoutQuery(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
