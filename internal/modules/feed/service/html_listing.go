package service

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// HTMLListingAdapter scrapes an index page for links to announcements. It
// yields candidates without a body; Hydrate fetches the chosen one.
type HTMLListingAdapter struct {
	*PageHydrator
	fetcher      *Fetcher
	indexURL     string
	linkPatterns []*regexp.Regexp
}

func NewHTMLListingAdapter(indexURL string, fetcher *Fetcher, hydrator *PageHydrator, linkPatterns ...*regexp.Regexp) *HTMLListingAdapter {
	return &HTMLListingAdapter{
		PageHydrator: hydrator,
		fetcher:      fetcher,
		indexURL:     indexURL,
		linkPatterns: linkPatterns,
	}
}

func (a *HTMLListingAdapter) Kind() domain.SourceKind {
	return domain.SourceKindHtml
}

func (a *HTMLListingAdapter) URL() string {
	return a.indexURL
}

func (a *HTMLListingAdapter) FetchCandidates(ctx context.Context) ([]domain.Candidate, error) {
	page, err := a.fetcher.Fetch(ctx, a.indexURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, oops.Code(errors.CodeParse).With("url", a.indexURL).Wrap(err)
	}

	base, err := url.Parse(a.indexURL)
	if err != nil {
		return nil, oops.Code(errors.CodeParse).With("url", a.indexURL).Wrap(err)
	}

	var candidates []domain.Candidate
	seen := map[string]int{}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok || !a.matches(link) {
			return
		}

		title := collapseSpaces(s.Text())
		key := withoutQuery(link)
		if i, dup := seen[key]; dup {
			if candidates[i].Title == "" {
				candidates[i].Title = title
			}
			return
		}

		seen[key] = len(candidates)
		candidates = append(candidates, domain.Candidate{
			Title:  title,
			Link:   link,
			Source: domain.SourceKindHtml,
		})
	})

	slog.Debug("Scraped listing page", "url", a.indexURL, "candidates", len(candidates))

	return candidates, nil
}

func (a *HTMLListingAdapter) matches(link string) bool {
	return lo.SomeBy(a.linkPatterns, func(re *regexp.Regexp) bool {
		return re.MatchString(link)
	})
}
