package service

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/oops"
)

// RSSAdapter reads RSS and Atom feeds. Items without a body are hydrated from
// their page like listing entries.
type RSSAdapter struct {
	*PageHydrator
	fetcher *Fetcher
	feedURL string
}

func NewRSSAdapter(feedURL string, fetcher *Fetcher, hydrator *PageHydrator) *RSSAdapter {
	return &RSSAdapter{
		PageHydrator: hydrator,
		fetcher:      fetcher,
		feedURL:      feedURL,
	}
}

func (a *RSSAdapter) Kind() domain.SourceKind {
	return domain.SourceKindRss
}

func (a *RSSAdapter) URL() string {
	return a.feedURL
}

func (a *RSSAdapter) FetchCandidates(ctx context.Context) ([]domain.Candidate, error) {
	data, err := a.fetcher.Fetch(ctx, a.feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, oops.Code(errors.CodeParse).With("url", a.feedURL).Wrap(err)
	}

	base, _ := url.Parse(a.feedURL)
	candidates := make([]domain.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		body := item.Content
		if strings.TrimSpace(body) == "" {
			body = item.Description
		}

		candidates = append(candidates, domain.Candidate{
			Title:      collapseSpaces(item.Title),
			Link:       itemLink(base, item),
			BodyMarkup: body,
			Source:     domain.SourceKindRss,
		})
	}

	slog.Debug("Parsed feed", "url", a.feedURL, "title", feed.Title, "candidates", len(candidates))

	return candidates, nil
}

func itemLink(base *url.URL, item *gofeed.Item) string {
	hrefs := append([]string{item.Link}, item.Links...)
	for _, href := range hrefs {
		if strings.TrimSpace(href) == "" {
			continue
		}
		if link, ok := resolveLink(base, strings.TrimSpace(href)); ok {
			return link
		}
	}

	guid := strings.TrimSpace(item.GUID)
	if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
		return guid
	}
	return ""
}
