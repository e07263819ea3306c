package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/oops"
)

// PageHydrator fetches a candidate's page and extracts its announcement body
type PageHydrator struct {
	fetcher   *Fetcher
	selectors []string
}

func NewPageHydrator(fetcher *Fetcher, selectors []string) *PageHydrator {
	return &PageHydrator{fetcher: fetcher, selectors: selectors}
}

// Hydrate returns the candidate unchanged when it already carries a body
func (h *PageHydrator) Hydrate(ctx context.Context, candidate domain.Candidate) (domain.Candidate, error) {
	if candidate.HasBody() || candidate.Link == "" {
		return candidate, nil
	}

	page, err := h.fetcher.Fetch(ctx, candidate.Link)
	if err != nil {
		return candidate, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return candidate, oops.Code(errors.CodeParse).With("url", candidate.Link).Wrap(err)
	}

	body, selector, ok := ExtractContent(doc, h.selectors)
	if !ok {
		return candidate, oops.Code(errors.CodeParse).With("url", candidate.Link, "selectors", h.selectors).New("no content container found")
	}
	slog.Debug("Extracted announcement content", "url", candidate.Link, "selector", selector)

	candidate.BodyMarkup = body
	if candidate.Title == "" {
		candidate.Title = pageTitle(doc)
	}

	return candidate, nil
}

// ExtractContent returns the inner HTML of the first selector whose match has
// visible text, with the selector that matched
func ExtractContent(doc *goquery.Document, selectors []string) (string, string, bool) {
	for _, selector := range selectors {
		selection := doc.Find(selector).First()
		if selection.Length() == 0 || strings.TrimSpace(selection.Text()) == "" {
			continue
		}
		inner, err := selection.Html()
		if err != nil {
			continue
		}
		return inner, selector, true
	}
	return "", "", false
}

func pageTitle(doc *goquery.Document) string {
	if h1 := collapseSpaces(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return collapseSpaces(doc.Find("title").First().Text())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
