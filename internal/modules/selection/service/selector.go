package service

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	markupService "github.com/reshetovitsme/patchnotes-feed/internal/modules/markup/service"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Selector picks the candidate that announces a product update. Trust in a
// candidate decreases with the shape of its link: dedicated update paths need
// a keyword, generic news posts need a keyword and the product name.
type Selector struct {
	updatePath  *regexp.Regexp
	newsPath    *regexp.Regexp
	keywords    []string
	productName string
}

func New(updatePattern, newsPattern string, keywords []string, productName string) (*Selector, error) {
	updatePath, err := regexp.Compile(updatePattern)
	if err != nil {
		return nil, oops.Code(errors.CodeConfig).With("pattern", updatePattern).Wrap(err)
	}
	newsPath, err := regexp.Compile(newsPattern)
	if err != nil {
		return nil, oops.Code(errors.CodeConfig).With("pattern", newsPattern).Wrap(err)
	}

	return &Selector{
		updatePath: updatePath,
		newsPath:   newsPath,
		keywords: lo.FilterMap(keywords, func(k string, _ int) (string, bool) {
			k = strings.ToLower(strings.TrimSpace(k))
			return k, k != ""
		}),
		productName: strings.ToLower(strings.TrimSpace(productName)),
	}, nil
}

// Select returns the first accepted candidate. Finding none is the normal
// "nothing new" outcome.
func (s *Selector) Select(candidates []domain.Candidate) (domain.Candidate, bool) {
	return lo.Find(candidates, s.Accepts)
}

// Accepts matches keywords and the product name against the visible text of
// the candidate, so image sources and link targets never count.
func (s *Selector) Accepts(c domain.Candidate) bool {
	text := strings.ToLower(c.Title + "\n" + markupService.VisibleText(c.BodyMarkup))

	switch {
	case s.updatePath.MatchString(c.Link):
		return s.hasKeyword(text)
	case s.newsPath.MatchString(c.Link):
		if s.productName == "" {
			slog.Debug("Rejecting news post without a configured product name", "link", c.Link)
			return false
		}
		return s.hasKeyword(text) && strings.Contains(text, s.productName)
	default:
		return false
	}
}

func (s *Selector) hasKeyword(text string) bool {
	return lo.SomeBy(s.keywords, func(k string) bool {
		return strings.Contains(text, k)
	})
}
