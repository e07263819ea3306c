package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/oops"
)

// JSONAPIAdapter reads the latest item of a Steam GetNewsForApp style endpoint
type JSONAPIAdapter struct {
	fetcher  *Fetcher
	endpoint string
	language string
}

type newsResponse struct {
	AppNews *struct {
		NewsItems []newsItem `json:"newsitems"`
	} `json:"appnews"`
}

type newsItem struct {
	GID      string `json:"gid"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Contents string `json:"contents"`
}

func NewJSONAPIAdapter(endpoint, language string, fetcher *Fetcher) *JSONAPIAdapter {
	return &JSONAPIAdapter{
		fetcher:  fetcher,
		endpoint: endpoint,
		language: language,
	}
}

func (a *JSONAPIAdapter) Kind() domain.SourceKind {
	return domain.SourceKindJson
}

func (a *JSONAPIAdapter) URL() string {
	return a.endpoint
}

// RequestURL is the endpoint with count=1 and the language parameter applied
func (a *JSONAPIAdapter) RequestURL() (string, error) {
	u, err := url.Parse(a.endpoint)
	if err != nil {
		return "", oops.Code(errors.CodeFetch).With("url", a.endpoint).Wrap(err)
	}

	q := u.Query()
	q.Set("count", "1")
	if a.language != "" {
		q.Set("l", a.language)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (a *JSONAPIAdapter) FetchCandidates(ctx context.Context) ([]domain.Candidate, error) {
	requestURL, err := a.RequestURL()
	if err != nil {
		return nil, err
	}

	data, err := a.fetcher.Fetch(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var resp newsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, oops.Code(errors.CodeParse).With("url", requestURL).Wrap(err)
	}
	if resp.AppNews == nil {
		return nil, oops.Code(errors.CodeParse).With("url", requestURL).New("response has no appnews object")
	}
	if len(resp.AppNews.NewsItems) == 0 {
		return []domain.Candidate{}, nil
	}

	item := resp.AppNews.NewsItems[0]
	return []domain.Candidate{{
		Title:      collapseSpaces(item.Title),
		Link:       strings.TrimSpace(item.URL),
		BodyMarkup: item.Contents,
		Source:     domain.SourceKindJson,
	}}, nil
}
