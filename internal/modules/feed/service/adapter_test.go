package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/config"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultSelectors = []string{".news-content", "#news-content", "article", "body"}

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range routes {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testFetcher() *Fetcher {
	return NewFetcher(5*time.Second, "patchnotes-feed-test")
}

func linkPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)/news/updates?/`),
		regexp.MustCompile(`(?i)/news/post/`),
	}
}

func TestFetcherSendsUserAgentAndRejectsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "patchnotes-feed-test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := testFetcher().Fetch(context.Background(), server.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	_, err = testFetcher().Fetch(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeFetch))

	_, err = testFetcher().Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeFetch))
}

func TestHTMLListingAdapter(t *testing.T) {
	listing := `<html><body>
<a href="/news/updates/300?l=english">  Client
   Update </a>
<a href='/news/updates/300'>Duplicate</a>
<a href="https://other.example.com/news/post/200">Community news</a>
<a href="/about">About</a>
<a href=/news/update/100?snr=1_2>Older patch</a>
</body></html>`
	server := newTestServer(t, map[string]string{"/news/app/1": listing})

	fetcher := testFetcher()
	adapter := NewHTMLListingAdapter(server.URL+"/news/app/1", fetcher, NewPageHydrator(fetcher, defaultSelectors), linkPatterns()...)

	candidates, err := adapter.FetchCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, server.URL+"/news/updates/300?l=english", candidates[0].Link)
	assert.Equal(t, "Client Update", candidates[0].Title)
	assert.False(t, candidates[0].HasBody())
	assert.Equal(t, domain.SourceKindHtml, candidates[0].Source)
	assert.Equal(t, "https://other.example.com/news/post/200", candidates[1].Link)
	assert.Equal(t, server.URL+"/news/update/100?snr=1_2", candidates[2].Link)
	assert.Equal(t, domain.SourceKindHtml, adapter.Kind())
}

func TestHTMLListingAdapterHydrate(t *testing.T) {
	page := `<html><head><title>Patch 1.2 :: News</title></head><body>
<nav>Menu</nav>
<div id="news-content"><p>Fixed a bug.</p></div>
<article>Ignored</article>
</body></html>`
	server := newTestServer(t, map[string]string{"/news/updates/5": page})

	fetcher := testFetcher()
	adapter := NewHTMLListingAdapter(server.URL, fetcher, NewPageHydrator(fetcher, defaultSelectors), linkPatterns()...)

	hydrated, err := adapter.Hydrate(context.Background(), domain.Candidate{Link: server.URL + "/news/updates/5"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Fixed a bug.</p>", hydrated.BodyMarkup)
	assert.Equal(t, "Patch 1.2 :: News", hydrated.Title)
}

func TestExtractContentFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		page     string
		selector string
		content  string
	}{
		{"class container", `<div class="news-content"><b>A</b></div><article>B</article>`, ".news-content", "<b>A</b>"},
		{"blank class falls through", `<div class="news-content"> </div><article>B</article>`, "article", "B"},
		{"body", `<html><body><span>only body</span></body></html>`, "body", "<span>only body</span>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustDocument(t, tc.page)
			content, selector, ok := ExtractContent(doc, defaultSelectors)
			require.True(t, ok)
			assert.Equal(t, tc.selector, selector)
			assert.Equal(t, tc.content, content)
		})
	}

	_, _, ok := ExtractContent(mustDocument(t, `<html><body></body></html>`), defaultSelectors)
	assert.False(t, ok)
}

func TestRSSAdapter(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
<title>Game News</title>
<link>https://example.com</link>
<item>
  <title><![CDATA[Client Update]]></title>
  <link>https://example.com/news/updates/2</link>
  <description>summary</description>
  <content:encoded><![CDATA[<p>Fixed a bug.</p>]]></content:encoded>
</item>
<item>
  <title>Old Patch</title>
  <guid>https://example.com/news/updates/1</guid>
  <description>&lt;b&gt;Old&lt;/b&gt; notes</description>
</item>
<item>
  <title>No body</title>
  <link>/news/updates/0</link>
</item>
</channel>
</rss>`
	server := newTestServer(t, map[string]string{"/feed.xml": feed})

	fetcher := testFetcher()
	adapter := NewRSSAdapter(server.URL+"/feed.xml", fetcher, NewPageHydrator(fetcher, defaultSelectors))

	candidates, err := adapter.FetchCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, domain.Candidate{
		Title:      "Client Update",
		Link:       "https://example.com/news/updates/2",
		BodyMarkup: "<p>Fixed a bug.</p>",
		Source:     domain.SourceKindRss,
	}, candidates[0])
	assert.Equal(t, "https://example.com/news/updates/1", candidates[1].Link)
	assert.Equal(t, "<b>Old</b> notes", candidates[1].BodyMarkup)
	assert.Equal(t, server.URL+"/news/updates/0", candidates[2].Link)
	assert.False(t, candidates[2].HasBody())
}

func TestRSSAdapterParseError(t *testing.T) {
	server := newTestServer(t, map[string]string{"/feed.xml": "this is not a feed"})

	fetcher := testFetcher()
	adapter := NewRSSAdapter(server.URL+"/feed.xml", fetcher, NewPageHydrator(fetcher, defaultSelectors))

	_, err := adapter.FetchCandidates(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeParse))
}

func TestJSONAPIAdapter(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{"count": r.URL.Query().Get("count"), "l": r.URL.Query().Get("l"), "appid": r.URL.Query().Get("appid")}
		_, _ = w.Write([]byte(`{"appnews":{"appid":730,"newsitems":[
			{"gid":"1","title":"Release Notes for 5/1","url":"https://steamstore-a.akamaihd.net/news/externalpost/steam_community_announcements/1","contents":"[list][*]Fixed a crash[/list]"},
			{"gid":"0","title":"Older","url":"https://example.com/0","contents":"old"}]}}`))
	}))
	defer server.Close()

	adapter := NewJSONAPIAdapter(server.URL+"/ISteamNews/GetNewsForApp/v2/?appid=730&count=5", "finnish", testFetcher())

	candidates, err := adapter.FetchCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, map[string]string{"count": "1", "l": "finnish", "appid": "730"}, query)
	assert.Equal(t, "Release Notes for 5/1", candidates[0].Title)
	assert.Equal(t, "[list][*]Fixed a crash[/list]", candidates[0].BodyMarkup)
	assert.Equal(t, domain.SourceKindJson, candidates[0].Source)
}

func TestJSONAPIAdapterErrors(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/broken": `{"appnews":`,
		"/empty":  `{"appnews":{"newsitems":[]}}`,
		"/other":  `{"response":{}}`,
	})

	_, err := NewJSONAPIAdapter(server.URL+"/broken", "english", testFetcher()).FetchCandidates(context.Background())
	assert.True(t, errors.HasCode(err, errors.CodeParse))

	candidates, err := NewJSONAPIAdapter(server.URL+"/empty", "english", testFetcher()).FetchCandidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)

	_, err = NewJSONAPIAdapter(server.URL+"/other", "english", testFetcher()).FetchCandidates(context.Background())
	assert.True(t, errors.HasCode(err, errors.CodeParse))
}

func TestNewAdaptersKeepsOrder(t *testing.T) {
	cfg := &config.Config{
		UpdatePattern:    `(?i)/news/updates?/`,
		NewsPattern:      `(?i)/news/post/`,
		Language:         "english",
		ContentSelectors: defaultSelectors,
		FeedSources: []config.Source{
			{Kind: domain.SourceKindJson, URL: "https://api.example.com/news"},
			{Kind: domain.SourceKindHtml, URL: "https://example.com/news"},
			{Kind: domain.SourceKindRss, URL: "https://example.com/feed"},
		},
	}

	adapters, err := NewAdapters(cfg, testFetcher())
	require.NoError(t, err)
	require.Len(t, adapters, 3)

	assert.Equal(t, domain.SourceKindJson, adapters[0].Kind())
	assert.Equal(t, domain.SourceKindHtml, adapters[1].Kind())
	assert.Equal(t, domain.SourceKindRss, adapters[2].Kind())
	assert.Equal(t, "https://example.com/feed", adapters[2].URL())

	_, isHydrator := adapters[0].(Hydrator)
	assert.False(t, isHydrator)
	_, isHydrator = adapters[1].(Hydrator)
	assert.True(t, isHydrator)
}
