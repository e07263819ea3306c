package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/oops"
)

const maxBodySize = 10 << 20

// Fetcher retrieves raw documents from upstream sources
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch returns the body of rawURL. Transport failures and non-2xx responses
// are reported with the fetch_error code.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, oops.Code(errors.CodeFetch).With("url", rawURL, "context", "failed to build request").Wrap(err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, oops.Code(errors.CodeFetch).With("url", rawURL, "context", "request failed").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, oops.Code(errors.CodeFetch).With("url", rawURL, "status", resp.StatusCode).Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, oops.Code(errors.CodeFetch).With("url", rawURL, "context", "failed to read body").Wrap(err)
	}

	return body, nil
}
