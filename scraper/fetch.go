package scraper

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// userAgent is sent on every outbound request; some of the origin sites
// serve a challenge page to clients without a browser-like agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves a source page body. One best-effort GET, no retries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is the production Fetcher backed by resty.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the fixed browser user-agent.
func NewHTTPFetcher() *HTTPFetcher {
	client := resty.New().
		SetHeader("User-Agent", userAgent)
	return &HTTPFetcher{client: client}
}

// Fetch performs a single GET against url and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.StatusCode() >= 400 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, res.StatusCode())
	}
	return res.Body(), nil
}
