package kev

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/CZERTAINLY/kevhost/internal/model"
)

// Fetcher downloads the CISA KEV catalog.
type Fetcher struct {
	url    string
	client *http.Client
}

type Option func(*Fetcher)

func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		f.client = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

func NewFetcher(url string, opts ...Option) *Fetcher {
	f := &Fetcher{
		url:    url,
		client: &http.Client{Timeout: model.DefaultTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the vulnerabilities of the catalog. Every failure is a
// *model.FeedFetchError.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.KEVEntry, error) {
	catalog, err := f.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Vulnerabilities, nil
}

// Catalog returns the whole feed document.
func (f *Fetcher) Catalog(ctx context.Context) (model.Catalog, error) {
	fail := func(status int, err error) (model.Catalog, error) {
		return model.Catalog{}, &model.FeedFetchError{URL: f.url, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var catalog model.Catalog
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return fail(0, fmt.Errorf("decoding json response failed: %w", err))
	}
	if catalog.Vulnerabilities == nil {
		return fail(0, model.ErrNoFeedData)
	}

	slog.DebugContext(ctx, "KEV catalog fetched",
		slog.String("version", catalog.CatalogVersion),
		slog.String("released", catalog.DateReleased),
		slog.Int("count", len(catalog.Vulnerabilities)))
	return catalog, nil
}
