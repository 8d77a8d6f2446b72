// Package wg21 fetches the paper index over HTTP.
package wg21

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kailas-cloud/paperbot/internal/domain"
	"github.com/kailas-cloud/paperbot/internal/domain/paper"
)

// DefaultURL is the public paper index.
const DefaultURL = "https://wg21.link/index.json"

// Config holds catalog source settings.
type Config struct {
	URL          string
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// Client downloads and decodes the catalog.
type Client struct {
	url       string
	maxBody   int64
	userAgent string
	http      *http.Client
}

// NewClient creates a catalog client.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 20
	}
	return &Client{
		url:       cfg.URL,
		maxBody:   cfg.MaxBodyBytes,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// URL returns the catalog source address.
func (c *Client) URL() string { return c.url }

// Fetch performs a GET and decodes the body. Network and status failures wrap
// domain.ErrCatalogFetch; decoding failures wrap domain.ErrCatalogParse.
func (c *Client) Fetch(ctx context.Context) (*paper.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w: %w", domain.ErrCatalogFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w: %w", c.url, domain.ErrCatalogFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body := &limitedReader{r: resp.Body, n: c.maxBody}
	cat, err := paper.Decode(body)
	if err != nil {
		if body.exceeded {
			return nil, fmt.Errorf("catalog larger than %d bytes: %w", c.maxBody, domain.ErrCatalogFetch)
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("read body: %w: %w", domain.ErrCatalogFetch, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogParse, err)
	}
	return cat, nil
}

// limitedReader fails once more than n bytes have been read.
type limitedReader struct {
	r        io.Reader
	n        int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		l.exceeded = true
		return 0, errBodyTooLarge
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	return n, err //nolint:wrapcheck // passthrough reader
}

var errBodyTooLarge = errors.New("body too large")
