// Package roadworks fetches the municipal road-work dataset and keeps a
// cached copy of the raw response.
package roadworks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/metrics"
)

// DefaultFilter selects current-year records with works in progress.
// {year} is substituted at request time.
const DefaultFilter = "Cells/WorkYear eq {year} and Cells/WorksStatus eq 'идут работы'"

const maxBodyBytes = 64 << 20

// Config controls the dataset endpoint and cache freshness.
type Config struct {
	URL      string
	APIKey   string
	Filter   string
	CacheKey string
	// CacheTTL bounds the age of a cached copy used without refetching.
	// Zero means a cached copy never expires.
	CacheTTL time.Duration
	Timeout  time.Duration
}

// Client implements ports.RoadworkSource.
type Client struct {
	cfg   Config
	http  *http.Client
	cache ports.DatasetCache
	now   func() time.Time
	log   *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock replaces time.Now for cache freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client. cache may be nil to disable caching.
func New(cfg Config, cache ports.DatasetCache, log *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Filter == "" {
		cfg.Filter = DefaultFilter
	}
	if cfg.CacheKey == "" {
		cfg.CacheKey = "roadworks"
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
		now:   time.Now,
		log:   log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load returns the dataset from a fresh cache entry, or fetches it. When the
// fetch fails, an expired cache entry is used if one exists.
func (c *Client) Load(ctx context.Context) (ports.RoadworkLoad, error) {
	var stale *ports.RoadworkLoad

	if c.cache != nil {
		data, storedAt, err := c.cache.Load(ctx, c.cfg.CacheKey)
		switch {
		case errors.Is(err, ports.ErrCacheMiss):
			c.log.Debug("road-work cache miss", "key", c.cfg.CacheKey)
		case err != nil:
			c.log.Warn("road-work cache unreadable", "key", c.cfg.CacheKey, "error", err)
		default:
			records, decErr := Decode(data)
			if decErr != nil {
				c.log.Warn("discarding corrupt road-work cache", "key", c.cfg.CacheKey, "error", decErr)
				break
			}
			load := ports.RoadworkLoad{Records: records, FromCache: true, StoredAt: storedAt}
			if c.fresh(storedAt) {
				metrics.DatasetLoads.WithLabelValues("cache").Inc()
				c.log.Info("road-work dataset loaded from cache", "records", len(records), "stored_at", storedAt)
				return load, nil
			}
			load.Stale = true
			stale = &load
		}
	}

	records, raw, err := c.fetch(ctx)
	if err != nil {
		metrics.DatasetFetchErrors.Inc()
		if stale != nil {
			metrics.DatasetLoads.WithLabelValues("stale_cache").Inc()
			c.log.Warn("road-work fetch failed, falling back to cache", "error", err, "stored_at", stale.StoredAt)
			return *stale, nil
		}
		return ports.RoadworkLoad{}, err
	}

	if c.cache != nil {
		if err := c.cache.Store(ctx, c.cfg.CacheKey, raw); err != nil {
			c.log.Warn("road-work cache write failed", "key", c.cfg.CacheKey, "error", err)
		}
	}
	metrics.DatasetLoads.WithLabelValues("network").Inc()
	c.log.Info("road-work dataset fetched", "records", len(records))
	return ports.RoadworkLoad{Records: records, StoredAt: c.now()}, nil
}

func (c *Client) fresh(storedAt time.Time) bool {
	if c.cfg.CacheTTL <= 0 {
		return true
	}
	return c.now().Sub(storedAt) < c.cfg.CacheTTL
}

// endpoint returns the request URL and a copy safe to log.
func (c *Client) endpoint() (string, string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", c.cfg.URL, fmt.Errorf("parse url: %w", err)
	}
	public := *u
	public.RawQuery = ""

	q := u.Query()
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	year := strconv.Itoa(c.now().Year())
	q.Set("$filter", strings.ReplaceAll(c.cfg.Filter, "{year}", year))
	u.RawQuery = q.Encode()
	return u.String(), public.String(), nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.RoadworkRecord, []byte, error) {
	start := time.Now()
	defer func() { metrics.DatasetFetchDuration.Observe(time.Since(start).Seconds()) }()

	target, public, err := c.endpoint()
	if err != nil {
		return nil, nil, &domain.ExternalFetchError{URL: public, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, &domain.ExternalFetchError{URL: public, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	c.log.Info("fetching road-work dataset", "url", public)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &domain.ExternalFetchError{URL: public, Err: redact(err, c.cfg.APIKey)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, nil, &domain.ExternalFetchError{URL: public, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, &domain.ExternalFetchError{URL: public, Err: fmt.Errorf("read body: %w", err)}
	}

	records, err := Decode(body)
	if err != nil {
		return nil, nil, &domain.ExternalFetchError{URL: public, Err: err}
	}
	return records, body, nil
}

// redact strips the API key from transport errors, which embed the full URL.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED")
	msg = strings.ReplaceAll(msg, key, "REDACTED")
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}
