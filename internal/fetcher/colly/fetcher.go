// Package collyfetcher implements migrate.Fetcher using the Colly collector.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"shopmigrate/internal/metrics"
)

// Config controls collector and retry behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// Fetcher retrieves HTML with bounded retries and linear backoff. Responses
// outside [200,400) or without an HTML content type are soft failures that
// are logged and retried.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

var errNotHTML = errors.New("response is not html")

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	base := colly.NewCollector()
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		base.UserAgent = cfg.UserAgent
	}
	base.SetRequestTimeout(cfg.Timeout)
	base.WithTransport(&http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Fetcher{cfg: cfg, baseCollector: base, logger: logger}
}

// Fetch retrieves the HTML body of rawURL, retrying up to MaxRetries times
// and sleeping BackoffBase * attempt between attempts.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		start := time.Now()
		body, err := f.fetchOnce(rawURL)
		metrics.ObserveFetchDuration(time.Since(start))
		if err == nil {
			return body, nil
		}
		lastErr = err
		metrics.ObserveFetchRetry()
		f.logger.Warn("fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == f.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.cfg.BackoffBase * time.Duration(attempt)):
		}
	}
	f.logger.Error("fetch failed after retries",
		zap.String("url", rawURL),
		zap.Int("attempts", f.cfg.MaxRetries),
		zap.Error(lastErr),
	)
	return "", fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

func (f *Fetcher) fetchOnce(rawURL string) (string, error) {
	collector := f.baseCollector.Clone()

	var body string
	var fetchErr error

	collector.OnResponse(func(r *colly.Response) {
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		if !strings.Contains(strings.ToLower(contentType), "text/html") {
			fetchErr = fmt.Errorf("%w: %s", errNotHTML, contentType)
			return
		}
		body = string(r.Body)
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	if err := collector.Visit(rawURL); err != nil {
		return "", err
	}
	collector.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	return body, nil
}
