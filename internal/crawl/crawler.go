// Package crawl implements breadth-first site traversal with URL
// classification and exclusion filtering.
package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shopmigrate/internal/migrate"
	"shopmigrate/internal/normalize"
)

// nextSelectors is the ordered list of "next page" candidates. The first one
// that matches wins; at most one pagination link is followed per page.
var nextSelectors = []string{
	"a[rel='next']",
	"link[rel='next']",
	".pagination a.next",
	"a.next",
	"a[aria-label='Next']",
}

// Config holds the settings for a crawl session.
type Config struct {
	// MaxPages bounds how many pages a single crawl will visit.
	MaxPages int

	// OnPage, when set, is invoked once per visited page with the raw body.
	// It lets callers persist page records without a second fetch.
	OnPage func(page migrate.CrawlPage, body string)
}

// Crawler walks a site breadth-first from a start URL. All crawl state
// (visited set, work queue) lives on the stack of Run, so a single Crawler
// can serve multiple independent crawls.
type Crawler struct {
	fetcher migrate.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Crawler.
func New(fetcher migrate.Fetcher, cfg Config, logger *zap.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Run enumerates all in-scope pages reachable from startURL, stopping when
// the queue drains or the page budget is reached. Pages visited before budget
// exhaustion are always returned. An unreachable start URL is an error so no
// empty output is produced silently.
func (c *Crawler) Run(ctx context.Context, startURL string) ([]migrate.CrawlPage, error) {
	startURL = strings.TrimSuffix(strings.TrimSpace(startURL), "/")
	start, err := NormalizeURL(startURL)
	if err != nil {
		return nil, fmt.Errorf("start url: %w", err)
	}

	startBody, err := c.fetcher.Fetch(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("fetch start url %s: %w", start, err)
	}

	queue := []string{start}
	queued := map[string]struct{}{start: {}}
	visited := make(map[string]struct{})
	var pages []migrate.CrawlPage

	for len(queue) > 0 && len(visited) < c.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		current := queue[0]
		queue = queue[1:]
		delete(queued, current)

		if _, seen := visited[current]; seen || IsExcluded(current) {
			continue
		}
		visited[current] = struct{}{}

		body := startBody
		if current != start {
			body, err = c.fetcher.Fetch(ctx, current)
			if err != nil {
				c.logger.Warn("page fetch failed, skipping", zap.String("url", current), zap.Error(err))
				continue
			}
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			c.logger.Warn("page parse failed, skipping", zap.String("url", current), zap.Error(err))
			continue
		}

		page := migrate.CrawlPage{
			URL:      current,
			Title:    pageTitle(doc, current),
			PageType: ClassifyPageType(current, doc),
		}
		page.Slug = pageSlug(page.Title, current)
		pages = append(pages, page)
		if c.cfg.OnPage != nil {
			c.cfg.OnPage(page, body)
		}
		c.logger.Debug("visited page",
			zap.String("url", current),
			zap.String("type", string(page.PageType)),
		)

		links, next := c.discoverLinks(current, doc)
		if next != "" {
			links = append(links, next)
		}
		for _, link := range links {
			if _, seen := visited[link]; seen {
				continue
			}
			if _, inQueue := queued[link]; inQueue {
				continue
			}
			queue = append(queue, link)
			queued[link] = struct{}{}
		}
	}

	return pages, nil
}

// discoverLinks collects all same-domain anchor targets plus the single
// "next" pagination link, normalized and filtered through the exclusion list.
func (c *Crawler) discoverLinks(pageURL string, doc *goquery.Document) ([]string, string) {
	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		abs := AbsoluteURL(pageURL, href)
		if !SameHost(pageURL, abs) || IsExcluded(abs) {
			return
		}
		clean, err := NormalizeURL(abs)
		if err != nil || clean == "" || clean == pageURL {
			return
		}
		if _, dup := seen[clean]; dup {
			return
		}
		seen[clean] = struct{}{}
		links = append(links, clean)
	})

	var next string
	for _, sel := range nextSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		candidate := el.AttrOr("href", el.AttrOr("content", ""))
		if candidate == "" {
			continue
		}
		abs := AbsoluteURL(pageURL, candidate)
		if clean, err := NormalizeURL(abs); err == nil && !IsExcluded(clean) {
			next = clean
		}
		break
	}

	return links, next
}

var titleCaser = cases.Title(language.Und)

// pageTitle extracts a human title: document title, then og:title, then the
// first h1, then a title-cased version of the last URL path segment.
func pageTitle(doc *goquery.Document, pageURL string) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", "")); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	segment := strings.ReplaceAll(LastPathSegment(pageURL), "-", " ")
	return titleCaser.String(segment)
}

func pageSlug(title, pageURL string) string {
	if s := normalize.Slug(title); s != "" {
		return s
	}
	return LastPathSegment(pageURL)
}
