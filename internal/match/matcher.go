package match

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"shopmigrate/internal/crawl"
	"shopmigrate/internal/extract"
	"shopmigrate/internal/migrate"
	"shopmigrate/internal/normalize"
)

// Matcher assigns each crawled page a destination path and a confidence
// tier. Product pages are matched strictly by SKU, then barcode; everything
// weaker stays unmatched and goes to human review.
type Matcher struct {
	index    *DestinationIndex
	fetcher  migrate.Fetcher
	verifier *Verifier
	logger   *zap.Logger
}

// New constructs a Matcher. verifier may be nil when no destination base URL
// is configured; existence then reports "unknown".
func New(index *DestinationIndex, fetcher migrate.Fetcher, verifier *Verifier, logger *zap.Logger) *Matcher {
	if index == nil {
		index = NewDestinationIndex()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{index: index, fetcher: fetcher, verifier: verifier, logger: logger}
}

// Match resolves one crawled page into a redirect entry plus a diagnostic
// entry. Product pages are re-fetched to extract their SKU and barcode; a
// fetch failure downgrades the page to unmatched rather than aborting.
func (m *Matcher) Match(ctx context.Context, page migrate.CrawlPage) (migrate.RedirectEntry, migrate.DiagnosticEntry) {
	var (
		targetPath string
		sku        string
		confidence float64
		reason     migrate.MatchReason
	)

	switch page.PageType {
	case migrate.PageTypeProduct:
		var barcode string
		sku, barcode = m.productIdentity(ctx, page.URL)
		switch {
		case sku != "" && m.lookupSKU(sku, &targetPath):
			confidence = migrate.ConfidenceSKU
			reason = migrate.ReasonSKU
		case barcode != "" && m.lookupBarcode(barcode, &targetPath):
			confidence = migrate.ConfidenceBarcode
			reason = migrate.ReasonBarcode
		default:
			reason = migrate.ReasonUnmatched
		}
	case migrate.PageTypeCategory:
		targetPath = "/" + page.Slug
		reason = migrate.ReasonCategory
	case migrate.PageTypeBlog:
		targetPath = "/blog/" + page.Slug
		reason = migrate.ReasonBlog
	case migrate.PageTypePage:
		targetPath = "/pages/" + page.Slug
		reason = migrate.ReasonPage
	default:
		reason = migrate.ReasonNonProduct
	}

	existence := migrate.ExistsUnknown
	if m.verifier != nil {
		existence = m.verifier.Exists(ctx, targetPath)
	}

	fromPath := crawl.URLPath(page.URL)
	if fromPath == "" {
		fromPath = "/"
	}

	redirect := migrate.RedirectEntry{
		FromPath: fromPath,
		ToPath:   targetPath,
		FromSlug: lastSegment(fromPath),
		ToSlug:   lastSegment(targetPath),
		Title:    page.Title,
		SKU:      sku,
		PageType: page.PageType,
	}
	diagnostic := migrate.DiagnosticEntry{
		FromURL:    page.URL,
		ToURL:      targetPath,
		PageType:   page.PageType,
		Reason:     reason,
		Confidence: confidence,
		Exists:     existence,
	}
	return redirect, diagnostic
}

// productIdentity re-fetches a product page and extracts its normalized SKU
// and barcode, structured data first.
func (m *Matcher) productIdentity(ctx context.Context, pageURL string) (sku, barcode string) {
	body, err := m.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		m.logger.Warn("product re-fetch failed, leaving unmatched",
			zap.String("url", pageURL), zap.Error(err))
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		m.logger.Warn("product parse failed, leaving unmatched",
			zap.String("url", pageURL), zap.Error(err))
		return "", ""
	}
	product := extract.Product(doc, pageURL)
	return normalize.SKU(product.SKU), normalize.SKU(product.Barcode)
}

func (m *Matcher) lookupSKU(sku string, targetPath *string) bool {
	slug, ok := m.index.SlugBySKU(sku)
	if ok {
		*targetPath = "/urun/" + slug
	}
	return ok
}

func (m *Matcher) lookupBarcode(barcode string, targetPath *string) bool {
	slug, ok := m.index.SlugByBarcode(barcode)
	if ok {
		*targetPath = "/urun/" + slug
	}
	return ok
}

func lastSegment(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}
