// Package migrate defines the core types and interfaces for the storefront
// migration engine: crawl results, extracted product records, redirect and
// diagnostic entries, and migration run metadata.
package migrate

import "time"

// PageType classifies a crawled URL.
type PageType string

// Page type values assigned by the classifier.
const (
	PageTypeProduct  PageType = "product"
	PageTypeCategory PageType = "category"
	PageTypeBlog     PageType = "blog"
	PageTypePage     PageType = "page"
	PageTypeOther    PageType = "other"
)

// MatchReason explains how a redirect target was chosen.
type MatchReason string

// Match reason values recorded in diagnostics.
const (
	ReasonSKU        MatchReason = "sku"
	ReasonBarcode    MatchReason = "barcode"
	ReasonCategory   MatchReason = "category"
	ReasonBlog       MatchReason = "blog"
	ReasonPage       MatchReason = "page"
	ReasonNonProduct MatchReason = "non_product"
	ReasonUnmatched  MatchReason = "unmatched"
)

// Confidence tiers per match reason. SKU matches always win over barcode
// matches, and anything weaker is left unmatched for human review.
const (
	ConfidenceSKU     = 1.0
	ConfidenceBarcode = 0.98
)

// CrawlPage is recorded once per unique normalized URL visited.
type CrawlPage struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	PageType PageType `json:"type"`
}

// ProductRecord holds the normalized attributes extracted from a product page.
// Every field is optional; Price is nil when no price could be extracted.
type ProductRecord struct {
	SourceURL       string   `json:"source_url"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Price           *float64 `json:"price,omitempty"`
	Currency        string   `json:"currency"`
	SKU             string   `json:"sku"`
	DescriptionHTML string   `json:"description_html"`
	MainImageURL    string   `json:"main_image_url"`
	ImageURLs       []string `json:"image_urls"`
	Brand           string   `json:"brand"`
	Barcode         string   `json:"barcode"`
	CategoryPath    string   `json:"category_path"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
}

// RedirectEntry is one row of the redirect map, produced for every crawled
// page. ToPath is empty when no safe target was found.
type RedirectEntry struct {
	FromPath string   `json:"from_path"`
	ToPath   string   `json:"to_path"`
	FromSlug string   `json:"from_slug"`
	ToSlug   string   `json:"to_slug"`
	Title    string   `json:"title"`
	SKU      string   `json:"sku"`
	PageType PageType `json:"type"`
}

// Existence values reported by the destination verifier.
const (
	ExistsOK      = "ok"
	ExistsError   = "error"
	ExistsUnknown = "unknown"
)

// DiagnosticEntry captures match quality for human-review triage.
type DiagnosticEntry struct {
	FromURL    string      `json:"from_url"`
	ToURL      string      `json:"to_url"`
	PageType   PageType    `json:"type"`
	Reason     MatchReason `json:"reason"`
	Confidence float64     `json:"confidence"`
	Exists     string      `json:"exists_on_ikas"`
}

// RunStatus represents the lifecycle state of a migration run.
type RunStatus string

// Run status values persisted in the run store.
const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunParameters captures per-run knobs requested by the caller.
type RunParameters struct {
	StartURL        string `json:"start_url"`
	DestinationBase string `json:"destination_base,omitempty"`
	ExportPath      string `json:"export_path,omitempty"`
	MaxPages        int    `json:"max_pages"`
}

// RunCounters tracks per-run stats.
type RunCounters struct {
	PagesCrawled int `json:"pages_crawled"`
	Products     int `json:"products"`
	Matched      int `json:"matched"`
	Unmatched    int `json:"unmatched"`
}

// RunArtifacts holds the URIs of the exported files.
type RunArtifacts struct {
	RedirectsURI   string `json:"redirects_uri,omitempty"`
	DiagnosticsURI string `json:"diagnostics_uri,omitempty"`
	ProductsURI    string `json:"products_uri,omitempty"`
}

// Run is the metadata persisted for each submitted migration.
type Run struct {
	ID         string        `json:"id"`
	Status     RunStatus     `json:"status"`
	Submitted  time.Time     `json:"submitted_at"`
	Started    *time.Time    `json:"started_at,omitempty"`
	Finished   *time.Time    `json:"finished_at,omitempty"`
	ErrorText  string        `json:"error_text,omitempty"`
	Parameters RunParameters `json:"parameters"`
	Counters   RunCounters   `json:"counters"`
	Artifacts  RunArtifacts  `json:"artifacts"`
}

// PageRecord is persisted for each page visited during a run.
type PageRecord struct {
	RunID       string    `json:"run_id"`
	URL         string    `json:"url"`
	PageType    PageType  `json:"type"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	FetchedAt   time.Time `json:"fetched_at"`
}
