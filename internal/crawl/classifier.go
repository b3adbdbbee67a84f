package crawl

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shopmigrate/internal/migrate"
)

// excludePatterns lists path substrings that mark a URL as out of scope for
// migration: transactional flows, account areas, machine endpoints and
// anchor-only links. Matching is a case-insensitive substring scan.
var excludePatterns = []string{
	"/checkout",
	"/cart",
	"/sepet",
	"/login",
	"/giris",
	"/register",
	"/uye-ol",
	"/logout",
	"/cikis",
	"/search",
	"/ara",
	"/filter",
	"/compare",
	"/karsilastir",
	"/wishlist",
	"/favori",
	"/profile",
	"/profil",
	"/account",
	"/hesap",
	"/payment",
	"/odeme",
	"/api/",
	"/ajax/",
	"/ajax",
	"/json/",
	".json",
	".xml",
	".rss",
	"#",
	"?print=",
	"?export=",
}

// IsExcluded reports whether the URL must never be visited or enqueued.
// An empty URL is excluded.
func IsExcluded(rawURL string) bool {
	if rawURL == "" {
		return true
	}
	lower := strings.ToLower(rawURL)
	for _, pattern := range excludePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Ordered URL pattern groups. URL patterns win over HTML inspection, and
// product patterns are checked before blog and category ones.
var (
	productPathPatterns  = []string{"/urun-", "/urun/", "/product/", "/p-", "/p/", "/detay-", "/detail/"}
	blogPathPatterns     = []string{"/blog", "/haber", "/news", "/article"}
	categoryPathPatterns = []string{"/kategori", "/category", "/katalog", "/catalog"}
)

// ClassifyPageType decides what kind of page a URL represents, first from the
// URL path and then from structural hints in the parsed HTML. doc may be nil
// when the page body is unavailable.
func ClassifyPageType(rawURL string, doc *goquery.Document) migrate.PageType {
	path := lowerPath(rawURL)

	if containsAny(path, productPathPatterns) {
		return migrate.PageTypeProduct
	}
	if containsAny(path, blogPathPatterns) {
		return migrate.PageTypeBlog
	}
	if containsAny(path, categoryPathPatterns) {
		return migrate.PageTypeCategory
	}

	if doc != nil {
		ogType := strings.ToLower(doc.Find("meta[property='og:type']").AttrOr("content", ""))
		if strings.Contains(ogType, "product") {
			return migrate.PageTypeProduct
		}
		if strings.Contains(ogType, "article") || strings.Contains(ogType, "blog") {
			return migrate.PageTypeBlog
		}
		if hasAttrContaining(doc, "div", "class", "product") || hasAttrContaining(doc, "*", "id", "product") {
			return migrate.PageTypeProduct
		}
		if hasAttrContaining(doc, "nav", "class", "breadcrumb") && strings.Contains(path, "/urun") {
			return migrate.PageTypeProduct
		}
	}

	return migrate.PageTypePage
}

func lowerPath(rawURL string) string {
	u, err := url.Parse(strings.ToLower(rawURL))
	if err != nil {
		return strings.ToLower(rawURL)
	}
	return u.Path
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func hasAttrContaining(doc *goquery.Document, tag, attr, needle string) bool {
	found := false
	doc.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && strings.Contains(strings.ToLower(v), needle) {
			found = true
			return false
		}
		return true
	})
	return found
}
