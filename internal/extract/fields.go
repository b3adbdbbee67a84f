package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shopmigrate/internal/crawl"
)

// A lookup is one step of a field cascade: a pure function from document to
// candidate value. Cascades run in order and stop at the first non-empty
// result, so more specific selectors must stay ahead of generic ones like a
// bare ".price" class.
type lookup func(doc *goquery.Document) string

func cascade(doc *goquery.Document, lookups ...lookup) string {
	for _, fn := range lookups {
		if v := fn(doc); v != "" {
			return v
		}
	}
	return ""
}

// sel returns a lookup for a CSS selector. Meta elements yield their content
// attribute, anything else its text.
func sel(selector string) lookup {
	return func(doc *goquery.Document) string {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			return ""
		}
		if el.Is("meta") || el.Is("link") {
			return strings.TrimSpace(el.AttrOr("content", ""))
		}
		return cleanText(el.Text())
	}
}

// spanContaining finds the first span whose text contains the given label
// (case-insensitive). Stands in for the ":contains" pseudo-selector.
func spanContaining(label string) lookup {
	lower := strings.ToLower(label)
	return func(doc *goquery.Document) string {
		var found string
		doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			txt := cleanText(s.Text())
			if strings.Contains(strings.ToLower(txt), lower) {
				found = txt
				return false
			}
			return true
		})
		return found
	}
}

func stripLabel(re *regexp.Regexp, fn lookup) lookup {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(re.ReplaceAllString(fn(doc), ""))
	}
}

var (
	spaceRe        = regexp.MustCompile(`\s+`)
	skuLabelRe     = regexp.MustCompile(`(?i)\b(SKU|Stok Kodu|Model)\b[:\s]*`)
	brandLabelRe   = regexp.MustCompile(`(?i)\b(Marka|Brand)\b[:\s]*`)
	barcodeLabelRe = regexp.MustCompile(`(?i)\b(Barkod|Barcode|GTIN|EAN)\b[:\s]*`)
	priceFallback  = regexp.MustCompile(`(?i)([0-9.,]+)\s*(TL|₺|TRY)?`)
)

func cleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// ProductName extracts the product display name.
func ProductName(doc *goquery.Document) string {
	return cascade(doc,
		sel("h1.product-title"),
		sel("h1.product_name"),
		sel("h1#productName"),
		sel("h1[itemprop='name']"),
		sel("h1"),
		sel(".product-title"),
		sel(".productName"),
		sel("meta[property='og:title']"),
		sel("title"),
	)
}

// PriceText extracts the raw price string; parsing is the caller's job.
// When no selector matches, the whole page text is scanned for a numeric
// token optionally followed by a currency marker.
func PriceText(doc *goquery.Document) string {
	return cascade(doc,
		sel(".product-price .price"),
		sel(".product-price .new"),
		sel(".price .current"),
		sel(".productPrice"),
		sel("[itemprop='price']"),
		sel(".price"),
		sel(".newPrice"),
		sel("meta[itemprop='price']"),
		sel("meta[property='product:price:amount']"),
		func(doc *goquery.Document) string {
			return priceFallback.FindString(cleanText(doc.Find("body").Text()))
		},
	)
}

// SKU extracts the stock keeping unit, stripping leading label words.
func SKU(doc *goquery.Document) string {
	return cascade(doc,
		stripLabel(skuLabelRe, sel("[itemprop='sku']")),
		stripLabel(skuLabelRe, sel(".product-sku")),
		stripLabel(skuLabelRe, sel("#productSku")),
		stripLabel(skuLabelRe, sel(".sku")),
		stripLabel(skuLabelRe, spanContaining("SKU")),
		stripLabel(skuLabelRe, spanContaining("Stok Kodu")),
		func(doc *goquery.Document) string {
			el := doc.Find("[itemprop='sku']").First()
			return strings.TrimSpace(el.AttrOr("content", ""))
		},
	)
}

// DescriptionHTML extracts the product description as raw HTML. The final
// fallback picks the largest-by-text div or section among the first 20 in
// document order.
func DescriptionHTML(doc *goquery.Document) string {
	selectors := []string{
		"#productDescription",
		".product-description",
		".product-desc",
		"[itemprop='description']",
		".tab-content .desc",
		".aciklama",
		".tab-content .tab-pane.active",
		"#tabProductDesc",
		"#tab-description",
		"[id*='description']",
		".product-detail .tab-content",
	}
	for _, s := range selectors {
		el := doc.Find(s).First()
		if el.Length() == 0 {
			continue
		}
		if html, err := goquery.OuterHtml(el); err == nil && strings.TrimSpace(html) != "" {
			return html
		}
	}

	var best string
	var bestLen int
	doc.Find("div, section").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 20 {
			return false
		}
		if n := len(cleanText(s.Text())); n > bestLen {
			if html, err := goquery.OuterHtml(s); err == nil {
				best = html
				bestLen = n
			}
		}
		return true
	})
	return best
}

// imgSrc picks the best source attribute of an img element: high-res data
// attributes first, then lazy-load, then src, then the first srcset entry.
func imgSrc(img *goquery.Selection) string {
	for _, key := range []string{"data-zoom-image", "data-large", "data-src", "src"} {
		if v, ok := img.Attr(key); ok && v != "" {
			return v
		}
	}
	if srcset, ok := img.Attr("srcset"); ok && srcset != "" {
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		if fields := strings.Fields(first); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

var mainImageSelectors = []string{
	"#productImage",
	".product-image img",
	".gallery img",
	"img[itemprop='image']",
	".swiper .swiper-slide img",
	"#productImages img",
	".product-detail .swiper img",
}

// MainImage extracts the primary product image as an absolute URL: og:image
// first, then gallery selectors, then the widest img on the page.
func MainImage(doc *goquery.Document, baseURL string) string {
	if og := doc.Find("meta[property='og:image'], meta[name='og:image']").First().AttrOr("content", ""); og != "" {
		return crawl.AbsoluteURL(baseURL, og)
	}
	for _, s := range mainImageSelectors {
		img := doc.Find(s).First()
		if img.Length() == 0 {
			continue
		}
		if src := imgSrc(img); src != "" {
			return crawl.AbsoluteURL(baseURL, src)
		}
	}

	var bestSrc string
	bestWidth := 0
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := imgSrc(img)
		if src == "" {
			return
		}
		w, err := strconv.Atoi(strings.TrimSpace(img.AttrOr("width", "")))
		if err != nil {
			return
		}
		if w > bestWidth {
			bestWidth = w
			bestSrc = src
		}
	})
	if bestSrc == "" {
		return ""
	}
	return crawl.AbsoluteURL(baseURL, bestSrc)
}

var gallerySelectors = []string{
	".product-images img",
	".product-gallery img",
	".gallery img",
	"#productImages img",
	".swiper .swiper-slide img",
	".product-detail .swiper img",
	"img[data-zoom-image]",
	"img[itemprop='image']",
}

// GalleryImages collects all product image URLs in document order, absolute
// and deduplicated.
func GalleryImages(doc *goquery.Document, baseURL string) []string {
	var urls []string
	for _, s := range gallerySelectors {
		doc.Find(s).Each(func(_ int, img *goquery.Selection) {
			if src := imgSrc(img); src != "" {
				urls = append(urls, crawl.AbsoluteURL(baseURL, src))
			}
		})
	}
	if og := doc.Find("meta[property='og:image']").First().AttrOr("content", ""); og != "" {
		urls = append(urls, crawl.AbsoluteURL(baseURL, og))
	}
	return dedupe(urls)
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Brand extracts the product brand, stripping leading label words.
func Brand(doc *goquery.Document) string {
	return cascade(doc,
		stripLabel(brandLabelRe, sel("[itemprop='brand']")),
		stripLabel(brandLabelRe, sel(".brand-name")),
		stripLabel(brandLabelRe, sel(".product-brand")),
		stripLabel(brandLabelRe, sel("#brandName")),
		stripLabel(brandLabelRe, spanContaining("Marka")),
	)
}

// Barcode extracts the product barcode (GTIN/EAN), preferring meta content
// attributes and stripping leading label words.
func Barcode(doc *goquery.Document) string {
	return cascade(doc,
		stripLabel(barcodeLabelRe, sel("[itemprop='gtin13']")),
		stripLabel(barcodeLabelRe, sel("[itemprop='gtin14']")),
		stripLabel(barcodeLabelRe, sel("[itemprop='barcode']")),
		stripLabel(barcodeLabelRe, sel("meta[itemprop='gtin13']")),
		stripLabel(barcodeLabelRe, sel("meta[name='barcode']")),
		stripLabel(barcodeLabelRe, sel(".barcode")),
		stripLabel(barcodeLabelRe, spanContaining("Barkod")),
	)
}

// CategoryPath joins breadcrumb entries with " > ", skipping home links.
func CategoryPath(doc *goquery.Document) string {
	var crumbs []string
	for _, s := range []string{
		".breadcrumb a",
		"nav.breadcrumb a",
		"[itemtype*='BreadcrumbList'] [itemprop='name']",
	} {
		doc.Find(s).Each(func(_ int, el *goquery.Selection) {
			if txt := cleanText(el.Text()); txt != "" {
				crumbs = append(crumbs, txt)
			}
		})
		if len(crumbs) > 0 {
			break
		}
	}
	var kept []string
	for _, c := range crumbs {
		lower := strings.ToLower(c)
		if lower == "anasayfa" || lower == "home" {
			continue
		}
		kept = append(kept, c)
	}
	return strings.Join(kept, " > ")
}

// MetaTitle returns the document title, falling back to og:title.
func MetaTitle(doc *goquery.Document) string {
	return cascade(doc,
		sel("title"),
		sel("meta[property='og:title']"),
	)
}

// MetaDescription returns the page meta description, falling back to
// og:description.
func MetaDescription(doc *goquery.Document) string {
	return cascade(doc,
		sel("meta[name='description']"),
		sel("meta[property='description']"),
		sel("meta[name='og:description']"),
		sel("meta[property='og:description']"),
	)
}
