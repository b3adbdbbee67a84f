// Package extract pulls canonical product attributes out of heterogeneous
// storefront HTML. Structured markup is tried first, then an ordered cascade
// of CSS-selector heuristics, then page-level fallbacks.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shopmigrate/internal/crawl"
	"shopmigrate/internal/normalize"
)

// StructuredProduct is the normalized result of JSON-LD parsing. All fields
// are optional; a page without a Product node yields the zero value, which is
// the expected case for non-product pages.
type StructuredProduct struct {
	Name            string
	SKU             string
	DescriptionHTML string
	Price           *float64
	Currency        string
	Image           string
	Images          []string
	Brand           string
	Barcode         string
	CategoryPath    string
}

// ParseStructuredProduct scans every ld+json script block, flattens arrays
// and one level of @graph nesting into a single candidate list, and maps the
// first Product-typed node onto a StructuredProduct. Malformed blocks are
// skipped.
func ParseStructuredProduct(doc *goquery.Document, baseURL string) StructuredProduct {
	var candidates []map[string]any
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		if !strings.Contains(typ, "ld+json") {
			return
		}
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		candidates = append(candidates, decodeCandidates([]byte(raw))...)
	})

	node := firstProductNode(candidates)
	if node == nil {
		return StructuredProduct{}
	}
	return mapProductNode(node, baseURL)
}

// decodeCandidates normalizes the three JSON-LD shapes (object,
// array-of-objects, object with @graph) into a flat candidate list.
func decodeCandidates(raw []byte) []map[string]any {
	var out []map[string]any
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	flatten := func(v any) {
		obj, ok := v.(map[string]any)
		if !ok {
			return
		}
		out = append(out, obj)
		if graph, ok := obj["@graph"].([]any); ok {
			for _, sub := range graph {
				if subObj, ok := sub.(map[string]any); ok {
					out = append(out, subObj)
				}
			}
		}
	}
	switch v := decoded.(type) {
	case map[string]any:
		flatten(v)
	case []any:
		for _, item := range v {
			flatten(item)
		}
	}
	return out
}

// firstProductNode returns the first candidate whose @type is, or includes,
// "Product" (case-insensitive).
func firstProductNode(candidates []map[string]any) map[string]any {
	for _, node := range candidates {
		switch t := node["@type"].(type) {
		case string:
			if strings.EqualFold(t, "product") {
				return node
			}
		case []any:
			for _, item := range t {
				if strings.EqualFold(fmt.Sprint(item), "product") {
					return node
				}
			}
		}
	}
	return nil
}

func mapProductNode(node map[string]any, baseURL string) StructuredProduct {
	p := StructuredProduct{
		Name:         stringField(node, "name"),
		CategoryPath: stringField(node, "category"),
	}

	p.SKU = stringField(node, "sku")
	if p.SKU == "" {
		p.SKU = stringField(node, "mpn")
	}

	switch desc := node["description"].(type) {
	case string:
		p.DescriptionHTML = desc
	case map[string]any:
		p.DescriptionHTML = stringField(desc, "text")
	}

	switch img := node["image"].(type) {
	case string:
		u := crawl.AbsoluteURL(baseURL, img)
		p.Image = u
		p.Images = []string{u}
	case []any:
		for _, item := range img {
			if s, ok := item.(string); ok {
				p.Images = append(p.Images, crawl.AbsoluteURL(baseURL, s))
			}
		}
		if len(p.Images) > 0 {
			p.Image = p.Images[0]
		}
	}

	offers := node["offers"]
	if list, ok := offers.([]any); ok && len(list) > 0 {
		offers = list[0]
	}
	if offer, ok := offers.(map[string]any); ok {
		for _, key := range []string{"price", "lowPrice", "highPrice"} {
			raw := offer[key]
			if raw == nil {
				continue
			}
			if v, ok := normalize.Price(fmt.Sprint(raw)); ok {
				p.Price = &v
				break
			}
		}
		p.Currency = stringField(offer, "priceCurrency")
	}

	switch brand := node["brand"].(type) {
	case string:
		p.Brand = brand
	case map[string]any:
		p.Brand = stringField(brand, "name")
	}

	for _, key := range []string{"gtin13", "gtin14", "gtin12", "gtin8", "isbn"} {
		if raw, ok := node[key]; ok && raw != nil {
			if s := strings.TrimSpace(fmt.Sprint(raw)); s != "" {
				p.Barcode = s
				break
			}
		}
	}

	return p
}

func stringField(node map[string]any, key string) string {
	if s, ok := node[key].(string); ok {
		return s
	}
	return ""
}
