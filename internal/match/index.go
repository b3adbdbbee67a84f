// Package match maps crawled legacy pages to destination-platform identities
// with explicit confidence scoring.
package match

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"shopmigrate/internal/normalize"
)

// TitlePair is one fuzzy-fallback candidate: a normalized product title and
// its destination slug.
type TitlePair struct {
	Title string
	Slug  string
}

// DestinationIndex holds the lookup tables built from a destination product
// export. It is read-only after construction and safe to share across
// concurrent matches.
type DestinationIndex struct {
	skuToSlug     map[string]string
	barcodeToSlug map[string]string
	titleSlugs    []TitlePair
}

// Export column names recognized in the destination product CSV.
const (
	columnSlug     = "Slug"
	columnSKU      = "SKU"
	columnBarcodes = "Barkod Listesi"
	columnTitle    = "İsim"
)

// NewDestinationIndex returns an empty index; every lookup misses. Used when
// no destination export was supplied.
func NewDestinationIndex() *DestinationIndex {
	return &DestinationIndex{
		skuToSlug:     make(map[string]string),
		barcodeToSlug: make(map[string]string),
	}
}

// LoadDestinationIndex parses a destination product export CSV. The reader
// may start with a UTF-8 byte order mark. Barcode list cells hold
// semicolon-separated values.
func LoadDestinationIndex(r io.Reader) (*DestinationIndex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[columnSlug]; !ok {
		return nil, fmt.Errorf("export is missing the %q column", columnSlug)
	}

	idx := NewDestinationIndex()
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export row: %w", err)
		}
		idx.addRow(
			cell(record, cols, columnSlug),
			cell(record, cols, columnSKU),
			cell(record, cols, columnBarcodes),
			cell(record, cols, columnTitle),
		)
	}
	return idx, nil
}

func cell(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (idx *DestinationIndex) addRow(slug, sku, barcodes, title string) {
	if slug == "" {
		return
	}
	if n := normalize.SKU(sku); n != "" {
		idx.skuToSlug[n] = slug
	}
	for _, b := range strings.Split(barcodes, ";") {
		if n := normalize.SKU(b); n != "" {
			idx.barcodeToSlug[n] = slug
		}
	}
	if n := normalize.Title(title); n != "" {
		idx.titleSlugs = append(idx.titleSlugs, TitlePair{Title: n, Slug: slug})
	}
}

// SlugBySKU looks up a destination slug by normalized SKU.
func (idx *DestinationIndex) SlugBySKU(sku string) (string, bool) {
	slug, ok := idx.skuToSlug[sku]
	return slug, ok
}

// SlugByBarcode looks up a destination slug by normalized barcode.
func (idx *DestinationIndex) SlugByBarcode(barcode string) (string, bool) {
	slug, ok := idx.barcodeToSlug[barcode]
	return slug, ok
}

// TitlePairs exposes the ordered fuzzy candidates. The matcher deliberately
// never consults these; weak title matches would produce false redirects.
// They are kept for offline review tooling.
func (idx *DestinationIndex) TitlePairs() []TitlePair {
	out := make([]TitlePair, len(idx.titleSlugs))
	copy(out, idx.titleSlugs)
	return out
}

// Size returns how many SKU and barcode keys the index holds.
func (idx *DestinationIndex) Size() (skus, barcodes int) {
	return len(idx.skuToSlug), len(idx.barcodeToSlug)
}
