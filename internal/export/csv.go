// Package export renders redirect maps and diagnostics as CSV artifacts in
// the destination platform's import format.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"shopmigrate/internal/migrate"
)

// utf8BOM makes the destination platform's importer (and spreadsheet tools)
// decode Turkish characters correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Redirect CSV column headers expected by the destination importer.
var redirectHeader = []string{
	"ID",
	"Kaynak Adres",
	"Yönlendirilecek Adres",
	"Geçici Yönlendirme (302)",
	"Silindi mi?",
}

var diagnosticsHeader = []string{
	"from_url",
	"to_url",
	"type",
	"reason",
	"confidence",
	"exists_on_ikas",
}

// reviewThreshold is the confidence below which a product match needs a
// human look.
const reviewThreshold = 0.8

// RedirectCSV encodes one row per crawled page. Source and target are paths
// with a leading slash; unmatched pages keep an empty target. All redirects
// are permanent and none are deletions.
func RedirectCSV(entries []migrate.RedirectEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(redirectHeader); err != nil {
		return nil, fmt.Errorf("write redirect header: %w", err)
	}
	for _, e := range entries {
		row := []string{"", leadingSlash(e.FromPath), leadingSlash(e.ToPath), "false", "false"}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write redirect row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush redirect csv: %w", err)
	}
	return buf.Bytes(), nil
}

// DiagnosticsCSV encodes the human-review report: product pages whose match
// confidence is below the review threshold or whose destination existence is
// not confirmed.
func DiagnosticsCSV(diags []migrate.DiagnosticEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(diagnosticsHeader); err != nil {
		return nil, fmt.Errorf("write diagnostics header: %w", err)
	}
	for _, d := range diags {
		if !NeedsReview(d) {
			continue
		}
		row := []string{
			d.FromURL,
			d.ToURL,
			string(d.PageType),
			string(d.Reason),
			strconv.FormatFloat(d.Confidence, 'f', -1, 64),
			d.Exists,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write diagnostics row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush diagnostics csv: %w", err)
	}
	return buf.Bytes(), nil
}

// NeedsReview reports whether a diagnostic entry belongs in the review file.
func NeedsReview(d migrate.DiagnosticEntry) bool {
	if d.PageType != migrate.PageTypeProduct {
		return false
	}
	return d.Confidence < reviewThreshold || d.Exists != migrate.ExistsOK
}

func leadingSlash(p string) string {
	if p == "" {
		return ""
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}
