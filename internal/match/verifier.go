package match

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopmigrate/internal/migrate"
)

// Verifier checks whether a redirect target exists on the destination site.
// Failures are reported as data values, never as errors.
type Verifier struct {
	base   string
	client *http.Client
}

// NewVerifier builds a Verifier for the destination base URL. Returns nil
// when base is empty so callers can skip verification entirely.
func NewVerifier(base string, timeout time.Duration) *Verifier {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Verifier{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}
}

// Exists probes base+targetPath with a HEAD request, falling back to GET.
// Returns "ok", "status_<code>" or "error".
func (v *Verifier) Exists(ctx context.Context, targetPath string) string {
	if targetPath == "" {
		return migrate.ExistsUnknown
	}
	checkURL := v.base + targetPath

	status, err := v.probe(ctx, http.MethodHead, checkURL)
	if err == nil && (status == http.StatusOK || status == http.StatusMovedPermanently || status == http.StatusFound) {
		return migrate.ExistsOK
	}

	status, err = v.probe(ctx, http.MethodGet, checkURL)
	if err != nil {
		return migrate.ExistsError
	}
	if status == http.StatusOK {
		return migrate.ExistsOK
	}
	return fmt.Sprintf("status_%d", status)
}

func (v *Verifier) probe(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
