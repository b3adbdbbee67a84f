package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if migrationPagesTotal == nil || migrationRunsTotal == nil ||
		migrationMatchesTotal == nil || migrationFetchDuration == nil ||
		httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObservePage("product")
	if val := testutil.ToFloat64(migrationPagesTotal.WithLabelValues("product")); val != 1 {
		t.Errorf("expected migrationPagesTotal{type=product} to be 1, got %f", val)
	}

	ObserveMatch("sku")
	if val := testutil.ToFloat64(migrationMatchesTotal.WithLabelValues("sku")); val != 1 {
		t.Errorf("expected migrationMatchesTotal{reason=sku} to be 1, got %f", val)
	}

	ObserveRun("succeeded")
	if val := testutil.ToFloat64(migrationRunsTotal.WithLabelValues("succeeded")); val != 1 {
		t.Errorf("expected migrationRunsTotal{status=succeeded} to be 1, got %f", val)
	}

	// Histograms and plain counters only need to not panic here.
	ObserveFetchRetry()
	ObserveFetchDuration(120 * time.Millisecond)
	ObserveHTTPRequest("GET", "/healthz", 200, 5*time.Millisecond)
}
