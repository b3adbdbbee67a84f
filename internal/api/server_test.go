package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	clocksystem "shopmigrate/internal/clock/system"
	"shopmigrate/internal/hash/sha256"
	uuidgen "shopmigrate/internal/id/uuid"
	"shopmigrate/internal/migrate"
	"shopmigrate/internal/runner"
	blobmemory "shopmigrate/internal/storage/memory"
	storememory "shopmigrate/internal/store/memory"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (string, error) {
	body, ok := f.pages[rawURL]
	if !ok {
		return "", errors.New("not found")
	}
	return body, nil
}

func newTestServer(t *testing.T) (*Server, *storememory.RunStore) {
	t.Helper()

	runStore := storememory.New()
	r := runner.New(runner.Deps{
		Fetcher: &fakeFetcher{pages: map[string]string{
			"https://site.test": `<html><head><title>Ana Sayfa</title></head><body></body></html>`,
		}},
		RunStore:  runStore,
		BlobStore: blobmemory.New(),
		Hasher:    sha256.New(),
		Clock:     clocksystem.New(),
		IDs:       uuidgen.New(),
		Logger:    zap.NewNop(),
	}, runner.Config{})

	return NewServer(runStore, r, zap.NewNop()), runStore
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitMigrationValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/migrations", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing start_url", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/migrations", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubmitMigrationRunsToCompletion(t *testing.T) {
	srv, runStore := newTestServer(t)

	body := `{"start_url":"https://site.test","max_pages":5}`
	req := httptest.NewRequest(http.MethodPost, "/v1/migrations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	runID := resp["run_id"]
	require.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		run, err := runStore.GetRun(context.Background(), runID)
		return err == nil && run.Status == migrate.RunStatusSucceeded
	}, 5*time.Second, 10*time.Millisecond)

	statusReq := httptest.NewRequest(http.MethodGet, "/v1/migrations/"+runID+"/status", nil)
	statusRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(statusRec, statusReq)
	require.Equal(t, http.StatusOK, statusRec.Code)
	assert.Contains(t, statusRec.Body.String(), `"succeeded"`)

	resultReq := httptest.NewRequest(http.MethodGet, "/v1/migrations/"+runID+"/result", nil)
	resultRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resultRec, resultReq)
	require.Equal(t, http.StatusOK, resultRec.Code)

	var result struct {
		Run   migrate.Run          `json:"run"`
		Pages []migrate.PageRecord `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(resultRec.Body.Bytes(), &result))
	assert.Equal(t, runID, result.Run.ID)
	assert.Len(t, result.Pages, 1)
}

func TestGetRunStatusNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/migrations/missing/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
