package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	clocksystem "shopmigrate/internal/clock/system"
	"shopmigrate/internal/hash/sha256"
	uuidgen "shopmigrate/internal/id/uuid"
	"shopmigrate/internal/migrate"
	pubmemory "shopmigrate/internal/publisher/memory"
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

const startPage = `<html><head><title>Ana Sayfa</title></head><body>
<a href="/urun/test-urun">Test Ürün</a>
<a href="/kategori/elbise">Elbiseler</a>
<a href="/sepet">Sepet</a>
</body></html>`

const productPage = `<html><head><title>Test Ürün</title>
<script type="application/ld+json">
{"@type":"Product","name":"Test Ürün","sku":"ABC-1","offers":{"price":"199.90","priceCurrency":"TRY"}}
</script>
</head><body><h1>Test Ürün</h1></body></html>`

const categoryPage = `<html><head><title>Elbiseler</title></head><body><h1>Elbiseler</h1></body></html>`

func writeExportCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	content := "\uFEFFSlug,SKU,Barkod Listesi,İsim\ntest-urun,ABC-1,123;456,Test Ürün\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestRunner(t *testing.T) (*Runner, *storememory.RunStore, *blobmemory.BlobStore, *pubmemory.Publisher) {
	t.Helper()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://site.test":                 startPage,
		"https://site.test/urun/test-urun":  productPage,
		"https://site.test/kategori/elbise": categoryPage,
	}}
	runStore := storememory.New()
	blobStore := blobmemory.New()
	publisher := pubmemory.New()

	r := New(Deps{
		Fetcher:   fetcher,
		RunStore:  runStore,
		BlobStore: blobStore,
		Publisher: publisher,
		Hasher:    sha256.New(),
		Clock:     clocksystem.New(),
		IDs:       uuidgen.New(),
		Logger:    zap.NewNop(),
	}, Config{
		ExportPath: writeExportCSV(t),
		BlobPrefix: "runs",
	})
	return r, runStore, blobStore, publisher
}

func TestRunnerExecuteSuccess(t *testing.T) {
	ctx := context.Background()
	r, runStore, blobStore, publisher := newTestRunner(t)

	run, err := r.Submit(ctx, migrate.RunParameters{
		StartURL: "https://site.test",
		MaxPages: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, migrate.RunStatusQueued, run.Status)

	require.NoError(t, r.Execute(ctx, run))

	got, err := runStore.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, migrate.RunStatusSucceeded, got.Status)
	assert.Equal(t, 3, got.Counters.PagesCrawled)
	assert.Equal(t, 1, got.Counters.Products)
	assert.Equal(t, 1, got.Counters.Matched)
	assert.Equal(t, 0, got.Counters.Unmatched)

	assert.Equal(t, "mem://runs/"+run.ID+"/redirects.csv", got.Artifacts.RedirectsURI)
	assert.Equal(t, "mem://runs/"+run.ID+"/diagnostics.csv", got.Artifacts.DiagnosticsURI)
	assert.Equal(t, "mem://runs/"+run.ID+"/products.json", got.Artifacts.ProductsURI)

	redirects, ok := blobStore.GetObject("runs/" + run.ID + "/redirects.csv")
	require.True(t, ok)
	assert.Contains(t, string(redirects), "/urun/test-urun,/urun/test-urun")

	products, ok := blobStore.GetObject("runs/" + run.ID + "/products.json")
	require.True(t, ok)
	assert.Contains(t, string(products), `"sku": "ABC-1"`)

	pages, err := runStore.ListPages(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for _, page := range pages {
		assert.NotEmpty(t, page.ContentHash)
	}

	msgs := publisher.Messages()
	require.Len(t, msgs, 1)
	event, ok := msgs[0].Payload.(RunCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, run.ID, event.RunID)
	assert.Equal(t, migrate.RunStatusSucceeded, event.Status)
}

func TestRunnerExecuteUnreachableStart(t *testing.T) {
	ctx := context.Background()
	r, runStore, _, publisher := newTestRunner(t)

	run, err := r.Submit(ctx, migrate.RunParameters{StartURL: "https://down.test"})
	require.NoError(t, err)

	err = r.Execute(ctx, run)
	require.Error(t, err)

	got, err := runStore.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, migrate.RunStatusFailed, got.Status)
	assert.Contains(t, got.ErrorText, "fetch start url")

	msgs := publisher.Messages()
	require.Len(t, msgs, 1)
	event := msgs[0].Payload.(RunCompletedEvent)
	assert.Equal(t, migrate.RunStatusFailed, event.Status)
}

func TestRunnerSubmitValidation(t *testing.T) {
	ctx := context.Background()
	r, _, _, _ := newTestRunner(t)

	_, err := r.Submit(ctx, migrate.RunParameters{})
	assert.Error(t, err)
}

func TestRunnerSubmitAppliesDefaultBudget(t *testing.T) {
	ctx := context.Background()
	r, runStore, _, _ := newTestRunner(t)

	run, err := r.Submit(ctx, migrate.RunParameters{StartURL: "https://site.test"})
	require.NoError(t, err)
	assert.Equal(t, 500, run.Parameters.MaxPages)

	stored, err := runStore.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, stored.Parameters.MaxPages)
}
