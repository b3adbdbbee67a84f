package migrate

import (
	"context"
	"io"
	"time"
)

// Fetcher retrieves the HTML body of a URL. Implementations own their retry
// behavior; callers treat an error as a soft failure and skip the page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// RunStore persists run and page metadata.
type RunStore interface {
	CreateRun(ctx context.Context, run Run) error
	UpdateRunStatus(ctx context.Context, runID string, status RunStatus, errText string, counters RunCounters, artifacts RunArtifacts) error
	RecordPage(ctx context.Context, page PageRecord) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListPages(ctx context.Context, runID string) ([]PageRecord, error)
}

// BlobStore writes export artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes run-completed events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for page-content records.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
