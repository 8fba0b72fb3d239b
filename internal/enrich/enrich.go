// Package enrich implements the row-by-row contact enrichment pipeline:
// entity-column detection, per-row web discovery and LLM extraction,
// pause/resume/stop control, and result aggregation.
package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Discovery is the raw web content believed to describe an entity, plus the
// URL it came from (used for logging only).
type Discovery struct {
	Content   string
	SourceURL string
}

// DiscoveryClient looks up an entity on the web. Calls may take several
// seconds and may fail; the pipeline never retries — a failure is recorded
// as a skipped row.
type DiscoveryClient interface {
	Discover(ctx context.Context, entity string) (*Discovery, error)
}

// ExtractionClient turns raw content about an entity into structured contact
// fields. Callers cap the content length before handing it over.
type ExtractionClient interface {
	Extract(ctx context.Context, content, entity string) (model.ContactFields, error)
}

// State is the pipeline lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StatePaused     State = "paused"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Credentials holds the opaque secrets for the two downstream clients.
// Start only checks presence; validity is established out of band.
type Credentials struct {
	DiscoveryKey  string
	ExtractionKey string
}

var (
	// ErrMissingCredentials is returned by Start when either downstream
	// client credential is absent.
	ErrMissingCredentials = eris.New("enrich: missing client credentials")

	// ErrEmptyTable is returned by Start when the input table has no rows.
	ErrEmptyTable = eris.New("enrich: input table has no rows")
)
