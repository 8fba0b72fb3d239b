package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// RowStatus classifies the outcome of enriching one row.
type RowStatus string

const (
	RowEnriched RowStatus = "enriched" // discovery succeeded; zero or more fields merged
	RowSkipped  RowStatus = "skipped"  // blank entity name, no lookup attempted
	RowFailed   RowStatus = "failed"   // discovery failed, original row kept
)

// RowOutcome reports what happened to a single row.
type RowOutcome struct {
	Index     int
	Entity    string
	Status    RowStatus
	Fields    int
	SourceURL string
	Err       error
}

// RowEnricher combines discovery and extraction for a single row. The input
// row is never mutated: skipped and failed rows pass through as-is, enriched
// rows are merged onto a copy.
type RowEnricher struct {
	discovery     DiscoveryClient
	extractor     ExtractionClient
	maxContentLen int
}

// NewRowEnricher creates a RowEnricher. maxContentLen caps the content
// handed to the extraction client (<=0 uses 12000).
func NewRowEnricher(d DiscoveryClient, x ExtractionClient, maxContentLen int) *RowEnricher {
	if maxContentLen <= 0 {
		maxContentLen = 12000
	}
	return &RowEnricher{discovery: d, extractor: x, maxContentLen: maxContentLen}
}

// Enrich processes one row: resolve the entity name from entityCol, discover
// web content, extract fields, and merge them onto a copy of the row.
// Extracted fields overwrite same-named columns; everything else is
// preserved. Extraction failures degrade to zero fields — the row is never
// dropped or left in a partial state.
func (e *RowEnricher) Enrich(ctx context.Context, row model.Row, entityCol string) (model.Row, RowOutcome) {
	entity := strings.TrimSpace(row[entityCol])
	if entity == "" {
		return row, RowOutcome{Status: RowSkipped}
	}

	disc, err := e.discovery.Discover(ctx, entity)
	if err != nil {
		return row, RowOutcome{Status: RowFailed, Entity: entity, Err: err}
	}
	if disc == nil || strings.TrimSpace(disc.Content) == "" {
		return row, RowOutcome{Status: RowFailed, Entity: entity, Err: eris.New("enrich: empty discovery content")}
	}

	content := disc.Content
	if len(content) > e.maxContentLen {
		content = content[:e.maxContentLen]
	}

	fields, err := e.extractor.Extract(ctx, content, entity)
	if err != nil {
		// Parse or client failure: the row keeps its original fields.
		zap.L().Warn("enrich: extraction failed, keeping original row",
			zap.String("entity", entity),
			zap.Error(err),
		)
		fields = nil
	}

	merged := row.Clone()
	for k, v := range fields {
		merged[k] = v
	}

	return merged, RowOutcome{
		Status:    RowEnriched,
		Entity:    entity,
		Fields:    len(fields),
		SourceURL: disc.SourceURL,
	}
}
