package enrich

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestRowEnricherMergeIsNonDestructive(t *testing.T) {
	disc := &mockDiscovery{}
	ext := &mockExtractor{fn: func(content, entity string) (model.ContactFields, error) {
		return model.ContactFields{"email": "info@acme.com", "city": "should not appear"}, nil
	}}
	e := NewRowEnricher(disc, ext, 0)

	row := model.Row{"name": "Acme", "city": "Springfield"}
	merged, outcome := e.Enrich(context.Background(), row, "name")

	assert.Equal(t, RowEnriched, outcome.Status)
	assert.Equal(t, "Acme", outcome.Entity)
	assert.Equal(t, "Springfield", row["city"], "input row must not be mutated")
	assert.NotContains(t, row, "email")

	assert.Equal(t, "info@acme.com", merged["email"])
	assert.Equal(t, "Acme", merged["name"])
	// Extracted values overwrite same-named columns on the copy.
	assert.Equal(t, "should not appear", merged["city"])
}

func TestRowEnricherSkipsBlankEntity(t *testing.T) {
	disc := &mockDiscovery{}
	ext := &mockExtractor{}
	e := NewRowEnricher(disc, ext, 0)

	row := model.Row{"name": "   ", "city": "Springfield"}
	merged, outcome := e.Enrich(context.Background(), row, "name")

	assert.Equal(t, RowSkipped, outcome.Status)
	assert.Equal(t, row, merged)
	assert.Empty(t, disc.Calls(), "skip must not hit discovery")
	assert.Zero(t, ext.Calls(), "skip must not hit extraction")
}

func TestRowEnricherDiscoveryFailureKeepsOriginal(t *testing.T) {
	disc := &mockDiscovery{fn: func(ctx context.Context, entity string) (*Discovery, error) {
		return nil, eris.New("upstream unavailable")
	}}
	ext := &mockExtractor{}
	e := NewRowEnricher(disc, ext, 0)

	row := model.Row{"name": "Acme"}
	merged, outcome := e.Enrich(context.Background(), row, "name")

	assert.Equal(t, RowFailed, outcome.Status)
	require.Error(t, outcome.Err)
	assert.Equal(t, row, merged)
	assert.Zero(t, ext.Calls())
}

func TestRowEnricherEmptyContentFails(t *testing.T) {
	disc := &mockDiscovery{fn: func(ctx context.Context, entity string) (*Discovery, error) {
		return &Discovery{Content: "   "}, nil
	}}
	e := NewRowEnricher(disc, &mockExtractor{}, 0)

	row := model.Row{"name": "Acme"}
	merged, outcome := e.Enrich(context.Background(), row, "name")

	assert.Equal(t, RowFailed, outcome.Status)
	assert.Equal(t, row, merged)
}

func TestRowEnricherExtractionFailureDegrades(t *testing.T) {
	disc := &mockDiscovery{}
	ext := &mockExtractor{fn: func(content, entity string) (model.ContactFields, error) {
		return nil, eris.New("no JSON object in response")
	}}
	e := NewRowEnricher(disc, ext, 0)

	row := model.Row{"name": "Acme", "city": "Springfield"}
	merged, outcome := e.Enrich(context.Background(), row, "name")

	// The row still counts as enriched (discovery worked), just with no
	// fields; the original values survive untouched.
	assert.Equal(t, RowEnriched, outcome.Status)
	assert.Zero(t, outcome.Fields)
	assert.Equal(t, "Acme", merged["name"])
	assert.Equal(t, "Springfield", merged["city"])
	assert.NotContains(t, merged, "email")
}

func TestRowEnricherContentCap(t *testing.T) {
	long := strings.Repeat("x", 500)
	disc := &mockDiscovery{fn: func(ctx context.Context, entity string) (*Discovery, error) {
		return &Discovery{Content: long}, nil
	}}
	var seen string
	ext := &mockExtractor{fn: func(content, entity string) (model.ContactFields, error) {
		seen = content
		return model.ContactFields{}, nil
	}}
	e := NewRowEnricher(disc, ext, 100)

	e.Enrich(context.Background(), model.Row{"name": "Acme"}, "name")
	assert.Len(t, seen, 100)
}

func TestRowEnricherSourceURLPropagates(t *testing.T) {
	disc := &mockDiscovery{fn: func(ctx context.Context, entity string) (*Discovery, error) {
		return &Discovery{Content: "about acme", SourceURL: "https://acme.com"}, nil
	}}
	e := NewRowEnricher(disc, &mockExtractor{}, 0)

	_, outcome := e.Enrich(context.Background(), model.Row{"name": "Acme"}, "name")
	assert.Equal(t, "https://acme.com", outcome.SourceURL)
}
