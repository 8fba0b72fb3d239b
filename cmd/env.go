package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/store"
	anthropicpkg "github.com/sells-group/enrich-cli/pkg/anthropic"
	"github.com/sells-group/enrich-cli/pkg/perplexity"
)

// enrichEnv bundles the row enricher with the credentials the pipeline
// checks at Start.
type enrichEnv struct {
	Enricher *enrich.RowEnricher
	Creds    enrich.Credentials
}

// newEnrichEnv builds the production discovery/extraction clients from the
// loaded config.
func newEnrichEnv() *enrichEnv {
	perplexityClient := perplexity.NewClient(cfg.Perplexity.Key,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model),
	)
	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	discovery := enrich.NewPerplexityDiscovery(perplexityClient, cfg.Perplexity.Model)
	extractor := enrich.NewClaudeExtractor(anthropicClient, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

	return &enrichEnv{
		Enricher: enrich.NewRowEnricher(discovery, extractor, cfg.Pipeline.MaxContentLen),
		Creds: enrich.Credentials{
			DiscoveryKey:  cfg.Perplexity.Key,
			ExtractionKey: cfg.Anthropic.Key,
		},
	}
}

// newOfflineEnv builds an environment on the stub clients; no API keys
// needed, throttle-friendly for demos.
func newOfflineEnv() *enrichEnv {
	return &enrichEnv{
		Enricher: enrich.NewRowEnricher(
			&enrich.StubDiscoveryClient{Delay: 100 * time.Millisecond},
			&enrich.StubExtractionClient{},
			cfg.Pipeline.MaxContentLen,
		),
		Creds: enrich.Credentials{DiscoveryKey: "offline", ExtractionKey: "offline"},
	}
}

// validateAPIKeys checks that both downstream keys are configured for real
// mode, with a pointer at --offline.
func validateAPIKeys() error {
	var missing []string
	if cfg.Perplexity.Key == "" {
		missing = append(missing, "ENRICH_PERPLEXITY_KEY (required: web discovery)")
	}
	if cfg.Anthropic.Key == "" {
		missing = append(missing, "ENRICH_ANTHROPIC_KEY (required: field extraction)")
	}
	if len(missing) > 0 {
		return eris.Errorf("missing required API keys:\n  %s\n\nSet these env vars or use --offline for stub mode", strings.Join(missing, "\n  "))
	}
	return nil
}

// initStore opens and migrates the run-history database.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	dsn := cfg.Store.DatabaseURL
	if dsn == "" {
		dsn = "enrich.db"
	}
	st, err := store.NewSQLite(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// recordRun persists a run-history row; failures are logged, never fatal.
func recordRun(ctx context.Context, st store.Store, source string, total int, final store.RunCompletion) {
	run, err := st.CreateRun(ctx, source, total)
	if err != nil {
		zap.L().Warn("record run", zap.Error(err))
		return
	}
	if err := st.CompleteRun(ctx, run.ID, final); err != nil {
		zap.L().Warn("record run completion", zap.Error(err))
	}
}
