package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrich-cli/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "config.yaml"

		if _, err := os.Stat(path); err == nil && !initForce {
			return eris.Errorf("init: %s already exists (use --force to overwrite)", path)
		}

		defaults := config.Config{
			Store: config.StoreConfig{DatabaseURL: "enrich.db"},
			Perplexity: config.PerplexityConfig{
				BaseURL: "https://api.perplexity.ai",
				Model:   "sonar-pro",
			},
			Anthropic: config.AnthropicConfig{
				Model:     "claude-haiku-4-5-20251001",
				MaxTokens: 1024,
			},
			Pipeline: config.PipelineConfig{
				RowDelayMillis: 2500,
				MaxContentLen:  12000,
				LogSize:        5,
			},
			Server: config.ServerConfig{Port: 8080},
			Log:    config.LogConfig{Level: "info", Format: "json"},
		}

		out, err := yaml.Marshal(defaults)
		if err != nil {
			return eris.Wrap(err, "init: marshal defaults")
		}
		header := []byte("# enrich-cli configuration. Every value can also be set via ENRICH_* env\n# vars, e.g. ENRICH_PERPLEXITY_KEY, ENRICH_ANTHROPIC_KEY.\n")
		if err := os.WriteFile(path, append(header, out...), 0o644); err != nil {
			return eris.Wrapf(err, "init: write %s", path)
		}

		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}
