package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	servePort    int
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control API",
	Long: `Serves the pipeline control surface: upload a CSV table, then drive it
with start/pause/stop, poll status (including the rolling log), and download
the enriched result.

  POST /tables           CSV body, replaces the current table
  POST /pipeline/start   start or resume
  POST /pipeline/pause   pause after the in-flight row
  POST /pipeline/stop    abandon the run, reset to row 0
  GET  /pipeline/status  state, progress, cursor, log
  GET  /pipeline/result  enriched CSV (completed runs only)
  GET  /runs             run history`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var env *enrichEnv
		if serveOffline {
			env = newOfflineEnv()
		} else {
			if err := validateAPIKeys(); err != nil {
				return err
			}
			env = newEnrichEnv()
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rowDelay := time.Duration(cfg.Pipeline.RowDelayMillis) * time.Millisecond
		if serveOffline {
			rowDelay = 0
		}
		srv := newServer(ctx, env, st, rowDelay, cfg.Pipeline.LogSize)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.routes(),
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			zap.L().Info("shutting down server")
			return httpSrv.Shutdown(cmd.Context())
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "use stub clients (no API keys needed)")
	rootCmd.AddCommand(serveCmd)
}
