// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for Claude integration, optionally serving Prometheus metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harperreed/recovery/internal/mcp"
	"github.com/harperreed/recovery/internal/metrics"
	"github.com/spf13/cobra"
)

var mcpMetricsAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP allows AI assistants like Claude to record data, compute scores, and log
decisions through a standardized protocol. The server communicates via
stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  Add this to your Claude Desktop config (claude_desktop_config.json):

  {
    "mcpServers": {
      "recovery": {
        "command": "recovery",
        "args": ["mcp"]
      }
    }
  }

  On macOS, the config is at:
    ~/Library/Application Support/Claude/claude_desktop_config.json

AVAILABLE TOOLS:

  add_data_point      Record one day's observations from a source
  compute_score       Compute and store a day's score
  get_score           Get a score by ID or by date
  acknowledge_score   Mark a score as seen
  log_decision        Record what was done with a recommendation
  get_trend           Improving, declining, or stable
  adjustment_history  List logged decisions

AVAILABLE RESOURCES:

  recovery://policy   Category thresholds, modifiers, and signal weights

METRICS:

  --metrics-addr :9464 serves Prometheus metrics at /metrics while the
  server runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(eng)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		if mcpMetricsAddr != "" {
			stop := serveMetrics(ctx, mcpMetricsAddr)
			defer stop()
		}

		return server.Serve(ctx)
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (e.g. :9464)")
	rootCmd.AddCommand(mcpCmd)
}

// serveMetrics runs the metrics endpoint in the background. The returned
// func shuts it down.
func serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
