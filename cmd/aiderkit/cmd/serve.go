package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/api"
)

func (a *app) newServeCmd() *cobra.Command {
	var (
		addr    string
		noWatch bool
		origins []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task ledger over a read-only HTTP API",
		Long: `Serve the task ledger over HTTP. The API is read-only and reloads the
ledger whenever another aiderkit process saves it.

Endpoints:
  GET /health
  GET /metrics
  GET /api/v1/tasks?type=&status=&since=
  GET /api/v1/tasks/export
  GET /api/v1/tasks/{id}`,
		Example: `  aiderkit serve
  aiderkit serve --addr 0.0.0.0:8420 --cors-origin http://localhost:5173`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serve := a.cfg.Serve
			if cmd.Flags().Changed("addr") {
				serve.Addr = addr
			}
			if noWatch {
				serve.Watch = false
			}
			if len(origins) > 0 {
				serve.CORSOrigins = origins
			}

			store, err := a.store()
			if err != nil {
				return err
			}
			defer func() {
				if err := state.CloseLedgerStore(store); err != nil {
					a.logger.Warn("closing ledger store", "error", err)
				}
			}()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			ctx := cmd.Context()
			server, err := api.NewServer(ctx, store,
				api.WithLogger(a.logger),
				api.WithGatherer(reg),
				api.WithCORSOrigins(serve.CORSOrigins),
			)
			if err != nil {
				return fmt.Errorf("loading ledger: %w", err)
			}

			if serve.Watch {
				if err := os.MkdirAll(filepath.Dir(a.cfg.Ledger.Path), 0o755); err != nil {
					return fmt.Errorf("creating ledger directory: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s serving %s on http://%s\n",
				successStyle.Render("✓"), a.cfg.Ledger.Path, serve.Addr)

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return server.ListenAndServe(ctx, serve.Addr)
			})
			if serve.Watch {
				g.Go(func() error {
					return server.Watch(ctx, a.cfg.Ledger.Path)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from serve.addr)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the ledger file changes")
	cmd.Flags().StringArrayVar(&origins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	return cmd
}
