package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/config"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/diagnostics"
)

func (a *app) newDoctorCmd() *cobra.Command {
	var (
		host   bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that aider, the ledger and API keys are usable",
		Long: `Verify the aider executable, the task ledger, the env file and provider API
keys. With --host, also report CPU, memory, disk and load of this machine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := a.runner()
			if err != nil {
				return err
			}
			env, err := config.LoadEnvFile(a.cfg.Aider.EnvFile)
			if err != nil {
				return err
			}

			d := &diagnostics.Doctor{
				LedgerPath:  a.cfg.Ledger.Path,
				EnvFile:     a.cfg.Aider.EnvFile,
				Env:         env,
				IncludeHost: host,
				WorkDir:     a.cfg.Aider.WorkDir,
			}
			if probe, ok := runner.(diagnostics.AiderProbe); ok {
				d.Probe = probe
			}
			if store, err := a.store(); err == nil {
				defer func() { _ = state.CloseLedgerStore(store) }()
				d.Ledger = store
			} else {
				a.logger.Warn("opening ledger", "error", err)
			}

			report := d.Run(cmd.Context())
			if format != "text" {
				if err := writeFormatted(cmd.OutOrStdout(), format, report); err != nil {
					return err
				}
			} else {
				printReport(cmd, report)
			}
			if !report.OK() {
				return core.ErrExecution(core.CodeCommandFailed, "some checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&host, "host", false, "include host resource information")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")
	return cmd
}

func printReport(cmd *cobra.Command, r diagnostics.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Checking environment..."))
	fmt.Fprintln(out)
	for _, c := range r.Checks {
		fmt.Fprintf(out, "  %s %-14s %s\n", checkIcon(c.Status), c.Name, mutedStyle.Render(c.Detail))
	}
	if h := r.Host; h != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Host"))
		fmt.Fprintf(out, "  %s/%s %s\n", h.OS, h.Arch, h.Platform)
		fmt.Fprintf(out, "  cpu:    %s, %d cores / %d threads, %.0f%% busy\n", h.CPUModel, h.CPUCores, h.CPUThreads, h.CPUPercent)
		fmt.Fprintf(out, "  memory: %.0f of %.0f MB available\n", h.MemAvailableMB, h.MemTotalMB)
		if h.DiskTotalGB > 0 {
			fmt.Fprintf(out, "  disk:   %.1f of %.1f GB free\n", h.DiskFreeGB, h.DiskTotalGB)
		}
		if h.LoadAvg1 > 0 {
			fmt.Fprintf(out, "  load:   %.2f\n", h.LoadAvg1)
		}
	}
	fmt.Fprintln(out)
	if r.OK() {
		fmt.Fprintln(out, successStyle.Render("All checks passed"))
	} else {
		fmt.Fprintln(out, errorStyle.Render("Some checks failed"))
	}
}
