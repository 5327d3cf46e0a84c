package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		typ, status, since, format string
		limit                      int
	)
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"ls"},
		Short:   "List recorded tasks",
		Example: `  aiderkit history --status failed --since 24h
  aiderkit history show task_0192...
  aiderkit history export backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := core.ParseFilter(typ, status, since, time.Now())
			if err != nil {
				return err
			}
			exec, closeStore, err := a.executor(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			tasks := exec.History(filter)
			if limit > 0 && len(tasks) > limit {
				tasks = tasks[len(tasks)-limit:]
			}
			if format != "text" {
				if tasks == nil {
					tasks = []*core.Task{}
				}
				return writeFormatted(cmd.OutOrStdout(), format, tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no tasks recorded"))
				return nil
			}

			t := newTable("", "ID", "TYPE", "CREATED", "DURATION", "DESCRIPTION")
			for _, task := range tasks {
				duration := "-"
				if task.IsTerminal() {
					duration = formatDuration(task.Duration())
				}
				t.Row(statusIcon(task.Status), string(task.ID), string(task.Type),
					task.CreatedAt.Format("2006-01-02 15:04"), duration, truncate(task.Description, 48))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "only tasks of this type")
	cmd.Flags().StringVar(&status, "status", "", "only tasks in this status (pending, running, completed, failed)")
	cmd.Flags().StringVar(&since, "since", "", "only tasks created since an RFC 3339 time or a duration ago (e.g. 24h)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most the n most recent tasks")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")

	cmd.AddCommand(a.newHistoryShowCmd(), a.newHistoryExportCmd(), a.newHistoryImportCmd())
	return cmd
}

func (a *app) newHistoryShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task with its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, closeStore, err := a.executor(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			task, err := exec.Task(core.TaskID(args[0]))
			if err != nil {
				return err
			}
			if format != "text" {
				return writeFormatted(cmd.OutOrStdout(), format, task)
			}
			printTask(cmd.OutOrStdout(), task, true)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")
	return cmd
}

func (a *app) newHistoryExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export the ledger as JSON, to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, closeStore, err := a.executor(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			data, err := exec.ExportHistory(path)
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s exported %d tasks to %s\n",
				successStyle.Render("✓"), exec.Ledger().Len(), path)
			return nil
		},
	}
}

func (a *app) newHistoryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append the tasks of an exported ledger",
		Long: `Append every task of an exported ledger. Nothing is imported if any
record is malformed or its id is already present.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, closeStore, err := a.executor(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := exec.ImportHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s imported %d tasks (%d total)\n",
				successStyle.Render("✓"), n, exec.Ledger().Len())
			return nil
		},
	}
}
