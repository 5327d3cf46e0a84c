package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/service"
)

func (a *app) newRunCmd() *cobra.Command {
	var (
		files fileFlags
		quiet bool
	)
	cmd := &cobra.Command{
		Use:   "run <type> <description...>",
		Short: "Run one typed task through aider",
		Long: `Run one task and record it in the ledger.

Types: coding, refactoring, debugging, documentation, test_generation.
Each type applies its preset options first; --options-file and --set win
over the preset.`,
		Example: `  aiderkit run coding "add a --dry-run flag" -f main.go
  aiderkit run test-generation "cover the parser" -f parser.go -r parser_test.go`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := core.ParseTaskType(args[0])
			if err != nil {
				return err
			}
			description := strings.Join(args[1:], " ")
			return a.withExecutor(cmd.Context(), &files, func(exec *service.TaskExecutor, editable []string, overrides map[string]any) error {
				task, runErr := exec.Run(cmd.Context(), typ, description, editable, overrides)
				if task != nil {
					printTask(cmd.OutOrStdout(), task, !quiet)
				}
				return runErr
			})
		},
	}
	files.register(cmd)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print aider's output")
	return cmd
}

func (a *app) newMultiCmd() *cobra.Command {
	var (
		files         fileFlags
		checkpoints   []int
		checkpointAll bool
		quiet         bool
	)
	cmd := &cobra.Command{
		Use:   "multi <step> <step...>",
		Short: "Run a multi-step task, one aider message per step",
		Long: `Run each step as its own aider message, in order, with the same files
and options. The first failing step fails the task. Steps chosen with
--checkpoint (1-based) have their result recorded as they finish.`,
		Example: `  aiderkit multi "add the model" "wire the handler" "write tests" --checkpoint 1,3 -f api.go`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := buildSteps(args, checkpoints, checkpointAll)
			if err != nil {
				return err
			}
			return a.withExecutor(cmd.Context(), &files, func(exec *service.TaskExecutor, editable []string, overrides map[string]any) error {
				task, runErr := exec.MultiStep(cmd.Context(), steps, editable, overrides)
				if task != nil {
					printTask(cmd.OutOrStdout(), task, !quiet)
				}
				return runErr
			})
		},
	}
	files.register(cmd)
	cmd.Flags().IntSliceVar(&checkpoints, "checkpoint", nil, "1-based step numbers to checkpoint")
	cmd.Flags().BoolVar(&checkpointAll, "checkpoint-all", false, "checkpoint every step")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print aider's output")
	return cmd
}

func buildSteps(descriptions []string, checkpoints []int, all bool) ([]core.Step, error) {
	steps := make([]core.Step, len(descriptions))
	for i, d := range descriptions {
		steps[i] = core.Step{Description: d, Checkpoint: all}
	}
	for _, n := range checkpoints {
		if n < 1 || n > len(steps) {
			return nil, core.ErrValidation(core.CodeInvalidChoice,
				fmt.Sprintf("checkpoint %d out of range (1-%d)", n, len(steps)))
		}
		steps[n-1].Checkpoint = true
	}
	return steps, nil
}

// withExecutor wires the client, read-only files and ledger, then calls fn
// with the editable files and the command-line option overrides.
func (a *app) withExecutor(ctx context.Context, files *fileFlags, fn func(*service.TaskExecutor, []string, map[string]any) error) error {
	overrides, err := a.overrides()
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}
	if len(files.readOnly) > 0 {
		if err := client.AddReadOnlyFiles(files.readOnly, aider.WithValidation()); err != nil {
			return err
		}
	}
	editable, err := files.editable(ctx)
	if err != nil {
		return err
	}

	exec, closeStore, err := a.executor(ctx, client)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(exec, editable, overrides)
}
