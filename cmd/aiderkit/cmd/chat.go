package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
)

// session builds a client and the per-call invocation for commands that talk
// to aider directly, without recording a task.
func (a *app) session(ctx context.Context, files *fileFlags) (*aider.Client, aider.Invocation, error) {
	client, err := a.client()
	if err != nil {
		return nil, aider.Invocation{}, err
	}
	inv, err := a.callInvocation()
	if err != nil {
		return nil, inv, err
	}
	if files == nil {
		return client, inv, nil
	}
	if len(files.readOnly) > 0 {
		if err := client.AddReadOnlyFiles(files.readOnly, aider.WithValidation()); err != nil {
			return nil, inv, err
		}
	}
	inv.Files, err = files.editable(ctx)
	return client, inv, err
}

func printResponse(cmd *cobra.Command, resp *aider.Response) {
	if out := resp.Output(); out != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	if resp.Usage.Found {
		fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render(fmt.Sprintf(
			"tokens: %d sent, %d received, cost $%.4f",
			resp.Usage.TokensSent, resp.Usage.TokensReceived, resp.Usage.CostUSD)))
	}
}

func (a *app) newChatCmd() *cobra.Command {
	var files fileFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive aider session with the compiled options",
		Long: `Start aider attached to this terminal with the configured options and
files, and wait for it to exit. Chat sessions are not recorded in the ledger.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, inv, err := a.session(cmd.Context(), &files)
			if err != nil {
				return err
			}
			proc, err := client.Interactive(cmd.Context(), inv)
			if err != nil {
				return err
			}
			a.logger.Debug("chat started", "pid", proc.Pid())
			return proc.Wait()
		},
	}
	files.register(cmd)
	return cmd
}

func (a *app) newSendCmd() *cobra.Command {
	var files fileFlags
	cmd := &cobra.Command{
		Use:   "send <message-file>",
		Short: "Send the contents of a message file to aider without recording a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, inv, err := a.session(cmd.Context(), &files)
			if err != nil {
				return err
			}
			if err := aider.ValidateFilePaths(args[:1]); err != nil {
				return err
			}
			resp, err := client.ExecuteFromFile(cmd.Context(), args[0], inv)
			if err != nil {
				return err
			}
			printResponse(cmd, resp)
			return nil
		},
	}
	files.register(cmd)
	return cmd
}

func (a *app) newApplyCmd() *cobra.Command {
	var files fileFlags
	cmd := &cobra.Command{
		Use:   "apply <changes-file>",
		Short: "Apply a file of LLM edits with aider, without chatting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, inv, err := a.session(cmd.Context(), &files)
			if err != nil {
				return err
			}
			if err := aider.ValidateFilePaths(args[:1]); err != nil {
				return err
			}
			resp, err := client.ApplyChanges(cmd.Context(), args[0], inv)
			if err != nil {
				return err
			}
			printResponse(cmd, resp)
			return nil
		},
	}
	files.register(cmd)
	return cmd
}

func (a *app) newRepoMapCmd() *cobra.Command {
	var files fileFlags
	cmd := &cobra.Command{
		Use:   "repo-map",
		Short: "Print aider's repository map for the current options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, inv, err := a.session(cmd.Context(), &files)
			if err != nil {
				return err
			}
			resp, err := client.ShowRepoMap(cmd.Context(), inv)
			if err != nil {
				return err
			}
			printResponse(cmd, resp)
			return nil
		},
	}
	files.register(cmd)
	return cmd
}

func (a *app) newPromptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "Print the system prompts aider would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, inv, err := a.session(cmd.Context(), nil)
			if err != nil {
				return err
			}
			resp, err := client.ShowPrompts(cmd.Context(), inv)
			if err != nil {
				return err
			}
			printResponse(cmd, resp)
			return nil
		},
	}
}

func (a *app) newUpdateCmd() *cobra.Command {
	var upgrade bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for a newer aider release, or upgrade with --upgrade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			check := client.CheckUpdate
			if upgrade {
				check = client.Upgrade
			}
			resp, err := check(cmd.Context())
			if err != nil {
				return err
			}
			printResponse(cmd, resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&upgrade, "upgrade", false, "upgrade aider in place")
	return cmd
}
