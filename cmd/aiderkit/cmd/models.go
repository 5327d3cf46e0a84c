package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

func (a *app) newModelsCmd() *cobra.Command {
	var (
		remote bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "models [provider]",
		Short: "List the model catalogue, or ask aider with --remote",
		Example: `  aiderkit models anthropic
  aiderkit models --remote gpt-4
  aiderkit models info claude-3-5-sonnet-20241022`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			if remote {
				client, err := a.client()
				if err != nil {
					return err
				}
				resp, err := client.ListModels(cmd.Context(), name)
				if err != nil {
					return err
				}
				printResponse(cmd, resp)
				return nil
			}

			var provider aider.Provider
			if name != "" {
				p, ok := aider.ParseProvider(name)
				if !ok {
					return core.ErrValidation(core.CodeInvalidChoice,
						fmt.Sprintf("unknown provider %q (known: %s)", name, providerList()))
				}
				provider = p
			}
			return printCatalogue(cmd, provider, format)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "run aider --list-models with the argument as a name fragment")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")
	cmd.AddCommand(newModelInfoCmd())
	return cmd
}

func providerList() string {
	names := make([]string, 0, len(aider.Providers()))
	for _, p := range aider.Providers() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func printCatalogue(cmd *cobra.Command, provider aider.Provider, format string) error {
	var infos []aider.ModelInfo
	for _, name := range aider.Models(provider) {
		if info, ok := aider.LookupModel(name); ok {
			infos = append(infos, info)
		}
	}
	if format != "text" {
		return writeFormatted(cmd.OutOrStdout(), format, infos)
	}

	t := newTable("MODEL", "PROVIDER", "CONTEXT", "$/M IN", "$/M OUT", "NOTES")
	for _, m := range infos {
		t.Row(m.Name, string(m.Provider), fmt.Sprintf("%d", m.ContextWindow),
			fmt.Sprintf("%.3g", m.Cost.Input), fmt.Sprintf("%.3g", m.Cost.Output), modelNotes(m))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func modelNotes(m aider.ModelInfo) string {
	var notes []string
	if m.Reasoning {
		notes = append(notes, "reasoning")
	}
	if m.Vision {
		notes = append(notes, "vision")
	}
	for _, useCase := range slices.Sorted(maps.Keys(aider.RecommendedModels)) {
		if aider.RecommendedModels[useCase] == m.Name {
			notes = append(notes, strings.ReplaceAll(useCase, "_", " "))
		}
	}
	return strings.Join(notes, ", ")
}

func newModelInfoCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "info <model>",
		Short: "Show catalogue details for one model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, ok := aider.LookupModel(args[0])
			if !ok {
				err := core.ErrNotFound("model", args[0])
				if suggestions := aider.SuggestModels(args[0], 3); len(suggestions) > 0 {
					err.Message += "; did you mean " + strings.Join(suggestions, ", ") + "?"
				}
				return err
			}
			if format != "text" {
				return writeFormatted(cmd.OutOrStdout(), format, info)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(info.Name))
			fmt.Fprintf(out, "  provider:       %s\n", info.Provider)
			fmt.Fprintf(out, "  context window: %d tokens\n", info.ContextWindow)
			fmt.Fprintf(out, "  cost:           $%.3g in / $%.3g out per million tokens\n", info.Cost.Input, info.Cost.Output)
			if notes := modelNotes(info); notes != "" {
				fmt.Fprintf(out, "  notes:          %s\n", notes)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")
	return cmd
}
