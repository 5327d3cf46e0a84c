package cmd

import (
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/clip"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/service"
)

func (a *app) newArgsCmd() *cobra.Command {
	var (
		files    fileFlags
		taskType string
		format   string
		copyArgs bool
		list     bool
	)
	cmd := &cobra.Command{
		Use:   "args [message]",
		Short: "Print the aider command line the current options compile to",
		Long: `Compile the configured options, --options-file and --set into the aider
argument list without running anything. With --type the task preset is
applied underneath the command-line overrides, exactly as run would.`,
		Example: `  aiderkit args --set model=gpt-4o --set read=CONVENTIONS.md
  aiderkit args --type refactoring -f api.go "split the handler" --copy
  aiderkit args --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				return printRegistry(cmd, format)
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			if len(files.readOnly) > 0 {
				if err := client.AddReadOnlyFiles(files.readOnly); err != nil {
					return err
				}
			}
			inv, err := a.callInvocation()
			if err != nil {
				return err
			}
			if inv.Files, err = files.editable(cmd.Context()); err != nil {
				return err
			}
			if taskType != "" {
				typ, err := core.ParseTaskType(taskType)
				if err != nil {
					return err
				}
				layered := service.Preset(typ)
				if layered == nil {
					layered = map[string]any{}
				}
				maps.Copy(layered, inv.Overrides)
				inv.Overrides = layered
			}

			argv, err := client.BuildArgs(inv)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				argv = append(argv, "--message", args[0])
			}

			switch format {
			case "text":
				fmt.Fprintln(out, clip.QuoteArgs(argv))
			default:
				if err := writeFormatted(out, format, argv); err != nil {
					return err
				}
			}

			if copyArgs {
				res, err := clip.CopyCommand(argv)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render(res.Describe()))
			}
			return nil
		},
	}
	files.register(cmd)
	cmd.Flags().StringVarP(&taskType, "type", "t", "", "apply this task type's preset")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")
	cmd.Flags().BoolVarP(&copyArgs, "copy", "c", false, "copy the command line to the clipboard")
	cmd.Flags().BoolVar(&list, "list", false, "list every option the compiler knows")
	return cmd
}

type fieldInfo struct {
	Name     string `json:"name" yaml:"name"`
	Flag     string `json:"flag" yaml:"flag"`
	Kind     string `json:"kind" yaml:"kind"`
	Category string `json:"category" yaml:"category"`
}

func printRegistry(cmd *cobra.Command, format string) error {
	reg := aider.DefaultRegistry()
	fields := reg.Fields()
	infos := make([]fieldInfo, len(fields))
	for i, f := range fields {
		infos[i] = fieldInfo{Name: f.Name, Flag: f.Flag, Kind: f.Kind.String(), Category: string(f.Category)}
	}
	if format != "text" {
		return writeFormatted(cmd.OutOrStdout(), format, infos)
	}

	t := newTable("OPTION", "FLAG", "KIND", "CATEGORY")
	for _, f := range infos {
		t.Row(f.Name, f.Flag, f.Kind, f.Category)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(fmt.Sprintf("%d options; accepted but not emitted: %v", len(infos), reg.Excluded())))
	return nil
}
