package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/adapters/cli"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/config"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/fsutil"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/service"
)

// fileFlags are the file selection flags shared by run, multi, args and chat.
type fileFlags struct {
	files      []string
	readOnly   []string
	folders    []string
	extensions []string
	exclude    []string
}

func (f *fileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.files, "file", "f", nil, "editable file (repeatable)")
	cmd.Flags().StringArrayVarP(&f.readOnly, "read", "r", nil, "read-only file (repeatable)")
	cmd.Flags().StringArrayVar(&f.folders, "folder", nil, "add every matching file under this folder (repeatable)")
	cmd.Flags().StringSliceVar(&f.extensions, "ext", nil, "with --folder, only these extensions (e.g. .go,.md)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "with --folder, skip these directory or file names")
}

func (f *fileFlags) filter() fsutil.Filter {
	return fsutil.Filter{Extensions: f.extensions, Exclude: f.exclude}
}

// editable returns the explicit files plus everything found under the folders.
func (f *fileFlags) editable(ctx context.Context) ([]string, error) {
	files := append([]string{}, f.files...)
	if len(f.folders) == 0 {
		return files, nil
	}
	found, err := fsutil.CollectAll(ctx, f.folders, f.filter())
	if err != nil {
		return nil, err
	}
	return append(files, found...), nil
}

// parseSets turns name=value pairs into an override layer. A name given more
// than once collects its values into a list.
func parseSets(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
		if !ok || name == "" {
			return nil, core.ErrValidation(core.CodeInvalidFormat,
				fmt.Sprintf("--set expects name=value, got %q", pair))
		}
		switch prev := out[name].(type) {
		case nil:
			out[name] = value
		case string:
			out[name] = []string{prev, value}
		case []string:
			out[name] = append(prev, value)
		}
	}
	return out, nil
}

// overrides returns the options that sit above the config file: the options
// file, then --set pairs. They travel as per-call overrides so they also win
// over task presets.
func (a *app) overrides() (map[string]any, error) {
	out := map[string]any{}
	if a.optionsFile != "" {
		fromFile, err := config.LoadOptionsFile(a.optionsFile)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, fromFile)
	}
	sets, err := parseSets(a.sets)
	if err != nil {
		return nil, err
	}
	maps.Copy(out, sets)
	return out, nil
}

// runner builds the process runner from the aider config section.
func (a *app) runner() (core.Runner, error) {
	timeout, err := a.cfg.Aider.TimeoutDuration()
	if err != nil {
		return nil, core.ErrConfiguration(core.CodeInvalidFormat, "invalid aider.timeout").WithCause(err)
	}
	env, err := config.LoadEnvFile(a.cfg.Aider.EnvFile)
	if err != nil {
		return nil, err
	}
	return a.newRunner(cli.Config{
		Path:     a.cfg.Aider.Path,
		WorkDir:  a.cfg.Aider.WorkDir,
		Timeout:  timeout,
		ExtraEnv: env,
	}, a.logger), nil
}

// client builds an aider client from the config file options.
func (a *app) client() (*aider.Client, error) {
	opts, err := a.cfg.AiderOptions()
	if err != nil {
		return nil, err
	}
	runner, err := a.runner()
	if err != nil {
		return nil, err
	}

	clientOpts := []aider.ClientOption{aider.WithLogger(a.logger)}
	if a.cfg.Aider.Validate {
		v := aider.NewValidator()
		if a.cfg.Aider.StrictModels {
			v = v.WithStrictModels()
		}
		clientOpts = append(clientOpts, aider.WithValidator(v))
	}
	return aider.NewClient(runner, opts, clientOpts...), nil
}

// invocation is the per-call part every command shares.
func (a *app) invocation() aider.Invocation {
	return aider.Invocation{ConfigFile: a.cfg.Aider.ConfigFile}
}

// callInvocation is invocation plus the command-line overrides.
func (a *app) callInvocation() (aider.Invocation, error) {
	inv := a.invocation()
	overrides, err := a.overrides()
	if err != nil {
		return inv, err
	}
	inv.Overrides = overrides
	return inv, nil
}

// store opens the configured ledger store. Callers close it with
// state.CloseLedgerStore.
func (a *app) store() (core.LedgerStore, error) {
	backend, err := state.ResolveBackend(a.cfg.Ledger.Backend, a.cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	return state.NewLedgerStore(backend, a.cfg.Ledger.Path)
}

// executor opens the ledger and wraps client in a task executor that saves
// to it. Metrics go to a private registry; the CLI has nothing to scrape them.
func (a *app) executor(ctx context.Context, client *aider.Client) (*service.TaskExecutor, func(), error) {
	store, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() { _ = state.CloseLedgerStore(store) }

	exec, err := service.OpenTaskExecutor(ctx, client, store,
		service.WithLogger(a.logger),
		service.WithMetrics(service.NewMetrics(prometheus.NewRegistry())),
		service.WithInvocation(a.invocation()),
	)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return exec, closeStore, nil
}

// writeFormatted renders v as json or yaml.
func writeFormatted(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return core.ErrValidation(core.CodeInvalidChoice,
		fmt.Sprintf("unknown format %q (use text, json or yaml)", format))
}
