package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/adapters/cli"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/config"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/logging"
)

// Version info, set via SetVersion.
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersion records build information for the version command.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

// RunnerFactory builds the process runner for aider. Tests substitute a
// scripted runner.
type RunnerFactory func(cfg cli.Config, logger *logging.Logger) core.Runner

func defaultRunner(cfg cli.Config, logger *logging.Logger) core.Runner {
	return cli.NewProcessRunner(cfg, logger)
}

// app holds the state shared by the commands of one invocation.
type app struct {
	v           *viper.Viper
	cfgFile     string
	optionsFile string
	sets        []string
	newRunner   RunnerFactory

	cfg    *config.Config
	logger *logging.Logger
}

// Option adjusts the root command, mostly for tests.
type Option func(*app)

// WithRunnerFactory replaces how the aider runner is built.
func WithRunnerFactory(f RunnerFactory) Option {
	return func(a *app) { a.newRunner = f }
}

// NewRootCmd builds the full command tree with its own viper instance.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{v: viper.New(), newRunner: defaultRunner}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "aiderkit",
		Short: "Typed task runner and argument compiler for the aider CLI",
		Long: `aiderkit builds aider command lines from typed options, runs typed tasks
(coding, refactoring, debugging, documentation, test generation, multi-step)
with per-type presets, and keeps a ledger of every task it ran.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipsConfig(cmd) {
				return nil
			}
			return a.load(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: .aiderkit.yaml, then ~/.config/aiderkit/.aiderkit.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (auto, text, json)")
	pf.String("aider-path", "", "aider executable, optionally with a launcher prefix")
	pf.String("work-dir", "", "directory aider runs in")
	pf.String("env-file", "", "dotenv file passed to aider as AIDER_* variables")
	pf.String("aider-config", "", "aider config file passed as --config")
	pf.String("timeout", "", "timeout for a captured aider run (e.g. 30m)")
	pf.String("ledger", "", "task ledger path (.json, or .db/.sqlite for SQLite)")
	pf.String("ledger-backend", "", "ledger backend (json, sqlite); default by extension")
	pf.Bool("strict-models", false, "reject model names missing from the catalogue")
	pf.StringVar(&a.optionsFile, "options-file", "", "YAML or JSON file of aider options")
	pf.StringArrayVar(&a.sets, "set", nil, "aider option override, name=value (repeatable)")

	for key, flag := range map[string]string{
		"log.level":           "log-level",
		"log.format":          "log-format",
		"aider.path":          "aider-path",
		"aider.work_dir":      "work-dir",
		"aider.env_file":      "env-file",
		"aider.config_file":   "aider-config",
		"aider.timeout":       "timeout",
		"aider.strict_models": "strict-models",
		"ledger.path":         "ledger",
		"ledger.backend":      "ledger-backend",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		a.newRunCmd(),
		a.newMultiCmd(),
		a.newArgsCmd(),
		a.newChatCmd(),
		a.newSendCmd(),
		a.newApplyCmd(),
		a.newRepoMapCmd(),
		a.newPromptsCmd(),
		a.newUpdateCmd(),
		a.newHistoryCmd(),
		a.newModelsCmd(),
		a.newServeCmd(),
		a.newDoctorCmd(),
		a.newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", core.MessageOf(err))
	}
	return err
}

// skipsConfig reports whether cmd runs without loading configuration.
func skipsConfig(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "init", "help":
		return true
	}
	return false
}

func (a *app) load(logOut io.Writer) error {
	loader := config.NewLoaderWithViper(a.v)
	if a.cfgFile != "" {
		loader.WithConfigFile(a.cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logOut,
	})
	if used := loader.ConfigFile(); used != "" {
		a.logger.Debug("config loaded", "path", used)
	}
	return nil
}
