package aider

import (
	"context"
	"slices"
	"time"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/fsutil"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/logging"
)

// Invocation carries per-call settings. Overrides are merged onto a copy of
// the client's options and never persist; Files are editable for this call
// only and follow the client's own files.
type Invocation struct {
	ConfigFile string
	EnvFile    string
	Files      []string
	Overrides  map[string]any
}

// Response is the captured result of one aider run.
type Response struct {
	Args     []string
	Stdout   string
	Stderr   string
	Usage    Usage
	Duration time.Duration
}

// Output returns stdout stripped of spinners and escape codes.
func (r *Response) Output() string {
	return CleanOutput(r.Stdout)
}

// Client owns an Options record plus the file lists of an aider session.
// It is not safe for concurrent use.
type Client struct {
	opts      *Options
	registry  *Registry
	runner    core.Runner
	logger    *logging.Logger
	validator *Validator
	files     []string
	readOnly  []string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithRegistry replaces the default flag registry.
func WithRegistry(r *Registry) ClientOption {
	return func(c *Client) { c.registry = r }
}

// WithValidator validates the effective options before every run.
func WithValidator(v *Validator) ClientOption {
	return func(c *Client) { c.validator = v }
}

// NewClient creates a client. A nil opts starts from NewOptions.
func NewClient(runner core.Runner, opts *Options, options ...ClientOption) *Client {
	if opts == nil {
		opts = NewOptions()
	}
	c := &Client{
		opts:     opts,
		registry: DefaultRegistry(),
		runner:   runner,
		logger:   logging.NewNop(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Options returns the client's own options record for in-place changes.
func (c *Client) Options() *Options {
	return c.opts
}

// Files returns the editable files.
func (c *Client) Files() []string {
	return slices.Clone(c.files)
}

// ReadOnlyFiles returns the read-only files.
func (c *Client) ReadOnlyFiles() []string {
	return slices.Clone(c.readOnly)
}

// FileOption adjusts how paths are added.
type FileOption func(*fileOptions)

type fileOptions struct {
	validate bool
	filter   fsutil.Filter
}

// WithValidation fails with a file error when a path does not exist.
func WithValidation() FileOption {
	return func(o *fileOptions) { o.validate = true }
}

// WithFilter drops paths not matching f.
func WithFilter(f fsutil.Filter) FileOption {
	return func(o *fileOptions) { o.filter = f }
}

func prepare(paths []string, opts []FileOption) ([]string, error) {
	var o fileOptions
	for _, fn := range opts {
		fn(&o)
	}
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if o.filter.Match(p) {
			kept = append(kept, p)
		}
	}
	if o.validate {
		if err := ValidateFilePaths(kept); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

// AddFiles appends editable files. Nothing is added if validation fails.
func (c *Client) AddFiles(paths []string, opts ...FileOption) error {
	kept, err := prepare(paths, opts)
	if err != nil {
		return err
	}
	c.files = append(c.files, kept...)
	return nil
}

// AddReadOnlyFiles appends read-only files.
func (c *Client) AddReadOnlyFiles(paths []string, opts ...FileOption) error {
	kept, err := prepare(paths, opts)
	if err != nil {
		return err
	}
	c.readOnly = append(c.readOnly, kept...)
	return nil
}

// AddFolder adds every file under root passing f as editable.
func (c *Client) AddFolder(root string, f fsutil.Filter) error {
	files, err := collect(root, f)
	if err != nil {
		return err
	}
	c.files = append(c.files, files...)
	return nil
}

// AddReadOnlyFolder adds every file under root passing f as read-only.
func (c *Client) AddReadOnlyFolder(root string, f fsutil.Filter) error {
	files, err := collect(root, f)
	if err != nil {
		return err
	}
	c.readOnly = append(c.readOnly, files...)
	return nil
}

// AddConventionsFiles appends to the conventions_files option.
func (c *Client) AddConventionsFiles(paths []string, opts ...FileOption) error {
	kept, err := prepare(paths, opts)
	if err != nil {
		return err
	}
	c.opts.ConventionsFiles = append(c.opts.ConventionsFiles, kept...)
	return nil
}

// AddReadFiles appends to the read_files option.
func (c *Client) AddReadFiles(paths []string, opts ...FileOption) error {
	kept, err := prepare(paths, opts)
	if err != nil {
		return err
	}
	c.opts.ReadFiles = append(c.opts.ReadFiles, kept...)
	return nil
}

// AddReadFilesFromFolder appends every file under root passing f to the
// read_files option.
func (c *Client) AddReadFilesFromFolder(root string, f fsutil.Filter) error {
	files, err := collect(root, f)
	if err != nil {
		return err
	}
	c.opts.ReadFiles = append(c.opts.ReadFiles, files...)
	return nil
}

// ClearReadFiles empties the read_files option.
func (c *Client) ClearReadFiles() {
	c.opts.ReadFiles = nil
}

// AddAlias registers an --alias alias:model pair.
func (c *Client) AddAlias(alias, model string) {
	c.opts.AliasSettings = append(c.opts.AliasSettings, ModelAlias{Alias: alias, Model: model})
}

func collect(root string, f fsutil.Filter) ([]string, error) {
	files, err := fsutil.Collect(root, f)
	if err != nil {
		return nil, core.ErrFile(core.CodeFileAccess, "cannot read folder "+root).
			WithCause(err).WithDetail("path", root)
	}
	return files, nil
}

// BuildArgs compiles the full argument list for inv without running anything.
func (c *Client) BuildArgs(inv Invocation) ([]string, error) {
	opts, err := c.effectiveOptions(inv)
	if err != nil {
		return nil, err
	}
	return c.buildArgs(opts, inv), nil
}

func (c *Client) effectiveOptions(inv Invocation) (*Options, error) {
	opts, err := c.opts.Merge(inv.Overrides)
	if err != nil {
		return nil, err
	}
	if c.validator != nil {
		if err := c.validator.Validate(opts); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

func (c *Client) buildArgs(opts *Options, inv Invocation) []string {
	args := c.registry.Compile(opts, slices.Concat(c.files, inv.Files), c.readOnly)
	if inv.ConfigFile != "" {
		args = append(args, "--config", inv.ConfigFile)
	}
	if inv.EnvFile != "" {
		args = append(args, "--env-file", inv.EnvFile)
	}
	return args
}

// Execute sends one message and waits for aider to finish.
func (c *Client) Execute(ctx context.Context, message string, inv Invocation) (*Response, error) {
	return c.run(ctx, inv, "--message", message)
}

// ExecuteFromFile sends the contents of a message file.
func (c *Client) ExecuteFromFile(ctx context.Context, messageFile string, inv Invocation) (*Response, error) {
	return c.run(ctx, inv, "--message-file", messageFile)
}

// ApplyChanges applies a file of LLM edits without chatting.
func (c *Client) ApplyChanges(ctx context.Context, changesFile string, inv Invocation) (*Response, error) {
	return c.run(ctx, inv, "--apply", changesFile)
}

// ShowRepoMap prints aider's repository map.
func (c *Client) ShowRepoMap(ctx context.Context, inv Invocation) (*Response, error) {
	return c.run(ctx, inv, "--show-repo-map")
}

// ShowPrompts prints the system prompts aider would use.
func (c *Client) ShowPrompts(ctx context.Context, inv Invocation) (*Response, error) {
	return c.run(ctx, inv, "--show-prompts")
}

// ListModels asks aider for the models matching provider.
func (c *Client) ListModels(ctx context.Context, provider string) (*Response, error) {
	if provider == "" {
		return nil, core.ErrValidation(core.CodeInvalidFormat, "list models needs a provider or model name fragment")
	}
	return c.exec(ctx, []string{Command, "--list-models", provider})
}

// CheckUpdate asks aider whether a newer version exists.
func (c *Client) CheckUpdate(ctx context.Context) (*Response, error) {
	return c.exec(ctx, []string{Command, "--check-update"})
}

// Upgrade upgrades aider in place.
func (c *Client) Upgrade(ctx context.Context) (*Response, error) {
	return c.exec(ctx, []string{Command, "--upgrade"})
}

// Interactive starts a chat session attached to the terminal and returns
// without waiting for it.
func (c *Client) Interactive(ctx context.Context, inv Invocation) (core.Process, error) {
	opts, err := c.effectiveOptions(inv)
	if err != nil {
		return nil, err
	}
	args := c.buildArgs(opts, inv)
	c.logger.Info("aider: starting interactive session", "args", args)
	return c.runner.Spawn(ctx, args)
}

func (c *Client) run(ctx context.Context, inv Invocation, extra ...string) (*Response, error) {
	opts, err := c.effectiveOptions(inv)
	if err != nil {
		return nil, err
	}
	args := append(c.buildArgs(opts, inv), extra...)
	if opts.Verbose != nil && *opts.Verbose {
		c.logger.Info("aider: executing", "args", args)
	}
	return c.exec(ctx, args)
}

func (c *Client) exec(ctx context.Context, args []string) (*Response, error) {
	c.logger.Debug("aider: invoking", "args", args)
	result, err := c.runner.Run(ctx, args)
	if err != nil {
		return nil, err
	}
	resp := &Response{
		Args:     args,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		Duration: result.Duration,
		Usage:    ParseUsage(result.Stdout + result.Stderr),
	}
	if resp.Usage.Found {
		c.logger.Info("aider: usage",
			"tokens_sent", resp.Usage.TokensSent,
			"tokens_received", resp.Usage.TokensReceived,
			"cost_usd", resp.Usage.CostUSD,
		)
	}
	return resp, nil
}
