// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-seedshard.
//
// go-seedshard is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package cli implements the seedshard command line tool.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jeremyhahn/go-seedshard/internal/config"
	"github.com/jeremyhahn/go-seedshard/pkg/correlation"
	"github.com/jeremyhahn/go-seedshard/pkg/crypto/rand"
	"github.com/jeremyhahn/go-seedshard/pkg/logging"
	"github.com/jeremyhahn/go-seedshard/pkg/metrics"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Global flag names. Each is also read from SEEDSHARD_<NAME> with dashes
// replaced by underscores.
const (
	flagConfig      = "config"
	flagOutput      = "output"
	flagVerbose     = "verbose"
	flagLogFormat   = "log-format"
	flagMetricsFile = "metrics-file"
	flagRNGMode     = "rng-mode"
)

// app holds the state shared by every command of one invocation.
type app struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	readPassword func(prompt string) ([]byte, error)
	resolver     rand.Resolver

	v       *viper.Viper
	cfg     *config.Config
	logger  *logging.Logger
	printer *Printer
	run     *metrics.RunCollector
}

// Option configures the command tree. Tests use options to swap the
// filesystem, standard streams, terminal and entropy source.
type Option func(*app)

// WithFs sets the filesystem secret files are read from and written to.
func WithFs(fs afero.Fs) Option {
	return func(a *app) { a.fs = fs }
}

// WithIO sets the standard streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(a *app) {
		a.stdin = stdin
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithPasswordReader replaces the terminal passphrase prompt.
func WithPasswordReader(fn func(prompt string) ([]byte, error)) Option {
	return func(a *app) { a.readPassword = fn }
}

// WithResolver replaces the configured entropy source. The caller keeps
// ownership of r.
func WithResolver(r rand.Resolver) Option {
	return func(a *app) { a.resolver = r }
}

// WithEnv replaces os.Getenv for passphrase lookups.
func WithEnv(getenv func(string) string) Option {
	return func(a *app) { a.getenv = getenv }
}

func newApp(opts ...Option) *app {
	a := &app{
		fs:     afero.NewOsFs(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		v:      viper.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.readPassword == nil {
		a.readPassword = terminalPasswordReader(a.stderr)
	}
	return a
}

// NewRootCommand builds the seedshard command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	return newApp(opts...).rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "seedshard",
		Short: "seedshard - mnemonic secret provisioning and sharding",
		Long: `seedshard generates BIP-39 mnemonics from a secure entropy source,
derives master seeds from them and splits them into SLIP-39 shard sets
with group thresholds. Any qualifying subset of shards reconstructs the
original mnemonic.

Secret material is only ever written to standard output or to files
created with mode 0600. Prefer --out and --file over command line
arguments, which end up in shell history.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.String(flagConfig, "", "config file (YAML)")
	flags.StringP(flagOutput, "o", config.OutputText, "output format (text, json, table)")
	flags.BoolP(flagVerbose, "v", false, "verbose output")
	flags.String(flagLogFormat, "", "log format (text, json)")
	flags.String(flagMetricsFile, "", "write Prometheus metrics to this file after the command")
	flags.String(flagRNGMode, "", "entropy source (auto, software, tpm2, pkcs11)")

	a.v.SetEnvPrefix(config.EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		a.generateCommand(),
		a.validateCommand(),
		a.entropyCommand(),
		a.seedCommand(),
		a.shardCommand(),
		a.versionCommand(),
	)
	return root
}

// setup loads the configuration and builds the logger, printer and run
// metrics before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.printer = NewPrinter(cfg.Output.Format, a.stdout)

	lc := cfg.LoggerConfig()
	lc.Output = a.stderr
	if a.v.GetBool(flagVerbose) {
		lc.Level = "debug"
	}
	ctx, id := correlation.Ensure(cmd.Context())
	cmd.SetContext(ctx)
	a.logger = logging.New(lc).With(correlation.LogKey, id)

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}
	a.run = metrics.NewRunCollector(cmd.CommandPath(), Version)

	a.logger.Debug("configuration loaded",
		"config", a.v.GetString(flagConfig),
		"rng_mode", string(cfg.Entropy.Mode),
		"output", cfg.Output.Format)
	return nil
}

// loadConfig layers flags over SEEDSHARD_* variables over the config file
// over the defaults.
func (a *app) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := a.v.GetString(flagConfig); path != "" {
		cfg, err = config.LoadFs(a.fs, path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if a.v.IsSet(flagOutput) {
		cfg.Output.Format = a.v.GetString(flagOutput)
	}
	if a.v.IsSet(flagLogFormat) {
		cfg.Logging.Format = a.v.GetString(flagLogFormat)
	}
	if a.v.IsSet(flagMetricsFile) {
		cfg.Metrics.Textfile = a.v.GetString(flagMetricsFile)
	}
	if a.v.IsSet(flagRNGMode) {
		cfg.Entropy.Mode = rand.Mode(a.v.GetString(flagRNGMode))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// execute runs the command tree with args and returns the process exit
// code. Errors are printed in the selected output format.
func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)

	if a.run != nil && a.cfg != nil && a.cfg.Metrics.Enabled {
		if werr := a.run.WriteTextfile(a.cfg.Metrics.Textfile); werr != nil && a.logger != nil {
			a.logger.Warn("metrics export failed", "error", werr.Error())
		}
	}
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	printer := a.printer
	if printer == nil {
		printer = NewPrinter(a.v.GetString(flagOutput), a.stderr)
	} else {
		printer = printer.withWriter(a.stderr)
	}
	if perr := printer.PrintError(err); perr != nil {
		_ = NewPrinter(config.OutputText, a.stderr).PrintError(err)
	}
	return 1
}

// Execute runs seedshard with the process arguments and returns the exit
// code. SIGINT and SIGTERM cancel the command context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newApp().execute(ctx, os.Args[1:])
}
