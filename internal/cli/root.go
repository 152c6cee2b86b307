package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/idsync/internal/config"
	"github.com/roach88/idsync/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose        bool
	Format         string // "json" | "text"
	ConfigPath     string
	LogLevel       string
	Ledger         string
	History        string
	StrictChecksum bool

	// Resolved in PersistentPreRunE.
	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the idsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "idsync",
		Short:   "idsync - stable model ids for generated persistence code",
		Long:    "Assigns and preserves model ids and uids for entities, properties, indexes and relations across renames, additions and deletions.",
		Version: ir.ToolVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging (same as --log-level debug)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Ledger, "ledger", "", "ledger file (default <model>/"+config.DefaultLedgerName+")")
	cmd.PersistentFlags().StringVar(&opts.History, "history", "", "sync history database (disabled when empty)")
	cmd.PersistentFlags().BoolVar(&opts.StrictChecksum, "strict-checksum", false, "reject uids without a valid embedded checksum")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// resolve loads the config file and applies flag overrides on top of it.
// Flags only win when set explicitly.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return o.failEarly(cmd, ErrCodeConfig, err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("ledger") {
		cfg.Ledger = o.Ledger
	}
	if flags.Changed("history") {
		cfg.History = o.History
	}
	if flags.Changed("strict-checksum") {
		cfg.StrictChecksum = o.StrictChecksum
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}

	// Validate format flag
	if !isValidFormat(cfg.Format) {
		return o.failEarly(cmd, ErrCodeConfig, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	if err := cfg.Validate(); err != nil {
		return o.failEarly(cmd, ErrCodeConfig, err)
	}

	o.Format = cfg.Format
	o.cfg = cfg
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	return nil
}

// failEarly reports a setup error before any command-specific formatter
// exists. Text output goes to stderr.
func (o *RootOptions) failEarly(cmd *cobra.Command, code string, err error) error {
	format := o.Format
	if !isValidFormat(format) {
		format = "text"
	}
	f := &OutputFormatter{Format: format, Writer: cmd.ErrOrStderr()}
	if format == "json" {
		f.Writer = cmd.OutOrStdout()
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "configuration error", err)
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format: o.Format,
		Writer: cmd.OutOrStdout(),
	}
}

// modelDir returns the model directory: the positional argument when
// given, else the configured one.
func (o *RootOptions) modelDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return o.cfg.Model
}

// ledgerPath returns the ledger for modelDir. An explicit ledger (flag or
// config) wins over the default location inside the model directory.
func (o *RootOptions) ledgerPath(modelDir string) string {
	if o.cfg.Ledger != "" {
		return o.cfg.Ledger
	}
	c := *o.cfg
	c.Model = modelDir
	return c.LedgerPath()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
