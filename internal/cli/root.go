package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencomp/resultsd/internal/defs"
	"github.com/opencomp/resultsd/internal/engine"
	"github.com/opencomp/resultsd/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	DefsDir  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the resultsd CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "resultsd",
		Short: "Records and rankings engine for timed competition results",
		Long: `resultsd maintains competition results with consistent record tags
(world, continental, national) and round rankings. Every mutation runs as
one transaction: metrics, record cascades and rankings move together.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "results.db", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.DefsDir, "defs", "", "directory of CUE definition overrides (default: built-in)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))
	cmd.AddCommand(NewRankingsCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func configureLogging(opts *RootOptions) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadDefinitions compiles the definition set the command runs against:
// the built-in defaults, or a CUE override directory when --defs is set.
func loadDefinitions(opts *RootOptions) (*defs.Definitions, error) {
	if opts.DefsDir == "" {
		return defs.Default(), nil
	}
	d, err := defs.LoadDir(opts.DefsDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load definitions", err)
	}
	return d, nil
}

// cliEnv bundles what a command needs to run: the engine, the store it
// wraps for read-only queries, and the compiled definitions.
type cliEnv struct {
	engine *engine.Engine
	store  *store.Store
	defs   *defs.Definitions
}

// openEnv opens the database and builds an engine over it. The caller
// must invoke the returned closer once done.
func openEnv(opts *RootOptions) (*cliEnv, func(), error) {
	d, err := loadDefinitions(opts)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	closer := func() {
		if err := st.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}

	eng := engine.New(st, d, engine.WithLogger(slog.Default()))
	return &cliEnv{engine: eng, store: st, defs: d}, closer, nil
}

func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	var errW io.Writer = os.Stderr
	if cmd.ErrOrStderr() != nil {
		errW = cmd.ErrOrStderr()
	}
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: errW,
		Verbose:   opts.Verbose,
	}
}
