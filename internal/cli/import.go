package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/roadsnap/internal/config"
	"github.com/roach88/roadsnap/internal/geojsonio"
	"github.com/roach88/roadsnap/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
	IDField  string
	NoClean  bool
}

// ImportResult is the import command output.
type ImportResult struct {
	File    string `json:"file"`
	Lines   int    `json:"lines"`
	Skipped int    `json:"skipped"`
	Trimmed int    `json:"trimmed"`
	Nulled  int    `json:"nulled"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file.geojson>",
		Short: "Load road lines from GeoJSON",
		Long: `Load a GeoJSON FeatureCollection of LineString and MultiLineString
features into the database, creating it if needed.

Line ids come from the id property (OBJECTID by default), else the feature
id, else the next free integer. Existing lines with the same id are replaced;
their snap status is kept. String properties are trimmed and blanks become
null unless --no-clean is given.

Examples:
  roadsnap import --db ./roads.db ./centerlines.geojson
  roadsnap import --db ./roads.db ./centerlines.geojson --id-field SEGID`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.IDField, "id-field", geojsonio.DefaultIDField, "property holding the line id")
	cmd.Flags().BoolVar(&opts.NoClean, "no-clean", false, "keep string properties as they are")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	log := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	var overrides []config.Option
	if cmd.Flags().Changed("id-field") {
		overrides = append(overrides, config.WithOverride("import.id_field", opts.IDField))
	}
	if opts.NoClean {
		overrides = append(overrides, config.WithOverride("import.clean", false))
	}
	cfg, err := loadConfig(opts.RootOptions, overrides...)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer f.Close()

	col, err := geojsonio.Read(f, geojsonio.Options{
		IDField: cfg.Import.IDField,
		Clean:   cfg.Import.Clean,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read geojson", err)
	}
	if col.Skipped > 0 {
		log.Warn("features without line geometry skipped", "count", col.Skipped)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	err = st.WithTx(ctx, func(tx *sql.Tx) error {
		for _, line := range col.Lines {
			if err := st.WriteTx(ctx, tx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}
	log.Info("lines imported", "file", path, "lines", len(col.Lines), "db", opts.Database)

	result := ImportResult{
		File:    path,
		Lines:   len(col.Lines),
		Skipped: col.Skipped,
		Trimmed: col.Cleaned.Trimmed,
		Nulled:  col.Cleaned.Nulled,
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Imported %d line(s) from %s\n", result.Lines, path)
	if result.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped:  %d non-line feature(s)\n", result.Skipped)
	}
	if cfg.Import.Clean {
		fmt.Fprintf(w, "  Trimmed:  %d value(s)\n", result.Trimmed)
		fmt.Fprintf(w, "  Nulled:   %d blank value(s)\n", result.Nulled)
	}
	return nil
}
