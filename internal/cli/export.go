package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/roadsnap/internal/geojsonio"
	"github.com/roach88/roadsnap/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
}

// ExportResult is the export command output.
type ExportResult struct {
	File     string `json:"file"`
	Lines    int    `json:"lines"`
	Finished int    `json:"finished"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <file.geojson>",
		Short: "Write lines and snap status to GeoJSON",
		Long: `Write every line in the database to a GeoJSON FeatureCollection.

Each feature keeps its imported properties and gains snap_start, snap_end and
snap_status. Endpoints a run never reached are null; snap_status is
"finished" when both endpoints are done.

Use "-" to write to stdout.

Examples:
  roadsnap export --db ./roads.db ./snapped.geojson
  roadsnap export --db ./roads.db - | jq '.features | length'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := st.Rows(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read lines", err)
	}

	toStdout := path == "-"
	var w io.Writer = cmd.OutOrStdout()
	if !toStdout {
		f, err := os.Create(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output", err)
		}
		defer f.Close()
		w = f
	}
	if err := geojsonio.Write(w, rows); err != nil {
		return WrapExitError(ExitFailure, "export failed", err)
	}
	if toStdout {
		return nil
	}

	result := ExportResult{File: path, Lines: len(rows)}
	for _, r := range rows {
		if r.Status.Finished {
			result.Finished++
		}
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d line(s) to %s (%d finished)\n", result.Lines, path, result.Finished)
	return nil
}
