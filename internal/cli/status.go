package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/store"
	"github.com/roach88/roadsnap/internal/topology"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
}

// StatusResult is the status command output.
type StatusResult struct {
	Stats   store.Stats      `json:"stats"`
	Network topology.Summary `json:"network"`
	LastRun *store.RunRecord `json:"last_run,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show line counts and the last snap run",
		Long: `Show how many lines the database holds, how many a snap run has
reached, how many are finished, how connected the network is, and the
summary of the most recent run.

Examples:
  roadsnap status --db ./roads.db
  roadsnap status --db ./roads.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
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
	stats, err := st.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read stats", err)
	}
	network, err := networkSummary(ctx, st)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to analyze network", err)
	}
	last, ok, err := st.LastRun(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read run history", err)
	}

	result := StatusResult{Stats: stats, Network: network}
	if ok {
		result.LastRun = &last
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Database: %s\n", opts.Database)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Lines ===")
	fmt.Fprintf(w, "  Total:     %d\n", stats.Lines)
	fmt.Fprintf(w, "  Edited:    %d\n", stats.Edited)
	fmt.Fprintf(w, "  Tracked:   %d\n", stats.Tracked)
	fmt.Fprintf(w, "  Finished:  %d\n", stats.Finished)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Network ===")
	fmt.Fprintf(w, "  Nodes:       %d\n", network.Nodes)
	fmt.Fprintf(w, "  Components:  %d\n", network.Components)
	fmt.Fprintf(w, "  Dangles:     %d\n", network.Dangles)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Last Run ===")
	if !ok {
		fmt.Fprintln(w, "  (no runs)")
		return nil
	}
	fmt.Fprintf(w, "  ID:             %s\n", last.ID)
	fmt.Fprintf(w, "  Started:        %s\n", last.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  Radius:         %g\n", last.Radius)
	fmt.Fprintf(w, "  Deleted:        %d\n", last.Deleted)
	fmt.Fprintf(w, "  Multipart:      %d\n", last.MultipartWarnings)
	fmt.Fprintf(w, "  Snapped pairs:  %d\n", last.SnappedPairs)
	fmt.Fprintf(w, "  Neighborhoods:  %d (%d unresolved)\n", last.Neighborhoods, last.UnresolvedNeighborhoods)
	return nil
}

// networkSummary analyzes the endpoint graph of every stored line.
func networkSummary(ctx context.Context, st *store.Store) (topology.Summary, error) {
	rows, err := st.Rows(ctx)
	if err != nil {
		return topology.Summary{}, err
	}
	lines := make([]geom.Line, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.Line)
	}
	return topology.Analyze(ctx, lines)
}
