package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/roadsnap/internal/config"
	"github.com/roach88/roadsnap/internal/engine"
	"github.com/roach88/roadsnap/internal/metrics"
	"github.com/roach88/roadsnap/internal/proximity"
	"github.com/roach88/roadsnap/internal/store"
	"github.com/roach88/roadsnap/internal/topology"
)

// SnapOptions holds flags for the snap command.
type SnapOptions struct {
	*RootOptions
	Database     string
	Radius       float64
	MinLength    float64
	MaxNeighbors int
	ReloadStatus bool
	MetricsFile  string
}

// SnapSummary is the snap command output.
type SnapSummary struct {
	RunID                   string      `json:"run_id"`
	Radius                  float64     `json:"radius"`
	MinLength               float64     `json:"min_length"`
	Deleted                 int         `json:"deleted"`
	MultipartWarnings       int         `json:"multipart_warnings"`
	SnappedPairs            int         `json:"snapped_pairs"`
	Neighborhoods           int         `json:"neighborhoods"`
	UnresolvedNeighborhoods int         `json:"unresolved_neighborhoods"`
	Lines                   int         `json:"lines"`
	Finished                int         `json:"finished"`
	DurationMS              int64       `json:"duration_ms"`
	Network                 NetworkView `json:"network"`
	Events                  []EventView `json:"events,omitempty"`
}

// NetworkView compares the endpoint graph before and after a run.
type NetworkView struct {
	Before topology.Summary `json:"before"`
	After  topology.Summary `json:"after"`
}

// EventView is the output form of an engine trace event.
type EventView struct {
	Seq        int64   `json:"seq"`
	Kind       string  `json:"kind"`
	LineID     int64   `json:"line_id"`
	Role       string  `json:"role,omitempty"`
	AnchorID   int64   `json:"anchor_id,omitempty"`
	AnchorRole string  `json:"anchor_role,omitempty"`
	Case       int     `json:"case,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
	Length     float64 `json:"length,omitempty"`
	Parts      int     `json:"parts,omitempty"`
}

func eventViews(events []engine.Event) []EventView {
	out := make([]EventView, 0, len(events))
	for _, ev := range events {
		v := EventView{
			Seq:    ev.Seq,
			Kind:   string(ev.Kind),
			LineID: ev.LineID,
			Length: ev.Length,
			Parts:  ev.Parts,
		}
		if ev.Kind == engine.EventSnapped {
			v.Role = ev.Role.String()
			v.AnchorID = ev.AnchorID
			v.AnchorRole = ev.AnchorRole.String()
			v.Case = ev.Case
			v.Distance = ev.Distance
		}
		out = append(out, v)
	}
	return out
}

// NewSnapCommand creates the snap command.
func NewSnapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Snap nearby line endpoints together",
		Long: `Run one snapping pass over the lines in the database.

Lines shorter than --min-length are deleted first. Endpoints of different
lines within --radius of each other are grouped into neighborhoods; in each
neighborhood the line closest to its neighbors is the anchor and the other
lines move one endpoint onto it. Every endpoint moves at most once.

Snap status is written to each line when the pass completes. With
--reload-status, endpoints finished by an earlier run are never moved again,
so re-running over snapped output changes nothing.

Examples:
  roadsnap snap --db ./roads.db
  roadsnap snap --db ./roads.db --radius 2.5 --min-length 3
  roadsnap snap --db ./roads.db --reload-status --metrics-file ./roadsnap.prom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnap(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Float64Var(&opts.Radius, "radius", engine.DefaultRadius, "snap radius in map units")
	cmd.Flags().Float64Var(&opts.MinLength, "min-length", engine.DefaultMinLength, "delete lines shorter than this")
	cmd.Flags().IntVar(&opts.MaxNeighbors, "max-neighbors", proximity.DefaultMaxNeighbors, "near-table rows per endpoint (negative: unlimited)")
	cmd.Flags().BoolVar(&opts.ReloadStatus, "reload-status", false, "keep endpoints finished by earlier runs")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	return cmd
}

// snapOverrides turns explicitly set flags into config overrides.
func snapOverrides(opts *SnapOptions, cmd *cobra.Command) []config.Option {
	var out []config.Option
	if cmd.Flags().Changed("radius") {
		out = append(out, config.WithOverride("snap.radius", opts.Radius))
	}
	if cmd.Flags().Changed("min-length") {
		out = append(out, config.WithOverride("snap.min_length", opts.MinLength))
	}
	if cmd.Flags().Changed("max-neighbors") {
		out = append(out, config.WithOverride("snap.max_neighbors", opts.MaxNeighbors))
	}
	if cmd.Flags().Changed("reload-status") {
		out = append(out, config.WithOverride("snap.reload_status", opts.ReloadStatus))
	}
	return out
}

func runSnap(opts *SnapOptions, cmd *cobra.Command) error {
	log := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := loadConfig(opts.RootOptions, snapOverrides(opts, cmd)...)
	if err != nil {
		return err
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
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

	eng, err := engine.New(st, cfg.Engine(), engine.WithLogger(log))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid snap parameters", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	before, err := networkSummary(ctx, st)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to analyze network", err)
	}
	res, err := eng.Run(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "snap run aborted", err)
	}
	after, err := networkSummary(ctx, st)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to analyze network", err)
	}
	log.Info("network connectivity",
		"components_before", before.Components,
		"components_after", after.Components,
		"dangles_before", before.Dangles,
		"dangles_after", after.Dangles,
	)

	if opts.MetricsFile != "" {
		rec := metrics.New()
		rec.Observe(res)
		if err := rec.WriteTextfile(opts.MetricsFile); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		log.Info("metrics written", "path", opts.MetricsFile)
	}

	summary := summarize(res)
	summary.Network = NetworkView{Before: before, After: after}
	if opts.Verbose {
		summary.Events = eventViews(res.Events)
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	writeSnapText(cmd.OutOrStdout(), summary)
	return nil
}

func summarize(res *engine.Result) SnapSummary {
	finished := 0
	for _, l := range res.Lines {
		if l.Fields.Finished {
			finished++
		}
	}
	return SnapSummary{
		RunID:                   res.RunID,
		Radius:                  res.Config.Radius,
		MinLength:               res.Config.MinLength,
		Deleted:                 res.Deleted,
		MultipartWarnings:       res.MultipartWarnings,
		SnappedPairs:            res.SnappedPairs,
		Neighborhoods:           res.Neighborhoods,
		UnresolvedNeighborhoods: res.UnresolvedNeighborhoods,
		Lines:                   len(res.Lines),
		Finished:                finished,
		DurationMS:              res.Duration.Milliseconds(),
	}
}

func writeSnapText(w io.Writer, s SnapSummary) {
	fmt.Fprintf(w, "✓ Snap run %s complete\n", s.RunID)
	fmt.Fprintf(w, "  Radius:         %g\n", s.Radius)
	fmt.Fprintf(w, "  Min length:     %g\n", s.MinLength)
	fmt.Fprintf(w, "  Deleted:        %d\n", s.Deleted)
	fmt.Fprintf(w, "  Multipart:      %d\n", s.MultipartWarnings)
	fmt.Fprintf(w, "  Snapped pairs:  %d\n", s.SnappedPairs)
	fmt.Fprintf(w, "  Neighborhoods:  %d (%d unresolved)\n", s.Neighborhoods, s.UnresolvedNeighborhoods)
	fmt.Fprintf(w, "  Tracked lines:  %d (%d finished)\n", s.Lines, s.Finished)
	fmt.Fprintf(w, "  Components:     %d -> %d\n", s.Network.Before.Components, s.Network.After.Components)
	fmt.Fprintf(w, "  Dangles:        %d -> %d\n", s.Network.Before.Dangles, s.Network.After.Dangles)

	if len(s.Events) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Events ===")
	for _, ev := range s.Events {
		switch engine.EventKind(ev.Kind) {
		case engine.EventDeleted:
			fmt.Fprintf(w, "  [%d] DEL  line %d (length %g)\n", ev.Seq, ev.LineID, ev.Length)
		case engine.EventTruncated:
			fmt.Fprintf(w, "  [%d] TRIM line %d (%d parts)\n", ev.Seq, ev.LineID, ev.Parts)
		case engine.EventSnapped:
			fmt.Fprintf(w, "  [%d] SNAP line %d %s -> line %d %s (case %d, d=%g)\n",
				ev.Seq, ev.LineID, ev.Role, ev.AnchorID, ev.AnchorRole, ev.Case, ev.Distance)
		}
	}
}
