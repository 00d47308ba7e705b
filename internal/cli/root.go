package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/roadsnap/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the roadsnap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "roadsnap",
		Short: "roadsnap - close endpoint gaps in road networks",
		Long: `roadsnap imports road centerlines, snaps nearby line endpoints onto a
shared node so the network is topologically connected, and exports the
result with per-endpoint snap status.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSnapCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
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

// loadConfig merges defaults, the --config file, ROADSNAP_ env vars and the
// given flag overrides.
func loadConfig(opts *RootOptions, overrides ...config.Option) (config.Config, error) {
	lopts := append([]config.Option{config.WithConfigFile(opts.ConfigFile)}, overrides...)
	cfg, err := config.NewLoader(lopts...).Load()
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}
