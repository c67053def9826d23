// Package cli implements the insight command line interface. Commands
// are thin wrappers over the insight facade: they read raw inputs,
// invoke one facade operation, and render the result as text or JSON.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"insight/internal/geo"
	"insight/internal/insight"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DataDir string
	GeoURL  string
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the insight CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Manage and query academic datasets",
		Long:  "Ingest course and room archives into local datasets and run JSON queries against them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DataDir, "data", "data", "directory holding persisted datasets")
	cmd.PersistentFlags().StringVar(&opts.GeoURL, "geo-url", "", "base URL of the address geolocation service")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}

// newFacade builds the facade the subcommands share. Verbose logging
// goes to stderr so JSON output stays parseable.
func newFacade(opts *RootOptions) (*insight.Facade, error) {
	fopts := []insight.Option{}
	if opts.Verbose {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		fopts = append(fopts, insight.WithLogger(log))
	}
	if opts.GeoURL != "" {
		fopts = append(fopts, insight.WithResolver(geo.NewHTTPResolver(opts.GeoURL)))
	}
	return insight.New(opts.DataDir, fopts...)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
