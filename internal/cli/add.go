package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"insight/internal/record"
)

// AddResult holds the outcome of an add command.
type AddResult struct {
	Added    string   `json:"added"`
	Datasets []string `json:"datasets"`
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <kind> <zipfile>",
		Short: "Ingest a zip archive as a new dataset",
		Long: `Ingest a zip archive as a new dataset under the given id.

Kind is "courses" for course-section archives or "rooms" for campus
room archives. Room ingestion geolocates building addresses, so it
needs --geo-url pointing at a resolution service.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(rootOpts, cmd, args[0], args[1], args[2])
		},
	}
}

func runAdd(opts *RootOptions, cmd *cobra.Command, id, kindArg, path string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	kind, err := record.ParseKind(kindArg)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "invalid kind", Err: err}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("read archive %s", path), Err: err}
	}
	formatter.VerboseLog("read %d bytes from %s", len(content), path)

	facade, err := newFacade(opts)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "open data directory", Err: err}
	}

	ids, err := facade.AddDataset(cmd.Context(), id, kind, content)
	if err != nil {
		return err
	}

	if formatter.Format == "json" {
		return formatter.JSON(AddResult{Added: id, Datasets: ids})
	}
	formatter.Textf("added dataset %s (%d total)", id, len(ids))
	return nil
}
