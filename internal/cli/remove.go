package cli

import (
	"github.com/spf13/cobra"
)

// RemoveResult holds the outcome of a remove command.
type RemoveResult struct {
	Removed string `json:"removed"`
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <id>",
		Short:         "Delete a dataset and its persisted file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, cmd, args[0])
		},
	}
}

func runRemove(opts *RootOptions, cmd *cobra.Command, id string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	facade, err := newFacade(opts)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "open data directory", Err: err}
	}

	removed, err := facade.RemoveDataset(cmd.Context(), id)
	if err != nil {
		return err
	}

	if formatter.Format == "json" {
		return formatter.JSON(RemoveResult{Removed: removed})
	}
	formatter.Textf("removed dataset %s", removed)
	return nil
}
