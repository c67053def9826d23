package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"insight/internal/record"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the added datasets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	facade, err := newFacade(opts)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "open data directory", Err: err}
	}

	infos, err := facade.ListDatasets(cmd.Context())
	if err != nil {
		return err
	}

	if formatter.Format == "json" {
		if infos == nil {
			infos = []record.Info{}
		}
		return formatter.JSON(infos)
	}

	if len(infos) == 0 {
		formatter.Textf("no datasets")
		return nil
	}
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{info.ID, string(info.Kind), strconv.Itoa(info.NumRows)}
	}
	formatter.Table([]string{"ID", "KIND", "ROWS"}, rows)
	return nil
}
