package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"insight/internal/record"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <queryfile>",
		Short: "Run a JSON query against an added dataset",
		Long: `Run a JSON query against an added dataset.

The query file holds a single JSON query object. Pass "-" to read the
query from standard input. Text output renders the result as a table
in the query's column order; JSON output emits the result records.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, cmd, args[0])
		},
	}
}

func runQuery(opts *RootOptions, cmd *cobra.Command, path string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	raw, err := readQuery(cmd.InOrStdin(), path)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("read query %s", path), Err: err}
	}

	facade, err := newFacade(opts)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "open data directory", Err: err}
	}

	results, err := facade.PerformQuery(cmd.Context(), raw)
	if err != nil {
		return err
	}
	formatter.VerboseLog("query matched %d records", len(results))

	if formatter.Format == "json" {
		return formatter.JSON(results)
	}

	if len(results) == 0 {
		formatter.Textf("no results")
		return nil
	}
	columns := queryColumns(raw)
	rows := make([][]string, len(results))
	for i, r := range results {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = cellValue(r[col])
		}
		rows[i] = row
	}
	formatter.Table(columns, rows)
	return nil
}

func readQuery(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// queryColumns recovers the requested column order for table output.
// The raw query already passed parsing by the time this runs.
func queryColumns(raw []byte) []string {
	var shape struct {
		Options struct {
			Columns []string `json:"COLUMNS"`
		} `json:"OPTIONS"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil
	}
	return shape.Options.Columns
}

func cellValue(v record.Value) string {
	switch val := v.(type) {
	case record.String:
		return string(val)
	case record.Number:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	}
	return ""
}
