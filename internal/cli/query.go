package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
}

// QueryResult is the JSON payload of the query command.
type QueryResult struct {
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <request-file>",
		Short: "Compile a request and run it against a SQLite database",
		Long: `Compile a filter/sort/page request and run it against a SQLite database.

Example:
  sift query --config sift.yaml --db ./vehicles.db request.json
  SIFT_DB=./vehicles.db sift query --config sift.yaml --format json request.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	dbPath := opts.setting("db")
	if dbPath == "" {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "a database is required (--db or SIFT_DB)", nil)
	}

	cfg, req, err := prepare(opts.RootOptions, f, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	stmt, err := compileStatement(opts.RootOptions, cfg, DialectSQLite, st.DB(), req)
	if err != nil {
		return f.Fail(ExitFailure, compileErrorCode(err), err.Error(), nil)
	}
	slog.Debug("running query", "sql", stmt.SQL, "args", stmt.Args)

	res, err := st.Query(cmd.Context(), stmt.SQL, stmt.Args...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), stmt)
	}

	if f.JSON() {
		return f.Success(QueryResult{SQL: stmt.SQL, Columns: res.Columns, Rows: res.Rows})
	}
	return writeTable(f, res)
}

func writeTable(f *OutputFormatter, res *store.Result) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "(%d rows)\n", len(res.Rows))
	return nil
}
