package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Dialect string
	Output  string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <request-file>",
		Short: "Compile a request to SQL",
		Long: `Compile a filter/sort/page request to a SQL statement.

The request is validated against the project config first. Use "-" to read
a JSON request from stdin.

Example:
  sift compile --config sift.yaml request.json
  sift compile --config sift.yaml --dialect postgres request.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", DialectSQLite, "SQL dialect (sqlite|postgres)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL to a file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	dialect := opts.setting("dialect")
	if !slices.Contains(ValidDialects, dialect) {
		return f.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("invalid dialect %q: must be one of %v", dialect, ValidDialects), nil)
	}

	cfg, req, err := prepare(opts.RootOptions, f, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	stmt, err := compileStatement(opts.RootOptions, cfg, dialect, nil, req)
	if err != nil {
		return f.Fail(ExitFailure, compileErrorCode(err), err.Error(), nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(stmt.String()+"\n"), 0o644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		fmt.Fprintf(f.errWriter(), "wrote %s\n", opts.Output)
	}
	return f.Success(stmt)
}
