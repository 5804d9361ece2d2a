package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sift/internal/registry"
	"github.com/roach88/sift/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Database string
	Table    string
	Output   string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a project config from a SQLite table",
		Long: `Generate a project config by introspecting a SQLite table.

Every column is declared with a type derived from its SQLite affinity and
column subqueries are enabled. Virtual fields are left for you to add.

Example:
  sift init --db ./vehicles.db --table vehicles -o sift.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table to introspect (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the config to a file")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	dbPath := opts.setting("db")
	if dbPath == "" {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "a database is required (--db or SIFT_DB)", nil)
	}
	if _, err := os.Stat(dbPath); err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath), nil)
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

	cols, err := st.Columns(cmd.Context(), opts.Table)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	cfg := configFromColumns(opts.Table, cols)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	if err := enc.Close(); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		fmt.Fprintf(f.errWriter(), "wrote %s\n", opts.Output)
	}

	if f.JSON() {
		return f.Success(cfg)
	}
	_, err = f.Writer.Write(buf.Bytes())
	return err
}

// configFromColumns declares every column with a type derived from its
// SQLite affinity. The first primary key column becomes the id column and
// is typed ID.
func configFromColumns(table string, cols []store.Column) *registry.Config {
	cfg := &registry.Config{Table: table, ColumnSubqueries: true}
	for _, c := range cols {
		typ := columnType(c)
		if c.PrimaryKey && cfg.ID == "" {
			cfg.ID = c.Name
			typ = registry.TypeID
		}
		cfg.Columns = append(cfg.Columns, registry.Column{Name: c.Name, Type: typ})
	}
	if cfg.ID == "" {
		cfg.ID = "id"
	}
	return cfg
}

func columnType(c store.Column) registry.FieldType {
	switch store.Affinity(c.Type) {
	case "integer":
		return registry.TypeInt
	case "real":
		return registry.TypeFloat
	case "boolean":
		return registry.TypeBoolean
	}
	return registry.TypeString
}
