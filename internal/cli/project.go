package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/doug-martin/goqu/v9"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/goqubuilder"
	"github.com/roach88/sift/internal/registry"
	"github.com/roach88/sift/internal/request"
	"github.com/roach88/sift/internal/schema"
	"github.com/roach88/sift/internal/sqbuilder"
)

// Dialects accepted by --dialect.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// ValidDialects defines the allowed dialects.
var ValidDialects = []string{DialectSQLite, DialectPostgres}

// document is a request file read into memory.
type document struct {
	path string
	data []byte
	yaml bool
}

// readDocument reads a request from path, or from stdin when path is "-".
// YAML is chosen by extension; stdin is read as JSON.
func readDocument(path string, stdin io.Reader) (*document, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	return &document{path: path, data: data, yaml: ext == ".yaml" || ext == ".yml"}, nil
}

func (d *document) request() (*request.Request, error) {
	if d.yaml {
		return request.ParseYAML(d.data)
	}
	return request.ParseJSON(d.data)
}

func (d *document) validate(v *schema.Validator) error {
	if d.yaml {
		return v.ValidateYAML(d.data)
	}
	return v.ValidateJSON(d.data)
}

// loadConfig reads the project config named by --config or SIFT_CONFIG.
func loadConfig(opts *RootOptions) (*registry.Config, error) {
	if opts.Config == "" {
		return nil, errors.New("a project config is required (--config or SIFT_CONFIG)")
	}
	return registry.Load(opts.Config)
}

// compilerOptions translates global settings into compiler options.
func compilerOptions(opts *RootOptions, cfg *registry.Config) []compiler.Option {
	aliases := compiler.NewCounterAliases
	if opts.Aliases == "uuid" {
		aliases = compiler.NewUUIDAliases
	}
	return []compiler.Option{
		compiler.WithStrict(opts.Strict),
		compiler.WithIDColumn(cfg.ID),
		compiler.WithAliases(aliases),
		compiler.WithLogger(slog.Default()),
	}
}

// Statement is a compiled query with its bind parameters.
type Statement struct {
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
	Args    []any  `json:"args"`
}

func (s *Statement) String() string {
	var b strings.Builder
	b.WriteString(s.SQL)
	b.WriteString(";")
	if len(s.Args) > 0 {
		fmt.Fprintf(&b, "\n-- args: %v", s.Args)
	}
	return b.String()
}

// compileStatement compiles req against cfg's base table for dialect.
// runner, when non-nil, is attached to sqlite statements.
func compileStatement(opts *RootOptions, cfg *registry.Config, dialect string, runner sq.BaseRunner, req *request.Request) (*Statement, error) {
	switch dialect {
	case DialectSQLite:
		seed := sqbuilder.Table(cfg.Table)
		base, err := sqbuilder.New(sqbuilder.Options{Runner: runner, Query: &seed})
		if err != nil {
			return nil, err
		}
		c := compiler.New(registry.Build[sq.SelectBuilder](cfg, base), compilerOptions(opts, cfg)...)
		sel, err := sqbuilder.Compile(c, sqbuilder.Options{Runner: runner, Query: &seed}, req)
		if err != nil {
			return nil, err
		}
		query, args, err := sel.ToSql()
		if err != nil {
			return nil, err
		}
		return &Statement{Dialect: dialect, SQL: query, Args: args}, nil

	case DialectPostgres:
		seed := goqubuilder.Table(cfg.Table)
		base, err := goqubuilder.New(goqubuilder.Options{Query: seed})
		if err != nil {
			return nil, err
		}
		c := compiler.New(registry.Build[*goqu.SelectDataset](cfg, base), compilerOptions(opts, cfg)...)
		ds, err := goqubuilder.Compile(c, goqubuilder.Options{Query: seed}, req)
		if err != nil {
			return nil, err
		}
		query, args, err := ds.ToSQL()
		if err != nil {
			return nil, err
		}
		return &Statement{Dialect: dialect, SQL: query, Args: args}, nil
	}
	return nil, fmt.Errorf("invalid dialect %q: must be one of %v", dialect, ValidDialects)
}

// compileErrorCode maps compiler failures to CLI error codes.
func compileErrorCode(err error) string {
	switch {
	case compiler.IsMissingSubquery(err):
		return ErrCodeMissingSubquery
	case compiler.IsMalformedFilter(err), filter.IsParseError(err):
		return ErrCodeMalformedFilter
	case compiler.IsInvalidSort(err):
		return ErrCodeInvalidSort
	}
	return ErrCodeGeneric
}

// prepare loads the config, reads and validates the request document, and
// decodes it. Failures are written through f and returned as ExitErrors.
func prepare(opts *RootOptions, f *OutputFormatter, path string, stdin io.Reader) (*registry.Config, *request.Request, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	doc, err := readDocument(path, stdin)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("request file not found: %s", path), nil)
		}
		return nil, nil, f.Fail(ExitCommandError, ErrCodeRequest, err.Error(), nil)
	}

	validator, err := schema.NewValidator(cfg, schema.Options{Strict: opts.Strict})
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	if err := doc.validate(validator); err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			return nil, nil, f.Fail(ExitFailure, ErrCodeValidation, "request failed validation", ve.Violations)
		}
		return nil, nil, f.Fail(ExitCommandError, ErrCodeRequest, err.Error(), nil)
	}

	req, err := doc.request()
	if err != nil {
		return nil, nil, f.Fail(ExitFailure, compileErrorCode(err), err.Error(), nil)
	}
	slog.Debug("request loaded", "path", path, "table", cfg.Table)
	return cfg, req, nil
}
