package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/registry"
	"github.com/roach88/sift/internal/schema"
)

// ValidLanguages defines the allowed --lang values.
var ValidLanguages = []string{"graphql", "cue"}

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Lang string
}

// SchemaResult is the JSON payload of the schema command.
type SchemaResult struct {
	Lang   string `json:"lang"`
	Schema string `json:"schema"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print request type declarations",
		Long: `Print the filter, sort and page input types.

GraphQL output declares FilterQuery_<Scalar>, SortDirection and
LimitOffsetPage, plus <Table>Filter and <Table>Sort when a project config is
given. CUE output is the definition set requests are validated against.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Lang, "lang", "graphql", "declaration language (graphql|cue)")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	lang := opts.setting("lang")
	if !slices.Contains(ValidLanguages, lang) {
		return f.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("invalid lang %q: must be one of %v", lang, ValidLanguages), nil)
	}

	var cfg *registry.Config
	if opts.Config != "" {
		var err error
		if cfg, err = registry.Load(opts.Config); err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
	}

	var text string
	switch lang {
	case "graphql":
		d, err := schema.NewDeclarations(cfg)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		text = d.SDL()
	case "cue":
		text = schema.GenerateCUE(cfg, schema.Options{Strict: opts.Strict})
	}

	if f.JSON() {
		return f.Success(SchemaResult{Lang: lang, Schema: text})
	}
	_, err := fmt.Fprint(f.Writer, text)
	return err
}
