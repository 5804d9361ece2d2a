package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that back CLI flags, for
// example SIFT_CONFIG for --config.
const EnvPrefix = "SIFT"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is the project config path.
	Config string

	// Strict rejects fields without a registered subquery, and operator
	// objects with more than one key during validation.
	Strict bool

	// Aliases selects the subquery alias generator: "counter" or "uuid".
	Aliases string

	// settings resolves flag values against SIFT_* environment variables.
	settings *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidAliases defines the allowed alias generators.
var ValidAliases = []string{"counter", "uuid"}

// NewRootCommand creates the root command for the sift CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sift",
		Short: "sift - compile filter/sort/page requests to SQL",
		Long: `sift compiles declarative filter, sort and pagination requests into SQL.

Fields that live outside the base table are declared as virtual fields in a
YAML project config and resolved through correlated subqueries.

Every flag can also be set through the environment with the SIFT_ prefix,
for example SIFT_CONFIG=./sift.yaml or SIFT_DB=./data.db.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd); err != nil {
				return WrapExitError(ExitCommandError, "invalid settings", err)
			}
			configureLogging(cmd, opts.Verbose)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVarP(&opts.Config, "config", "c", "", "project config file")
	flags.BoolVar(&opts.Strict, "strict", false, "reject fields without a registered subquery")
	flags.StringVar(&opts.Aliases, "aliases", "counter", "subquery alias generator (counter|uuid)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))

	return cmd
}

// resolve binds the executing command's flags to viper so unset flags fall
// back to SIFT_* environment variables, then reads the global values back.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	o.settings = v

	o.Verbose = v.GetBool("verbose")
	o.Format = v.GetString("format")
	o.Config = v.GetString("config")
	o.Strict = v.GetBool("strict")
	o.Aliases = v.GetString("aliases")

	if !slices.Contains(ValidFormats, o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	if !slices.Contains(ValidAliases, o.Aliases) {
		return fmt.Errorf("invalid aliases %q: must be one of %v", o.Aliases, ValidAliases)
	}
	return nil
}

// setting returns a command-local flag value resolved against the
// environment.
func (o *RootOptions) setting(key string) string {
	if o.settings == nil {
		return ""
	}
	return o.settings.GetString(key)
}

func configureLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
