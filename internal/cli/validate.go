package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/filter"
)

// ValidationResult is the JSON payload of a successful validate command.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Fields []string `json:"fields,omitempty"`
	Sort   string   `json:"sort,omitempty"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	b.WriteString("✓ request is valid")
	if len(r.Fields) > 0 {
		fmt.Fprintf(&b, "\n  filters: %s", strings.Join(r.Fields, ", "))
	}
	if r.Sort != "" {
		fmt.Fprintf(&b, "\n  sort:    %s", r.Sort)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <request-file>",
		Short: "Validate a request against the project config",
		Long: `Validate a filter/sort/page request without compiling it.

Checks field names, operator keys and value types against the project
config. With --strict, operator objects may hold a single key.
Exits 1 when the request is rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	_, req, err := prepare(opts, f, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	res := ValidationResult{Valid: true}
	if req.Filter != nil {
		res.Fields = filter.Fields(req.Filter)
	}
	if !req.Sort.IsZero() {
		res.Sort = fmt.Sprintf("%s %s", req.Sort.Field, req.Sort.Direction)
	}
	return f.Success(res)
}
