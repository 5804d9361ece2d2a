package schema

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/sift/internal/registry"
)

// Violation is one rejected value in a request.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a request.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		if v.Path == "" {
			parts[i] = v.Message
		} else {
			parts[i] = v.Path + ": " + v.Message
		}
	}
	return fmt.Sprintf("invalid request (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
}

// Validator checks requests against the CUE definitions generated for a
// config. A Validator is safe for sequential use only.
type Validator struct {
	ctx     *cue.Context
	request cue.Value
}

// NewValidator compiles the definitions for cfg.
func NewValidator(cfg *registry.Config, opts Options) (*Validator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("a config is required to validate requests")
	}
	ctx := cuecontext.New()
	v := ctx.CompileString(GenerateCUE(cfg, opts), cue.Filename("request.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling request schema: %w", err)
	}
	return &Validator{ctx: ctx, request: v.LookupPath(cue.ParsePath("#Request"))}, nil
}

// ValidateJSON validates a JSON request document.
func (v *Validator) ValidateJSON(data []byte) error {
	expr, err := cuejson.Extract("request.json", data)
	if err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return v.validate(v.ctx.BuildExpr(expr))
}

// ValidateYAML validates a YAML request document.
func (v *Validator) ValidateYAML(data []byte) error {
	f, err := cueyaml.Extract("request.yaml", data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return v.validate(v.ctx.BuildFile(f))
}

func (v *Validator) validate(data cue.Value) error {
	if err := data.Err(); err != nil {
		return fmt.Errorf("building request value: %w", err)
	}
	if err := v.request.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return newValidationError(err)
	}
	return nil
}

func newValidationError(err error) *ValidationError {
	errs := cueerrors.Errors(err)
	out := &ValidationError{Violations: make([]Violation, 0, len(errs))}
	for _, e := range errs {
		format, args := e.Msg()
		out.Violations = append(out.Violations, Violation{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(out.Violations) == 0 {
		out.Violations = append(out.Violations, Violation{Message: err.Error()})
	}
	return out
}
