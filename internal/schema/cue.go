package schema

import (
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/registry"
)

// Options controls generated validation rules.
type Options struct {
	// Strict rejects operator objects with more than one key.
	Strict bool
}

// cueScalars maps field types to CUE constraints. Float accepts integers
// since JSON does not distinguish 7 from 7.0.
var cueScalars = map[registry.FieldType]string{
	registry.TypeBoolean: "bool",
	registry.TypeID:      "string | int",
	registry.TypeInt:     "int",
	registry.TypeFloat:   "number",
	registry.TypeString:  "string",
}

// GenerateCUE renders CUE definitions for requests against cfg. The
// entry point is #Request; per-scalar filters are #FilterQuery_<Type>.
// A nil cfg yields only the shared definitions.
func GenerateCUE(cfg *registry.Config, opts Options) string {
	var b strings.Builder
	if opts.Strict {
		b.WriteString("import \"struct\"\n\n")
	}

	for _, t := range registry.FieldTypes {
		fmt.Fprintf(&b, "#%s: %s\n", t, cueScalars[t])
	}
	b.WriteString("\n")

	for _, t := range registry.FieldTypes {
		writeFilterQuery(&b, t, opts)
		b.WriteString("\n")
	}

	b.WriteString("#SortDirection: =~\"^(?i)(asc|desc)$\"\n\n")
	b.WriteString("#LimitOffsetPage: {\n")
	b.WriteString("\tlimit?:  int & >=0\n")
	b.WriteString("\toffset?: int & >=0\n")
	b.WriteString("}\n")

	if cfg == nil {
		return b.String()
	}

	b.WriteString("\n#Filter: {\n")
	fmt.Fprintf(&b, "\t%s?: [...#Filter]\n", filter.KeyAnd)
	fmt.Fprintf(&b, "\t%s?: [...#Filter]\n", filter.KeyOr)
	for _, name := range cfg.Names() {
		t, _ := cfg.TypeOf(name)
		fmt.Fprintf(&b, "\t%s?: #%s\n", cueLabel(name), FilterQueryName(t))
	}
	b.WriteString("}\n\n")

	b.WriteString("#Sort: {\n")
	for _, name := range cfg.Names() {
		fmt.Fprintf(&b, "\t%s?: #SortDirection\n", cueLabel(name))
	}
	b.WriteString("}\n\n")

	b.WriteString("#Request: {\n")
	b.WriteString("\tfilter?: #Filter\n")
	b.WriteString("\tsort?:   #Sort\n")
	b.WriteString("\tpage?:   #LimitOffsetPage\n")
	b.WriteString("}\n")
	return b.String()
}

// writeFilterQuery renders a field value: a scalar, a list of scalars, or
// an operator object with nested AND/OR lists.
func writeFilterQuery(b *strings.Builder, t registry.FieldType, opts Options) {
	name := FilterQueryName(t)
	object := "{"
	if opts.Strict {
		object = "struct.MaxFields(1) & {"
	}
	fmt.Fprintf(b, "#%s: #%s | [...#%s] | %s\n", name, t, t, object)
	fmt.Fprintf(b, "\t%s?: [...#%s]\n", filter.KeyAnd, name)
	fmt.Fprintf(b, "\t%s?: [...#%s]\n", filter.KeyOr, name)
	for _, op := range operatorsFor(t) {
		switch op {
		case filter.KeyIn, filter.KeyNotIn:
			fmt.Fprintf(b, "\t%s?: [...#%s]\n", op, t)
		case filter.KeyEq, filter.KeyNe:
			fmt.Fprintf(b, "\t%s?: #%s | null\n", op, t)
		default:
			fmt.Fprintf(b, "\t%s?: #%s\n", op, t)
		}
	}
	b.WriteString("}\n")
}

var cueKeywords = map[string]bool{
	"package": true, "import": true, "for": true, "in": true, "if": true, "let": true,
	"true": true, "false": true, "null": true,
}

// cueLabel quotes labels that are not plain CUE identifiers.
func cueLabel(name string) string {
	if cueKeywords[name] {
		return fmt.Sprintf("%q", name)
	}
	for i, r := range name {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
		if !ok {
			return fmt.Sprintf("%q", name)
		}
	}
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#") {
		return fmt.Sprintf("%q", name)
	}
	return name
}
