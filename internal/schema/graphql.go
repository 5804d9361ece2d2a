package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/graphql-go/graphql"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/registry"
)

// Type names shared by every generated schema.
const (
	SortDirectionName   = "SortDirection"
	LimitOffsetPageName = "LimitOffsetPage"
)

// FilterQueryName returns the input type name for a scalar, for example
// FilterQuery_Int.
func FilterQueryName(t registry.FieldType) string {
	return "FilterQuery_" + string(t)
}

// operatorsFor lists the operator keys available to a scalar type in
// declaration order.
func operatorsFor(t registry.FieldType) []string {
	ops := []string{filter.KeyIn, filter.KeyNotIn, filter.KeyEq, filter.KeyNe}
	switch t {
	case registry.TypeInt, registry.TypeFloat:
		ops = append(ops, filter.KeyGt, filter.KeyLt, filter.KeyGte, filter.KeyLte)
	case registry.TypeString:
		ops = append(ops, filter.KeyGt, filter.KeyLt, filter.KeyGte, filter.KeyLte, filter.KeyContains)
	}
	return ops
}

func scalarOf(t registry.FieldType) *graphql.Scalar {
	switch t {
	case registry.TypeBoolean:
		return graphql.Boolean
	case registry.TypeID:
		return graphql.ID
	case registry.TypeInt:
		return graphql.Int
	case registry.TypeFloat:
		return graphql.Float
	default:
		return graphql.String
	}
}

// decl pairs a named type with the order its fields are printed in.
type decl struct {
	typ    graphql.Type
	fields []string
}

// Declarations holds the GraphQL input types for one config. Types are
// created per Declarations so each can back its own graphql.Schema.
type Declarations struct {
	FilterQuery     map[registry.FieldType]*graphql.InputObject
	SortDirection   *graphql.Enum
	LimitOffsetPage *graphql.InputObject

	// Filter and Sort are nil when no config was given.
	Filter *graphql.InputObject
	Sort   *graphql.InputObject

	table string
	decls []decl
}

// NewDeclarations builds the common types and, when cfg is non-nil, the
// <Table>Filter and <Table>Sort inputs for its columns and virtual fields.
func NewDeclarations(cfg *registry.Config) (*Declarations, error) {
	d := &Declarations{FilterQuery: map[registry.FieldType]*graphql.InputObject{}}

	for _, t := range registry.FieldTypes {
		d.FilterQuery[t] = d.filterQuery(t)
	}
	d.SortDirection = graphql.NewEnum(graphql.EnumConfig{
		Name: SortDirectionName,
		Values: graphql.EnumValueConfigMap{
			"ASC":  &graphql.EnumValueConfig{Value: "ASC"},
			"DESC": &graphql.EnumValueConfig{Value: "DESC"},
		},
	})
	d.decls = append(d.decls, decl{typ: d.SortDirection})

	d.LimitOffsetPage = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: LimitOffsetPageName,
		Fields: graphql.InputObjectConfigFieldMap{
			"limit":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"offset": &graphql.InputObjectFieldConfig{Type: graphql.Int},
		},
	})
	d.decls = append(d.decls, decl{typ: d.LimitOffsetPage, fields: []string{"limit", "offset"}})

	if cfg != nil {
		d.table = cfg.Table
		d.tableTypes(cfg)
	}

	for _, dc := range d.decls {
		if err := resolve(dc.typ); err != nil {
			return nil, fmt.Errorf("invalid GraphQL type %s: %w", dc.typ.Name(), err)
		}
	}
	return d, nil
}

func (d *Declarations) filterQuery(t registry.FieldType) *graphql.InputObject {
	scalar := scalarOf(t)
	ops := operatorsFor(t)

	var obj *graphql.InputObject
	obj = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: FilterQueryName(t),
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields := graphql.InputObjectConfigFieldMap{
				filter.KeyAnd: &graphql.InputObjectFieldConfig{Type: graphql.NewList(obj)},
				filter.KeyOr:  &graphql.InputObjectFieldConfig{Type: graphql.NewList(obj)},
			}
			for _, op := range ops {
				var typ graphql.Input = scalar
				if op == filter.KeyIn || op == filter.KeyNotIn {
					typ = graphql.NewList(scalar)
				}
				fields[op] = &graphql.InputObjectFieldConfig{Type: typ}
			}
			return fields
		}),
	})

	order := slices.DeleteFunc(slices.Clone(ops), func(op string) bool { return op == filter.KeyContains })
	order = append(order, filter.KeyAnd, filter.KeyOr)
	if t == registry.TypeString {
		order = append(order, filter.KeyContains)
	}
	d.decls = append(d.decls, decl{typ: obj, fields: order})
	return obj
}

func (d *Declarations) tableTypes(cfg *registry.Config) {
	names := cfg.Names()
	prefix := TypeName(cfg.Table)

	var filterObj *graphql.InputObject
	filterObj = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: prefix + "Filter",
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields := graphql.InputObjectConfigFieldMap{
				filter.KeyAnd: &graphql.InputObjectFieldConfig{Type: graphql.NewList(filterObj)},
				filter.KeyOr:  &graphql.InputObjectFieldConfig{Type: graphql.NewList(filterObj)},
			}
			for _, name := range names {
				t, _ := cfg.TypeOf(name)
				fields[name] = &graphql.InputObjectFieldConfig{Type: d.FilterQuery[t]}
			}
			return fields
		}),
	})

	sortFields := graphql.InputObjectConfigFieldMap{}
	for _, name := range names {
		sortFields[name] = &graphql.InputObjectFieldConfig{Type: d.SortDirection}
	}
	sortObj := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   prefix + "Sort",
		Fields: sortFields,
	})

	d.Filter, d.Sort = filterObj, sortObj
	d.decls = append(d.decls,
		decl{typ: filterObj, fields: append(slices.Clone(names), filter.KeyAnd, filter.KeyOr)},
		decl{typ: sortObj, fields: names},
	)
}

// Schema wraps the declarations in an executable schema with one query
// field named after the table, taking filter, sort and page arguments.
// Without a table the query exposes a single _types field.
func (d *Declarations) Schema() (graphql.Schema, error) {
	fields := graphql.Fields{}
	if d.Filter != nil {
		fields[d.table] = &graphql.Field{
			Type: graphql.NewList(graphql.ID),
			Args: graphql.FieldConfigArgument{
				"filter": &graphql.ArgumentConfig{Type: d.Filter},
				"sort":   &graphql.ArgumentConfig{Type: d.Sort},
				"page":   &graphql.ArgumentConfig{Type: d.LimitOffsetPage},
			},
		}
	} else {
		fields["_types"] = &graphql.Field{Type: graphql.String}
	}

	types := make([]graphql.Type, 0, len(d.decls))
	for _, dc := range d.decls {
		types = append(types, dc.typ)
	}
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: fields}),
		Types: types,
	})
}

// SDL prints every declaration in GraphQL schema definition language.
func (d *Declarations) SDL() string {
	parts := make([]string, 0, len(d.decls))
	for _, dc := range d.decls {
		parts = append(parts, printType(dc))
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// TypeName converts a snake_case table name to a GraphQL type prefix,
// for example page_test to PageTest.
func TypeName(table string) string {
	caser := cases.Title(language.Und)
	parts := strings.FieldsFunc(table, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "")
}

// resolve forces field thunks so definition errors surface early.
func resolve(t graphql.Type) error {
	if obj, ok := t.(*graphql.InputObject); ok {
		obj.Fields()
	}
	return t.Error()
}

func printType(dc decl) string {
	var b strings.Builder
	switch t := dc.typ.(type) {
	case *graphql.Enum:
		fmt.Fprintf(&b, "enum %s {\n", t.Name())
		values := t.Values()
		names := make([]string, 0, len(values))
		for _, v := range values {
			names = append(names, v.Name)
		}
		slices.Sort(names)
		for _, n := range names {
			fmt.Fprintf(&b, "  %s\n", n)
		}
	case *graphql.InputObject:
		fmt.Fprintf(&b, "input %s {\n", t.Name())
		fields := t.Fields()
		for _, name := range dc.fields {
			if f, ok := fields[name]; ok {
				fmt.Fprintf(&b, "  %s: %s\n", name, f.Type.String())
			}
		}
	}
	b.WriteString("}")
	return b.String()
}
