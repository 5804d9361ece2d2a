package registry

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sift/internal/filter"
)

// FieldType is the scalar type of a filterable field.
type FieldType string

const (
	TypeBoolean FieldType = "Boolean"
	TypeID      FieldType = "ID"
	TypeInt     FieldType = "Int"
	TypeFloat   FieldType = "Float"
	TypeString  FieldType = "String"
)

// FieldTypes lists the supported types in declaration order.
var FieldTypes = []FieldType{TypeBoolean, TypeFloat, TypeID, TypeInt, TypeString}

// Valid reports whether t is a supported type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeBoolean, TypeID, TypeInt, TypeFloat, TypeString:
		return true
	}
	return false
}

// Config describes a base table and its virtual fields.
//
// Example:
//
//	table: vehicles
//	id: id
//	column_subqueries: true
//	columns:
//	  - {name: year, type: Int}
//	  - {name: model, type: String}
//	fields:
//	  - name: make
//	    type: String
//	    from: vehicles AS v
//	    joins:
//	      - {table: manufacturers AS m, left: v.manufacturer_id, right: m.id}
//	    resource_id: v.id
//	    value: m.name
type Config struct {
	Table string `yaml:"table" json:"table,omitempty"`

	// ID is the base table's identifier column. Defaults to "id".
	ID string `yaml:"id" json:"id,omitempty"`

	Columns []Column `yaml:"columns" json:"columns,omitempty"`

	// ColumnSubqueries derives one subquery per column so plain columns
	// are filtered and sorted the same way virtual fields are.
	ColumnSubqueries bool `yaml:"column_subqueries" json:"column_subqueries,omitempty"`

	Fields []FieldSpec `yaml:"fields" json:"fields,omitempty"`
}

// Column is a typed column of the base table.
type Column struct {
	Name string    `yaml:"name" json:"name,omitempty"`
	Type FieldType `yaml:"type" json:"type,omitempty"`
}

// FieldSpec declares a virtual field backed by a subquery.
type FieldSpec struct {
	Name string    `yaml:"name" json:"name,omitempty"`
	Type FieldType `yaml:"type" json:"type,omitempty"`

	// From is the subquery's source table, optionally aliased.
	From  string `yaml:"from" json:"from,omitempty"`
	Joins []Join `yaml:"joins" json:"joins,omitempty"`

	// ResourceID, Value and Sort are the expressions projected as the
	// resource_id, value and sort columns. Sort defaults to Value.
	ResourceID string `yaml:"resource_id" json:"resource_id,omitempty"`
	Value      string `yaml:"value" json:"value,omitempty"`
	Sort       string `yaml:"sort" json:"sort,omitempty"`
}

// Join is a left join inside a virtual field subquery.
type Join struct {
	Table string `yaml:"table" json:"table,omitempty"`
	Left  string `yaml:"left" json:"left,omitempty"`
	Right string `yaml:"right" json:"right,omitempty"`
}

// Load reads and validates a YAML config. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate fills defaults and checks required fields.
func (c *Config) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("table is required")
	}
	if c.ID == "" {
		c.ID = "id"
	}
	seen := map[string]string{}
	for i, col := range c.Columns {
		if col.Name == "" {
			return fmt.Errorf("columns[%d]: name is required", i)
		}
		if !col.Type.Valid() {
			return fmt.Errorf("column %q: unsupported type %q", col.Name, col.Type)
		}
		if filter.IsOperator(col.Name) {
			return fmt.Errorf("column %q: name collides with a filter operator", col.Name)
		}
		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("column %q declared twice", col.Name)
		}
		seen[col.Name] = "column"
	}
	fields := map[string]bool{}
	for i := range c.Fields {
		f := &c.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("fields[%d]: name is required", i)
		}
		if fields[f.Name] {
			return fmt.Errorf("field %q declared twice", f.Name)
		}
		fields[f.Name] = true
		if filter.IsOperator(f.Name) {
			return fmt.Errorf("field %q: name collides with a filter operator", f.Name)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("field %q: unsupported type %q", f.Name, f.Type)
		}
		if f.From == "" || f.ResourceID == "" || f.Value == "" {
			return fmt.Errorf("field %q: from, resource_id and value are required", f.Name)
		}
		if f.Sort == "" {
			f.Sort = f.Value
		}
		for j, jn := range f.Joins {
			if jn.Table == "" || jn.Left == "" || jn.Right == "" {
				return fmt.Errorf("field %q: joins[%d]: table, left and right are required", f.Name, j)
			}
		}
	}
	return nil
}

// TypeOf returns the type of a column or virtual field. Virtual fields
// shadow columns of the same name.
func (c *Config) TypeOf(name string) (FieldType, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	for _, col := range c.Columns {
		if col.Name == name {
			return col.Type, true
		}
	}
	return "", false
}

// Names returns every filterable name: columns first, then virtual fields
// not shadowing a column.
func (c *Config) Names() []string {
	var out []string
	seen := map[string]bool{}
	for _, col := range c.Columns {
		out = append(out, col.Name)
		seen[col.Name] = true
	}
	for _, f := range c.Fields {
		if !seen[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}
