package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sift/internal/registry"
	"github.com/roach88/sift/internal/store"
)

func TestConfigFromColumns(t *testing.T) {
	cfg := configFromColumns("vehicles", []store.Column{
		{Name: "vid", Type: "TEXT", PrimaryKey: true},
		{Name: "year", Type: "INTEGER"},
		{Name: "zero_to_sixty", Type: "REAL"},
		{Name: "electric", Type: "BOOLEAN"},
		{Name: "model", Type: "VARCHAR(40)"},
		{Name: "notes", Type: ""},
	})

	assert.Equal(t, "vid", cfg.ID)
	assert.True(t, cfg.ColumnSubqueries)
	assert.Equal(t, []registry.Column{
		{Name: "vid", Type: registry.TypeID},
		{Name: "year", Type: registry.TypeInt},
		{Name: "zero_to_sixty", Type: registry.TypeFloat},
		{Name: "electric", Type: registry.TypeBoolean},
		{Name: "model", Type: registry.TypeString},
		{Name: "notes", Type: registry.TypeString},
	}, cfg.Columns)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromColumns_DefaultID(t *testing.T) {
	cfg := configFromColumns("log", []store.Column{{Name: "line", Type: "TEXT"}})
	assert.Equal(t, "id", cfg.ID)
}
