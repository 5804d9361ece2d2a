package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/querybuilder"
	"github.com/roach88/sift/internal/testutil"
)

func TestBuild_Vehicles(t *testing.T) {
	cfg, err := Parse([]byte(testutil.VehiclesConfig))
	require.NoError(t, err)

	r := Build[string](cfg, testutil.NewRecorder("base"))
	assert.Equal(t, []string{"id", "make", "model", "year", "zero_to_sixty"}, r.Fields())

	year, ok := r.Lookup("year")
	require.True(t, ok)
	got, err := year.Build()
	require.NoError(t, err)
	assert.Equal(t, "select(id AS resource_id, year AS value, year AS sort).from(vehicles)", got)

	mk, ok := r.Lookup("make")
	require.True(t, ok)
	got, err = mk.Build()
	require.NoError(t, err)
	assert.Equal(t,
		"select(v.id AS resource_id, m.name AS value, m.name AS sort).from(vehicles AS v).leftJoin(manufacturers AS m, m.id, v.make_id)",
		got)
}

func TestBuild_WithoutColumnSubqueries(t *testing.T) {
	cfg, err := Parse([]byte(testutil.VehiclesConfig))
	require.NoError(t, err)
	cfg.ColumnSubqueries = false

	r := Build[string](cfg, testutil.NewRecorder())
	assert.Equal(t, []string{"make"}, r.Fields())
}

func TestBuild_FieldOverridesColumn(t *testing.T) {
	cfg, err := Parse([]byte(`
table: vehicles
column_subqueries: true
columns:
  - {name: model, type: String}
fields:
  - {name: model, type: String, from: vehicles, resource_id: id, value: lower(model), sort: model}
`))
	require.NoError(t, err)

	r := Build[string](cfg, testutil.NewRecorder())
	model, ok := r.Lookup("model")
	require.True(t, ok)
	got, _ := model.Build()
	assert.Equal(t, "select(id AS resource_id, lower(model) AS value, model AS sort).from(vehicles)", got)
}

func TestLookup(t *testing.T) {
	r := Registry[string]{"make": testutil.NewRecorder(), "gone": nil}

	_, ok := r.Lookup("make")
	assert.True(t, ok)

	_, ok = r.Lookup("gone")
	assert.False(t, ok, "nil entries are treated as absent")

	_, ok = r.Lookup("year")
	assert.False(t, ok)
}

func TestMergeAndFromMap(t *testing.T) {
	first := testutil.NewRecorder("first")
	second := testutil.NewRecorder("second")

	a := FromMap(map[string]querybuilder.Builder[string]{"make": first, "year": first})
	b := FromMap(map[string]querybuilder.Builder[string]{"make": second})

	merged := Merge(a, b)
	assert.Equal(t, []string{"make", "year"}, merged.Fields())

	got, ok := merged.Lookup("make")
	require.True(t, ok)
	assert.Same(t, second, got)

	assert.Len(t, a, 2, "inputs are not modified")
	assert.Empty(t, Merge[string]())
}
