package compiler_test

import (
	"context"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/querybuilder"
	"github.com/roach88/sift/internal/registry"
	"github.com/roach88/sift/internal/request"
	"github.com/roach88/sift/internal/sqbuilder"
	"github.com/roach88/sift/internal/store"
	"github.com/roach88/sift/internal/testutil"
)

type harness struct {
	t          *testing.T
	store      *store.Store
	subqueries registry.Registry[sq.SelectBuilder]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := testutil.OpenVehicles(t)

	cfg, err := registry.Parse([]byte(testutil.VehiclesConfig))
	require.NoError(t, err)

	base, err := sqbuilder.New(sqbuilder.Options{Runner: s.DB()})
	require.NoError(t, err)

	return &harness{t: t, store: s, subqueries: registry.Build[sq.SelectBuilder](cfg, base)}
}

// run compiles req against seed and executes it.
func (h *harness) run(c *compiler.Compiler[sq.SelectBuilder], seed sq.SelectBuilder, req *request.Request) (string, *store.Result) {
	h.t.Helper()
	sel, err := sqbuilder.Compile(c, sqbuilder.Options{Runner: h.store.DB(), Query: &seed}, req)
	require.NoError(h.t, err)

	query, args, err := sel.ToSql()
	require.NoError(h.t, err)

	res, err := h.store.Query(context.Background(), query, args...)
	require.NoError(h.t, err, query)
	return query, res
}

func (h *harness) filterIDs(input string) []string {
	h.t.Helper()
	e, err := filter.ParseJSON([]byte(input))
	require.NoError(h.t, err)
	_, res := h.run(compiler.New(h.subqueries), sqbuilder.Table("vehicles"), &request.Request{Filter: e})
	return testutil.IDs(res)
}

func TestSQLite_Filter(t *testing.T) {
	h := newHarness(t)

	testCases := []struct {
		name   string
		filter string
		want   []int
	}{
		{"empty", `{}`, []int{0, 1, 2, 3, 4, 5}},
		{"eq", `{"year": {"eq": 2015}}`, []int{1, 4}},
		{"ne", `{"year": {"ne": 2016}}`, []int{0, 1, 3, 4}},
		{"in", `{"year": {"in": [2014, 2015]}}`, []int{0, 1, 4}},
		{"nin", `{"year": {"nin": [2014, 2015]}}`, []int{2, 3}},
		{"gt", `{"year": {"gt": 2015}}`, []int{2, 3}},
		{"gte", `{"year": {"gte": 2015}}`, []int{1, 2, 3, 4}},
		{"lt", `{"year": {"lt": 2016}}`, []int{0, 1, 4}},
		{"lte", `{"year": {"lte": 2015}}`, []int{0, 1, 4}},
		{"float", `{"zero_to_sixty": {"lt": 7.9}}`, []int{1, 3}},
		{"eq null", `{"year": {"eq": null}}`, []int{5}},
		{"ne null", `{"year": {"ne": null}}`, []int{0, 1, 2, 3, 4}},
		{"contains", `{"model": {"contains": "i"}}`, []int{0, 1, 3, 4}},
		{"contains case insensitive", `{"model": {"contains": "cI"}}`, []int{3}},
		{"and", `{"year": {"AND": [{"in": [2015, 2016, 2017, 2018]}, {"gte": 2016}]}}`, []int{2, 3}},
		{"or", `{"year": {"OR": [{"lte": 2015}, {"eq": null}]}}`, []int{0, 1, 4, 5}},
		{"and with nested or", `{"year": {"AND": [{"gt": 2014}, {"OR": [{"lte": 2015}, {"ne": 2018}]}]}}`, []int{1, 2, 4}},
		{"multiple subqueries", `{"AND": [{"year": {"gte": 2015}}, {"make": {"eq": "Nissan"}}]}`, []int{1, 2}},
		{"implicit and", `{"year": {"gte": 2015}, "make": {"eq": "Honda"}}`, []int{3, 4}},
		{"implicit and nested", `{"year": {"gte": 2015, "lt": 2018}}`, []int{1, 2, 4}},
		{"mixed implicit and explicit", `{"make": "Nissan", "OR": [{"model": "Sentra"}, {"year": 2015}]}`, []int{1, 2}},
		{"implicit eq", `{"model": "Civic"}`, []int{3}},
		{"implicit in", `{"year": [2015, 2016]}`, []int{1, 2, 4}},
		{"same virtual field twice", `{"OR": [{"make": "Nissan"}, {"make": "Honda"}]}`, []int{0, 1, 2, 3, 4, 5}},
		{"no match", `{"make": "Tesla"}`, []int{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ElementsMatch(t, testutil.VehicleIDs(tc.want...), h.filterIDs(tc.filter))
		})
	}
}

func TestSQLite_ImplicitEquivalence(t *testing.T) {
	h := newHarness(t)

	assert.ElementsMatch(t, h.filterIDs(`{"model": {"eq": "Civic"}}`), h.filterIDs(`{"model": "Civic"}`))
	assert.ElementsMatch(t, h.filterIDs(`{"year": {"in": [2015, 2016]}}`), h.filterIDs(`{"year": [2015, 2016]}`))
}

func TestSQLite_NullPartition(t *testing.T) {
	h := newHarness(t)

	isNull := h.filterIDs(`{"year": {"eq": null}}`)
	notNull := h.filterIDs(`{"year": {"ne": null}}`)

	assert.ElementsMatch(t, testutil.VehicleIDs(0, 1, 2, 3, 4, 5), append(isNull, notNull...))
	for _, id := range isNull {
		assert.NotContains(t, notNull, id)
	}
}

func TestSQLite_ImplicitColumns(t *testing.T) {
	h := newHarness(t)

	testCases := []struct {
		name       string
		filter     string
		subqueries registry.Registry[sq.SelectBuilder]
		wantSQL    string
		want       []int
	}{
		{
			name:    "explicit eq",
			filter:  `{"model": {"eq": "Altima"}}`,
			wantSQL: `SELECT * FROM "vehicles" WHERE ("model" = ?)`,
			want:    []int{0, 1},
		},
		{
			name:    "explicit and",
			filter:  `{"year": {"AND": [{"lt": 2018}, {"gt": 2015}]}}`,
			wantSQL: `SELECT * FROM "vehicles" WHERE (("year" < ?) AND ("year" > ?))`,
			want:    []int{2},
		},
		{
			name:    "explicit or",
			filter:  `{"year": {"OR": [{"eq": null}, {"gt": 2017}]}}`,
			wantSQL: `SELECT * FROM "vehicles" WHERE (("year" IS NULL) OR ("year" > ?))`,
			want:    []int{3, 5},
		},
		{
			name:    "implicit eq",
			filter:  `{"model": "Odyssey"}`,
			wantSQL: `SELECT * FROM "vehicles" WHERE ("model" = ?)`,
			want:    []int{5},
		},
		{
			name:       "other subqueries registered",
			filter:     `{"model": "Odyssey"}`,
			subqueries: registry.Registry[sq.SelectBuilder]{"make": h.subqueries["make"]},
			wantSQL:    `SELECT * FROM "vehicles" WHERE ("model" = ?)`,
			want:       []int{5},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := filter.ParseJSON([]byte(tc.filter))
			require.NoError(t, err)

			query, res := h.run(compiler.New(tc.subqueries), sqbuilder.Table("vehicles"), &request.Request{Filter: e})
			assert.Equal(t, tc.wantSQL, query)
			assert.ElementsMatch(t, testutil.VehicleIDs(tc.want...), testutil.IDs(res))
		})
	}
}

func TestSQLite_VirtualFieldSQL(t *testing.T) {
	h := newHarness(t)

	e, err := filter.ParseJSON([]byte(`{"make": "Nissan"}`))
	require.NoError(t, err)

	query, res := h.run(compiler.New(h.subqueries), sqbuilder.Table("vehicles"), &request.Request{Filter: e})
	assert.Equal(t,
		`SELECT * FROM "vehicles" WHERE "id" IN (SELECT "resource_id" FROM (SELECT "v"."id" AS "resource_id", "m"."name" AS "value", "m"."name" AS "sort" FROM "vehicles" AS "v" LEFT JOIN "manufacturers" AS "m" ON "m"."id" = "v"."make_id") AS "subquery_make__1" WHERE ("value" = ?))`,
		query)
	assert.ElementsMatch(t, testutil.VehicleIDs(0, 1, 2), testutil.IDs(res))
}

func TestSQLite_Sort(t *testing.T) {
	h := newHarness(t)
	c := compiler.New(h.subqueries)

	t.Run("zero sort keeps every row", func(t *testing.T) {
		_, res := h.run(c, sqbuilder.Table("vehicles"), &request.Request{})
		assert.Len(t, res.Rows, 6)
	})

	t.Run("keeps the input projection", func(t *testing.T) {
		_, res := h.run(c, sq.Select("id", "model").From("vehicles"),
			&request.Request{Sort: request.Sort{Field: "year", Direction: querybuilder.Asc}})
		assert.Equal(t, []string{"id", "model"}, res.Columns)
		assert.Len(t, res.Rows, 6)
	})

	t.Run("asc", func(t *testing.T) {
		_, res := h.run(c, sqbuilder.Table("vehicles"),
			&request.Request{Sort: request.Sort{Field: "zero_to_sixty", Direction: querybuilder.Asc}})
		// SQLite orders NULL first.
		assert.Equal(t, testutil.VehicleIDs(5, 3, 1, 0, 2, 4), testutil.IDs(res))
	})

	t.Run("desc", func(t *testing.T) {
		_, res := h.run(c, sqbuilder.Table("vehicles"),
			&request.Request{Sort: request.Sort{Field: "zero_to_sixty", Direction: querybuilder.Desc}})
		assert.Equal(t, testutil.VehicleIDs(4, 2, 0, 1, 3, 5), testutil.IDs(res))
	})

	t.Run("virtual field", func(t *testing.T) {
		_, res := h.run(c, sqbuilder.Table("vehicles"),
			&request.Request{Sort: request.Sort{Field: "make", Direction: querybuilder.Asc}})
		ids := testutil.IDs(res)
		require.Len(t, ids, 6)
		assert.ElementsMatch(t, testutil.VehicleIDs(3, 4, 5), ids[:3])
		assert.ElementsMatch(t, testutil.VehicleIDs(0, 1, 2), ids[3:])
	})

	t.Run("implicit column", func(t *testing.T) {
		query, _ := h.run(compiler.New[sq.SelectBuilder](nil), sqbuilder.Table("vehicles"),
			&request.Request{Sort: request.Sort{Field: "year", Direction: querybuilder.Asc}})
		assert.Equal(t, `SELECT * FROM "vehicles" ORDER BY "year" ASC`, query)
	})

	t.Run("distinct query", func(t *testing.T) {
		subqueries := sqbuilder.Subqueries(h.store.DB(), map[string]sq.SelectBuilder{
			"arbitrarySort": sq.Select(
				"m.id AS resource_id",
				"m.name AS value",
				"(CASE WHEN m.name = 'Honda' THEN 0 ELSE 1 END) AS sort",
			).From("manufacturers AS m"),
		})
		seed := sq.Select("m.*").Distinct().
			From("manufacturers AS m").
			LeftJoin("vehicles AS v ON v.make_id = m.id")

		_, res := h.run(compiler.New(subqueries), seed,
			&request.Request{Sort: request.Sort{Field: "arbitrarySort", Direction: querybuilder.Asc}})
		assert.Equal(t, []string{"m-honda", "m-nissan"}, testutil.IDs(res))
		assert.Equal(t, []string{"id", "name"}, res.Columns)
	})
}

func TestSQLite_Page(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Exec(context.Background(), `
		CREATE TABLE page_test (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO page_test VALUES (0, 'a'), (1, 'b'), (2, 'c'), (3, 'd'), (4, 'e');
	`))
	seed := sq.Select("*").From("page_test").OrderBy("id")
	c := compiler.New[sq.SelectBuilder](nil)

	ids := func(res *store.Result) []int64 {
		out := []int64{}
		for _, row := range res.Rows {
			out = append(out, row[0].(int64))
		}
		return out
	}

	testCases := []struct {
		name string
		page *request.Page
		want []int64
	}{
		{"nil page", nil, []int64{0, 1, 2, 3, 4}},
		{"empty page", &request.Page{}, []int64{0, 1, 2, 3, 4}},
		{"offset only", &request.Page{Offset: request.Int64(2)}, []int64{2, 3, 4}},
		{"limit only", &request.Page{Limit: request.Int64(2)}, []int64{0, 1}},
		{"limit and offset", &request.Page{Limit: request.Int64(1), Offset: request.Int64(3)}, []int64{3}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, res := h.run(c, seed, &request.Request{Page: tc.page})
			assert.Equal(t, tc.want, ids(res))
		})
	}
}

func TestSQLite_Apply(t *testing.T) {
	h := newHarness(t)

	req, err := request.ParseJSON([]byte(`{
		"filter": {"make": "Honda"},
		"sort": {"zero_to_sixty": "desc"},
		"page": {"limit": 2}
	}`))
	require.NoError(t, err)

	_, res := h.run(compiler.New(h.subqueries), sqbuilder.Table("vehicles"), req)
	assert.Equal(t, testutil.VehicleIDs(4, 3), testutil.IDs(res))
}

func TestSQLite_FilterConjoinsWithBuilderPredicates(t *testing.T) {
	h := newHarness(t)
	c := compiler.New(h.subqueries)

	testCases := []struct {
		name   string
		filter string
		want   []int
	}{
		{"disjoint or", `{"OR": [{"year": 2014}, {"year": 2016}]}`, []int{}},
		{"overlapping or", `{"OR": [{"year": 2014}, {"year": 2018}]}`, []int{3}},
		{"field or", `{"year": {"OR": [{"eq": 2014}, {"eq": 2018}]}}`, []int{3}},
		{"and", `{"AND": [{"year": {"gte": 2015}}, {"make": "Honda"}]}`, []int{3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seed := sqbuilder.Table("vehicles")
			b, err := sqbuilder.New(sqbuilder.Options{Runner: h.store.DB(), Query: &seed})
			require.NoError(t, err)
			base := b.Where("model", querybuilder.OpEq, "Civic")

			e, err := filter.ParseJSON([]byte(tc.filter))
			require.NoError(t, err)
			q, err := c.Filter(e, base)
			require.NoError(t, err)

			query, args, err := sqbuilder.ToSQL(q)
			require.NoError(t, err)
			res, err := h.store.Query(context.Background(), query, args...)
			require.NoError(t, err, query)
			assert.ElementsMatch(t, testutil.VehicleIDs(tc.want...), testutil.IDs(res), query)
		})
	}
}

func TestSQLite_StringOperandsAreNotNormalized(t *testing.T) {
	s := testutil.OpenFixture(t, `
CREATE TABLE drinks (id TEXT PRIMARY KEY, name TEXT);
`)
	ctx := context.Background()
	_, err := s.DB().ExecContext(ctx, "INSERT INTO drinks (id, name) VALUES (?, ?), (?, ?)",
		"decomposed", "Cafe\u0301", "composed", "Caf\u00e9")
	require.NoError(t, err)

	run := func(input string) []string {
		e, err := filter.ParseJSON([]byte(input))
		require.NoError(t, err)
		sel, err := sqbuilder.Compile(compiler.New[sq.SelectBuilder](nil),
			sqbuilder.Options{Runner: s.DB(), Query: ptr(sqbuilder.Table("drinks"))},
			&request.Request{Filter: e})
		require.NoError(t, err)
		query, args, err := sel.ToSql()
		require.NoError(t, err)
		res, err := s.Query(ctx, query, args...)
		require.NoError(t, err)
		return testutil.IDs(res)
	}

	assert.Equal(t, []string{"decomposed"}, run(`{"name": "Cafe\u0301"}`))
	assert.Equal(t, []string{"composed"}, run(`{"name": {"eq": "Caf\u00e9"}}`))
	assert.Equal(t, []string{"decomposed"}, run(`{"name": {"in": ["Cafe\u0301"]}}`))
	assert.Equal(t, []string{"composed"}, run(`{"name": {"ne": "Cafe\u0301"}}`))
}

func TestSQLite_VirtualFieldValueShadowsBaseColumn(t *testing.T) {
	s := testutil.OpenFixture(t, testutil.ListingsDDL)

	cfg, err := registry.Parse([]byte(testutil.ListingsConfig))
	require.NoError(t, err)
	base, err := sqbuilder.New(sqbuilder.Options{Runner: s.DB()})
	require.NoError(t, err)
	c := compiler.New(registry.Build[sq.SelectBuilder](cfg, base))

	run := func(input string) []string {
		req, err := request.ParseJSON([]byte(input))
		require.NoError(t, err)
		sel, err := sqbuilder.Compile(c,
			sqbuilder.Options{Runner: s.DB(), Query: ptr(sqbuilder.Table("listings"))}, req)
		require.NoError(t, err)
		query, args, err := sel.ToSql()
		require.NoError(t, err)
		res, err := s.Query(context.Background(), query, args...)
		require.NoError(t, err, query)
		return testutil.IDs(res)
	}

	assert.Equal(t, []string{"l-2"}, run(`{"filter": {"appraisal": 100}}`))
	assert.Equal(t, []string{"l-1"}, run(`{"filter": {"appraisal": {"gt": 400}}}`))
	assert.Equal(t, []string{"l-2", "l-1"}, run(`{"filter": {"appraisal": {"ne": null}}, "sort": {"appraisal": "asc"}}`))

	// The base column stays reachable as an ordinary column.
	assert.Equal(t, []string{"l-1"}, run(`{"filter": {"value": 100}}`))
}

func ptr[T any](v T) *T {
	return &v
}
