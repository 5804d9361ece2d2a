package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/store"
)

// Manufacturer and vehicle ids in fixture order. Tests select expected rows
// by index, for example VehicleIDs(1, 4).
var (
	ManufacturerIDs = []string{"m-nissan", "m-honda"}
	vehicleIDs      = []string{"v-0", "v-1", "v-2", "v-3", "v-4", "v-5"}
)

// VehiclesDDL creates and fills the manufacturers and vehicles tables:
//
//	idx  make    model    year  zero_to_sixty
//	0    Nissan  Altima   2014  7.9
//	1    Nissan  Altima   2015  7.5
//	2    Nissan  Sentra   2016  8.6
//	3    Honda   Civic    2018  6.8
//	4    Honda   Pilot    2015  9.1
//	5    Honda   Odyssey  NULL  NULL
const VehiclesDDL = `
CREATE TABLE manufacturers (
	id   TEXT PRIMARY KEY,
	name TEXT
);
CREATE TABLE vehicles (
	id            TEXT PRIMARY KEY,
	make_id       TEXT REFERENCES manufacturers(id),
	model         TEXT,
	year          INTEGER,
	zero_to_sixty REAL
);
INSERT INTO manufacturers (id, name) VALUES
	('m-nissan', 'Nissan'),
	('m-honda',  'Honda');
INSERT INTO vehicles (id, make_id, model, year, zero_to_sixty) VALUES
	('v-0', 'm-nissan', 'Altima',  2014, 7.9),
	('v-1', 'm-nissan', 'Altima',  2015, 7.5),
	('v-2', 'm-nissan', 'Sentra',  2016, 8.6),
	('v-3', 'm-honda',  'Civic',   2018, 6.8),
	('v-4', 'm-honda',  'Pilot',   2015, 9.1),
	('v-5', 'm-honda',  'Odyssey', NULL, NULL);
`

// VehiclesConfig is a registry config for the fixture: every column gets a
// derived subquery and make is a virtual field joined from manufacturers.
const VehiclesConfig = `
table: vehicles
id: id
column_subqueries: true
columns:
  - {name: id, type: ID}
  - {name: model, type: String}
  - {name: year, type: Int}
  - {name: zero_to_sixty, type: Float}
fields:
  - name: make
    type: String
    from: vehicles AS v
    joins:
      - {table: manufacturers AS m, left: m.id, right: v.make_id}
    resource_id: v.id
    value: m.name
`

// ListingsDDL creates a base table with its own value column. The
// appraisal of each listing deliberately differs from its value.
//
//	id   value  appraisal
//	l-1  100    500
//	l-2  500    100
//	l-3  300    NULL
const ListingsDDL = `
CREATE TABLE listings (
	id    TEXT PRIMARY KEY,
	value INTEGER
);
CREATE TABLE appraisals (
	listing_id TEXT REFERENCES listings(id),
	amount     INTEGER
);
INSERT INTO listings (id, value) VALUES
	('l-1', 100),
	('l-2', 500),
	('l-3', 300);
INSERT INTO appraisals (listing_id, amount) VALUES
	('l-1', 500),
	('l-2', 100);
`

// ListingsConfig registers appraisal as a virtual field over appraisals.
const ListingsConfig = `
table: listings
columns:
  - {name: id, type: ID}
  - {name: value, type: Int}
fields:
  - name: appraisal
    type: Int
    from: appraisals
    resource_id: listing_id
    value: amount
`

// OpenVehicles opens a temporary database loaded with VehiclesDDL.
func OpenVehicles(t *testing.T) *store.Store {
	t.Helper()
	return OpenFixture(t, VehiclesDDL)
}

// OpenFixture opens a temporary database and runs ddl against it.
func OpenFixture(t *testing.T, ddl string) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "fixture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Exec(context.Background(), ddl))
	return s
}

// VehiclesFile writes the fixture to a temporary database file, closes it
// and returns its path, for code that opens databases by path.
func VehiclesFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vehicles.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Exec(context.Background(), VehiclesDDL))
	require.NoError(t, s.Close())
	return path
}

// VehicleIDs returns fixture vehicle ids by index.
func VehicleIDs(indices ...int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = vehicleIDs[idx]
	}
	return out
}

// IDs extracts the first column of each row as a string.
func IDs(res *store.Result) []string {
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		s, _ := row[0].(string)
		out = append(out, s)
	}
	return out
}
