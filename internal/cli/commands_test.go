package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/testutil"
)

// project writes the vehicles config and the given request files into a
// temp dir and returns the dir.
func project(t *testing.T, requests map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sift.yaml"), []byte(testutil.VehiclesConfig), 0o644))
	for name, body := range requests {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

type execResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) execResult {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return execResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

func decode(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "sift", cmd.Use)

	for _, name := range []string{"compile", "query", "validate", "schema", "init"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	for flag, def := range map[string]string{"format": "text", "config": "", "strict": "false", "aliases": "counter"} {
		f := cmd.PersistentFlags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestInvalidSettings(t *testing.T) {
	res := execute(t, "", "schema", "--format", "xml")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	res = execute(t, "", "schema", "--aliases", "random")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestCompile_SQLite(t *testing.T) {
	dir := project(t, map[string]string{"req.json": `{"filter": {"make": "Nissan"}}`})

	res := execute(t, "", "compile", "--config", filepath.Join(dir, "sift.yaml"), filepath.Join(dir, "req.json"))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout,
		`SELECT * FROM "vehicles" WHERE "id" IN (SELECT "resource_id" FROM (SELECT "v"."id" AS "resource_id", "m"."name" AS "value", "m"."name" AS "sort" FROM "vehicles" AS "v" LEFT JOIN "manufacturers" AS "m" ON "m"."id" = "v"."make_id") AS "subquery_make__1" WHERE ("value" = ?));`)
	assert.Contains(t, res.stdout, "-- args: [Nissan]")
}

func TestCompile_PostgresJSON(t *testing.T) {
	dir := project(t, map[string]string{"req.yaml": "filter:\n  year: {gte: 2015}\nsort:\n  make: desc\npage:\n  limit: 2\n"})

	res := execute(t, "", "compile", "--format", "json", "--dialect", "postgres",
		"--config", filepath.Join(dir, "sift.yaml"), filepath.Join(dir, "req.yaml"))
	require.NoError(t, res.err)

	resp := decode(t, res.stdout)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "postgres", data["dialect"])
	assert.Contains(t, data["sql"], `$1`)
	assert.Contains(t, data["sql"], `"subquery_sort"."sort" DESC`)
}

func TestCompile_DialectFromEnv(t *testing.T) {
	t.Setenv("SIFT_DIALECT", "postgres")
	t.Setenv("SIFT_CONFIG", filepath.Join(project(t, nil), "sift.yaml"))

	res := execute(t, `{"filter": {"year": 2015}}`, "compile", "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "$1")
}

func TestCompile_Stdin(t *testing.T) {
	dir := project(t, nil)
	res := execute(t, `{"sort": {"year": "asc"}}`, "compile", "--config", filepath.Join(dir, "sift.yaml"), "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `ORDER BY "subquery_sort"."sort" ASC`)
}

func TestCompile_OutputFile(t *testing.T) {
	dir := project(t, map[string]string{"req.json": `{"page": {"limit": 1}}`})
	out := filepath.Join(dir, "query.sql")

	res := execute(t, "", "compile", "--config", filepath.Join(dir, "sift.yaml"), "-o", out, filepath.Join(dir, "req.json"))
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LIMIT 1")
}

func TestCompile_Errors(t *testing.T) {
	dir := project(t, map[string]string{
		"invalid.json": `{"filter": {"color": "red"}}`,
		"ok.json":      `{}`,
	})
	config := filepath.Join(dir, "sift.yaml")

	testCases := []struct {
		name     string
		args     []string
		exitCode int
		errCode  string
	}{
		{"missing config", []string{"compile", filepath.Join(dir, "ok.json")}, ExitCommandError, ErrCodeConfig},
		{"missing request", []string{"compile", "--config", config, filepath.Join(dir, "nope.json")}, ExitCommandError, ErrCodeNotFound},
		{"validation", []string{"compile", "--config", config, filepath.Join(dir, "invalid.json")}, ExitFailure, ErrCodeValidation},
		{"bad dialect", []string{"compile", "--config", config, "--dialect", "oracle", filepath.Join(dir, "ok.json")}, ExitCommandError, ErrCodeGeneric},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := execute(t, "", append([]string{"--format", "json"}, tc.args...)...)
			require.Error(t, res.err)
			assert.Equal(t, tc.exitCode, GetExitCode(res.err))

			resp := decode(t, res.stdout)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tc.errCode, resp.Error.Code)
		})
	}
}

func TestQuery(t *testing.T) {
	db := testutil.VehiclesFile(t)
	dir := project(t, map[string]string{
		"req.json": `{"filter": {"make": "Nissan", "year": {"gte": 2015}}, "sort": {"year": "desc"}}`,
	})

	res := execute(t, "", "query", "--format", "json", "--db", db,
		"--config", filepath.Join(dir, "sift.yaml"), filepath.Join(dir, "req.json"))
	require.NoError(t, res.err, res.stdout)

	resp := decode(t, res.stdout)
	data := resp.Data.(map[string]any)
	rows := data["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "v-2", rows[0].([]any)[0])
	assert.Equal(t, "v-1", rows[1].([]any)[0])
}

func TestQuery_Text(t *testing.T) {
	t.Setenv("SIFT_DB", testutil.VehiclesFile(t))
	dir := project(t, map[string]string{"req.json": `{"filter": {"model": {"contains": "CIV"}}}`})

	res := execute(t, "", "query", "--config", filepath.Join(dir, "sift.yaml"), filepath.Join(dir, "req.json"))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "v-3")
	assert.Contains(t, res.stdout, "Civic")
	assert.Contains(t, res.stdout, "(1 rows)")
}

func TestQuery_RequiresDatabase(t *testing.T) {
	dir := project(t, map[string]string{"req.json": `{}`})
	res := execute(t, "", "query", "--config", filepath.Join(dir, "sift.yaml"), filepath.Join(dir, "req.json"))
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stdout, ErrCodeDatabase)
}

func TestValidate(t *testing.T) {
	dir := project(t, map[string]string{
		"ok.json":     `{"filter": {"OR": [{"make": "Honda"}, {"year": {"lt": 2015}}]}, "sort": {"model": "asc"}}`,
		"multi.json":  `{"filter": {"year": {"gt": 2014, "lt": 2018}}}`,
		"badop.json":  `{"filter": {"year": {"contains": "20"}}}`,
		"badpage.yml": "page:\n  limit: -5\n",
	})
	config := filepath.Join(dir, "sift.yaml")

	res := execute(t, "", "validate", "--config", config, filepath.Join(dir, "ok.json"))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "✓ request is valid")
	assert.Contains(t, res.stdout, "make, year")
	assert.Contains(t, res.stdout, "model ASC")

	res = execute(t, "", "validate", "--config", config, filepath.Join(dir, "multi.json"))
	require.NoError(t, res.err)

	res = execute(t, "", "validate", "--strict", "--config", config, filepath.Join(dir, "multi.json"))
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	for _, name := range []string{"badop.json", "badpage.yml"} {
		res = execute(t, "", "--format", "json", "validate", "--config", config, filepath.Join(dir, name))
		require.Error(t, res.err, name)
		resp := decode(t, res.stdout)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code, name)
		assert.NotEmpty(t, resp.Error.Details, name)
	}
}

func TestSchema(t *testing.T) {
	res := execute(t, "", "schema")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "input FilterQuery_String {")
	assert.Contains(t, res.stdout, "enum SortDirection {")
	assert.NotContains(t, res.stdout, "VehiclesFilter")

	config := filepath.Join(project(t, nil), "sift.yaml")
	res = execute(t, "", "schema", "--config", config)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "input VehiclesFilter {")
	assert.Contains(t, res.stdout, "  make: FilterQuery_String")

	res = execute(t, "", "schema", "--lang", "cue", "--strict", "--config", config)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "struct.MaxFields(1)")
	assert.Contains(t, res.stdout, "#Request: {")

	res = execute(t, "", "--format", "json", "schema", "--lang", "cue")
	require.NoError(t, res.err)
	data := decode(t, res.stdout).Data.(map[string]any)
	assert.Equal(t, "cue", data["lang"])

	res = execute(t, "", "schema", "--lang", "proto")
	require.Error(t, res.err)
}

func TestInit(t *testing.T) {
	db := testutil.VehiclesFile(t)
	out := filepath.Join(t.TempDir(), "sift.yaml")

	res := execute(t, "", "init", "--db", db, "--table", "vehicles", "-o", out)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "table: vehicles")
	assert.Contains(t, res.stdout, "column_subqueries: true")

	// The generated config drives the other commands.
	reqPath := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(reqPath, []byte(`{"filter": {"zero_to_sixty": {"lt": 7}}}`), 0o644))
	res = execute(t, "", "query", "--db", db, "--config", out, reqPath)
	require.NoError(t, res.err, res.stdout)
	assert.Contains(t, res.stdout, "v-3")
	assert.Contains(t, res.stdout, "(1 rows)")
}

func TestInit_Errors(t *testing.T) {
	res := execute(t, "", "init", "--table", "vehicles", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, ErrCodeNotFound)

	res = execute(t, "", "init", "--table", "trucks", "--db", testutil.VehiclesFile(t))
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, ErrCodeDatabase)
}
