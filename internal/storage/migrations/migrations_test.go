package migrations

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SortsAndSkipsEmpty(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_b.sql":  {Data: []byte("CREATE TABLE b (x INT);")},
		"m/001_a.sql":  {Data: []byte("CREATE TABLE a (x INT);")},
		"m/003_c.sql":  {Data: []byte("  \n")},
		"m/README.txt": {Data: []byte("not sql")},
	}

	got, err := Load(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "001_a", got[0].Version)
	assert.Equal(t, "002_b", got[1].Version)
}

func TestEmbeddedMigrations(t *testing.T) {
	for name, load := range map[string]func() ([]Migration, error){
		"postgres":   Postgres,
		"sqlite":     SQLite,
		"clickhouse": Clickhouse,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := load()
			require.NoError(t, err)
			require.NotEmpty(t, got)
			for _, m := range got {
				assert.NoError(t, ValidateNoSemicolonInStrings(m.SQL), m.Version)
			}
		})
	}
}

func TestEmbeddedMigrations_CoverTables(t *testing.T) {
	for name, load := range map[string]func() ([]Migration, error){
		"postgres": Postgres,
		"sqlite":   SQLite,
	} {
		got, err := load()
		require.NoError(t, err)

		var all strings.Builder
		for _, m := range got {
			all.WriteString(m.SQL)
		}
		for _, table := range []string{"items", "snapshots", "momentum_records", "runs"} {
			assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table, "%s: %s", name, table)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- comment; with semicolon
CREATE TABLE a (x Int64);

CREATE TABLE b (
    y String
);
`
	stmts := SplitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int64)", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b"))
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, ValidateNoSemicolonInStrings("SELECT 'it''s'; SELECT 1;"))
	assert.Error(t, ValidateNoSemicolonInStrings("SELECT 'a;b';"))
}
