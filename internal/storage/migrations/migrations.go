// Package migrations holds the embedded schema of every storage backend.
// Backends apply them through Load; this package imports none of them.
package migrations

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migration is one embedded SQL file.
type Migration struct {
	Version string // file name without extension, e.g. "001_core"
	SQL     string
}

// Load returns the non-empty .sql files of dir in lexical order.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	out := make([]Migration, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, Migration{
			Version: strings.TrimSuffix(file, ".sql"),
			SQL:     string(data),
		})
	}
	return out, nil
}

// Postgres returns the PostgreSQL migrations.
func Postgres() ([]Migration, error) { return Load(PostgresFS, "postgres") }

// SQLite returns the SQLite migrations.
func SQLite() ([]Migration, error) { return Load(SQLiteFS, "sqlite") }

// Clickhouse returns the ClickHouse migrations.
func Clickhouse() ([]Migration, error) { return Load(ClickhouseFS, "clickhouse") }

// SplitStatements splits SQL content into individual statements by semicolon.
//
// The splitter does NOT handle semicolons inside string literals, inside
// /* */ comments, or dollar-quoted strings. Migrations split with it must
// use -- comments only. Call ValidateNoSemicolonInStrings first.
func SplitStatements(input string) []string {
	var filtered []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		filtered = append(filtered, line)
	}
	joined := strings.Join(filtered, "\n")

	var stmts []string
	for _, part := range strings.Split(joined, ";") {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// ValidateNoSemicolonInStrings rejects SQL with a semicolon inside a
// single-quoted string, which SplitStatements would cut in half.
func ValidateNoSemicolonInStrings(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch == '\'' {
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		} else if ch == ';' && inString {
			return fmt.Errorf("semicolon found inside string literal - this breaks the migration splitter")
		}
	}
	return nil
}
