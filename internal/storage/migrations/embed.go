package migrations

import "embed"

// Schema files per backend, applied in lexical order.
var (
	//go:embed postgres/*.sql
	PostgresFS embed.FS

	//go:embed sqlite/*.sql
	SQLiteFS embed.FS

	//go:embed clickhouse/*.sql
	ClickhouseFS embed.FS
)
