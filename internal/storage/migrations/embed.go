package migrations

import "embed"

// PostgresFS holds the relational schema: risks, controls, rules, clients,
// buckets and scenarios.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the versioned forecast week table.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
