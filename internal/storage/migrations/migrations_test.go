package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestSplitStatements_ClickhouseMigrations(t *testing.T) {
	data, err := fs.ReadFile(ClickhouseFS, "clickhouse/001_forecasts.sql")
	if err != nil {
		t.Fatalf("read embedded migration: %v", err)
	}
	if err := validateNoSemicolonInStrings(string(data)); err != nil {
		t.Fatalf("validate: %v", err)
	}

	stmts := splitStatements(string(data))
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	for _, stmt := range stmts {
		if !strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("unexpected statement start: %q", stmt[:min(len(stmt), 40)])
		}
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	if err := validateNoSemicolonInStrings("SELECT 'a;b'"); err == nil {
		t.Error("expected error for semicolon inside string literal")
	}
	if err := validateNoSemicolonInStrings("SELECT 'it''s'; SELECT 1;"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/tamio")
	if err != nil || db != "tamio" {
		t.Errorf("databaseFromDSN = %q, %v", db, err)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for DSN without database")
	}
}

func TestPostgresMigrationsEmbedded(t *testing.T) {
	data, err := fs.ReadFile(PostgresFS, "postgres/001_core.sql")
	if err != nil {
		t.Fatalf("read embedded migration: %v", err)
	}
	for _, table := range []string{"risks", "controls", "financial_rules", "clients", "expense_buckets", "scenarios"} {
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("missing table %s", table)
		}
	}
}

func TestSQLFiles_SortedAndScoped(t *testing.T) {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		t.Fatalf("sqlFiles: %v", err)
	}
	if len(files) == 0 || files[0] != "postgres/001_core.sql" {
		t.Fatalf("unexpected files %v", files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] > files[i] {
			t.Errorf("files out of order: %v", files)
		}
	}
	if _, err := sqlFiles(PostgresFS, "missing"); err == nil {
		t.Error("expected error for a missing directory")
	}
}
