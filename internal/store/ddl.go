package store

import (
	_ "embed"
	"strings"
)

//go:embed schema_postgres.sql
var postgresDDL string

//go:embed schema_sqlite.sql
var sqliteDDL string

// DDLStatements returns the CREATE TABLE / INDEX statements for the given
// driver ("postgres" or "sqlite"), split for drivers that execute one
// statement at a time. Used by stores and test setup.
func DDLStatements(driver string) []string {
	src := postgresDDL
	if driver == "sqlite" {
		src = sqliteDDL
	}
	parts := strings.Split(src, ";")
	var out []string
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
