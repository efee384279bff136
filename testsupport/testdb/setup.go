package testdb

import (
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/mpapenbr/ledtrack-go/testsupport/tcpostgres"
)

// InitTestDb provides a migrated database with empty tables.
// TESTDB_URL overrides the testcontainers instance.
func InitTestDb() *pgxpool.Pool {
	var pool *pgxpool.Pool

	if url := os.Getenv("TESTDB_URL"); url != "" {
		pool = tcpg.SetupExternalTestDb(url)
	} else {
		pool = tcpg.SetupTestDb()
	}
	tcpg.ClearAllTables(pool)
	return pool
}
