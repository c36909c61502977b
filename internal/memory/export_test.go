package memory

import (
	"database/sql"
	"time"
)

// DB exposes the local backend's *sql.DB for tests in memory_test.
// This file only compiles during `go test`.
func (b *LocalBackend) DB() *sql.DB {
	return b.db
}

// SetTimeNow replaces the package clock and returns a restore func.
func SetTimeNow(f func() time.Time) func() {
	prev := timeNow
	timeNow = f
	return func() { timeNow = prev }
}

// VectorLiteral exposes vectorLiteral for tests.
var VectorLiteral = vectorLiteral
