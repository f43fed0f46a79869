// Package storage implements evidence.Storage backends.
//
// MemoryStorage keeps records in process memory. SQLiteStorage persists them
// to a SQLite file using either the pure-Go driver (modernc.org/sqlite,
// driver name "sqlite") or the cgo driver (github.com/mattn/go-sqlite3,
// driver name "sqlite3"). Both backends order query results by recorded
// time and apply pagination after filtering; Count and Delete ignore
// pagination.
package storage
