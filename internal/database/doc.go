// Package database stores the history of analyses in SQLite
// (modernc.org/sqlite, no cgo). Each analysis is one row with its
// searchable fields plus the full record as JSON.
package database
