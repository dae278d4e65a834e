// Package storage persists analysis run history in SQLite.
//
// The store keeps one row per completed analysis so clients can ask
// "what did the last run of this repository look like" without
// re-walking it. Two drivers are supported through build tags: the
// pure Go modernc.org/sqlite driver by default, and mattn/go-sqlite3
// under the sqlite_cgo tag.
package storage
