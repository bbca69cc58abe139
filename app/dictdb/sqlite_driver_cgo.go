//go:build !native_sqlite
// +build !native_sqlite

package dictdb

import (
	_ "github.com/mattn/go-sqlite3"
)

const SQLiteDriverName = "sqlite3"
