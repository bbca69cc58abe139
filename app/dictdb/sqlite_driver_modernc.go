//go:build native_sqlite
// +build native_sqlite

package dictdb

import (
	_ "modernc.org/sqlite"
)

const SQLiteDriverName = "sqlite"
