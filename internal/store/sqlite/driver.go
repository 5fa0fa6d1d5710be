package sqlite

import (
	"database/sql"
	"strings"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// DriverName is the project-specific SQLite driver registration.
	DriverName = "sqlite3_notes_admin"
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{})
}

func commonParams() string {
	// WAL + NORMAL provides good throughput while preserving safety.
	return "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
}

func appendParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}
