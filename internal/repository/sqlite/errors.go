package sqlite

import (
	"errors"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// uniqueViolation reports whether err is a UNIQUE constraint failure and, if
// so, the "table.column" it was raised for.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	var se *msqlite.Error
	if errors.As(err, &se) {
		if se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE && se.Code() != sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return "", false
		}
	} else if !strings.Contains(msg, "UNIQUE constraint failed") {
		return "", false
	}

	const marker = "UNIQUE constraint failed: "
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", true
	}
	column := msg[idx+len(marker):]
	if end := strings.IndexAny(column, " ,("); end >= 0 {
		column = column[:end]
	}
	return column, true
}
