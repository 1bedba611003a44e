package localstore

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// unavailableCodes are primary result codes meaning the engine itself
// cannot serve requests, as opposed to a rejected statement.
var unavailableCodes = map[int]bool{
	sqlite3.SQLITE_PERM:     true,
	sqlite3.SQLITE_BUSY:     true,
	sqlite3.SQLITE_LOCKED:   true,
	sqlite3.SQLITE_NOMEM:    true,
	sqlite3.SQLITE_READONLY: true,
	sqlite3.SQLITE_IOERR:    true,
	sqlite3.SQLITE_CORRUPT:  true,
	sqlite3.SQLITE_FULL:     true,
	sqlite3.SQLITE_CANTOPEN: true,
	sqlite3.SQLITE_NOTADB:   true,
}

// MapError marks storage-engine failures with common.ErrStorageUnavailable.
// Other errors, including nil, are returned unchanged.
func MapError(err error) error {
	if err == nil || errors.Is(err, common.ErrStorageUnavailable) {
		return err
	}

	var se *sqlite.Error
	if errors.As(err, &se) && unavailableCodes[se.Code()&0xff] {
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	if strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return err
}
