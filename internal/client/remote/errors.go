package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// MapError classifies a failure of a remote call. Transport failures become
// common.ErrNetworkUnavailable and missing rows common.ErrNotFound. Errors
// reported by the server are returned wrapped but unclassified.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrNetworkUnavailable), errors.Is(err, common.ErrNotFound):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", common.ErrNotFound, err)
	case isNetwork(err):
		return fmt.Errorf("%w: %w", common.ErrNetworkUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("remote rejected request (%s): %w", pgErr.Code, err)
	}
	return err
}

// IsNetwork reports whether err means the remote could not be reached.
func IsNetwork(err error) bool {
	return errors.Is(MapError(err), common.ErrNetworkUnavailable)
}

func isNetwork(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08 is connection exception; 57P01..57P03 are shutdowns
		return strings.HasPrefix(pgErr.Code, "08") ||
			pgErr.Code == "57P01" || pgErr.Code == "57P02" || pgErr.Code == "57P03"
	}
	return false
}
