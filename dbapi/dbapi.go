// Package dbapi declares the minimal database-driver capability relsync
// depends on (spec §6 "Database driver"). The query builder, the catalog
// reader, and the fulfillment executor all talk to a live database only
// through this interface; package dbconn supplies the pgx-backed
// implementation, but any driver exposing this shape works.
package dbapi

import "context"

// Rows is a forward-only cursor over a query result, binary-compatible
// with *pgx.Rows (Next/Scan/Close/Err) so the pgx implementation needs no
// wrapping.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// Querier issues a parameterized, read-only SQL query and returns a row
// cursor. Parameters are bound $1-style.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Execer runs a statement that does not return rows (DDL, DML) and reports
// the number of affected rows where the underlying driver tracks it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// Conn is the full capability relsync requires from a database connection
// or pool: reading rows and executing statements.
type Conn interface {
	Querier
	Execer
}

// QueryError wraps a driver error with the SQL that produced it, so
// callers never need to thread the offending statement through manually.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return "executing query: " + e.Err.Error() + "\nSQL: " + e.SQL
}

func (e *QueryError) Unwrap() error { return e.Err }

// Wrap associates a driver error with the SQL statement that failed.
func Wrap(sql string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{SQL: sql, Err: err}
}
