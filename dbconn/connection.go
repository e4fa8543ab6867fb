// Package dbconn wires a pgx connection pool as relsync's default
// dbapi.Conn implementation. Grounded on
// _examples/ridoystarlord-migrato/database/connection.go's sync.Once
// singleton pool pattern.
package dbconn

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/arjunmehta/relsync/dbapi"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// LoadEnv loads a .env file into the process environment if one is
// present. A missing file is not an error; it only ever logs a notice,
// mirroring utils/env.go's LoadEnv.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, continuing with process environment")
	}
}

// GetPool returns the process-wide connection pool, built once from
// DATABASE_URL and verified with a Ping.
func GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		LoadEnv()
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			poolErr = fmt.Errorf("DATABASE_URL not set in environment")
			return
		}

		pool, poolErr = pgxpool.New(ctx, connStr)
		if poolErr != nil {
			poolErr = fmt.Errorf("creating connection pool: %w", poolErr)
			return
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			poolErr = fmt.Errorf("pinging database: %w", err)
			return
		}
	})

	return pool, poolErr
}

// ClosePool releases the process-wide pool. Call on application shutdown.
func ClosePool() {
	if pool != nil {
		pool.Close()
	}
}

// PoolConn adapts a *pgxpool.Pool to dbapi.Conn.
type PoolConn struct {
	pool *pgxpool.Pool
}

// NewPoolConn wraps a pool as a dbapi.Conn.
func NewPoolConn(pool *pgxpool.Pool) PoolConn {
	return PoolConn{pool: pool}
}

// Connect is a convenience that loads the default pool and wraps it.
func Connect(ctx context.Context) (PoolConn, error) {
	pool, err := GetPool(ctx)
	if err != nil {
		return PoolConn{}, err
	}
	return NewPoolConn(pool), nil
}

func (c PoolConn) Query(ctx context.Context, sql string, args ...any) (dbapi.Rows, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c PoolConn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := c.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
