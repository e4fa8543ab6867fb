package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/arjunmehta/relsync/dbapi"
	"github.com/arjunmehta/relsync/schema"
)

// fakeRows is a canned dbapi.Rows cursor over a fixed set of pre-scanned
// rows; scan is applied via a closure per row so different queries can
// supply differently shaped tuples without a type switch here.
type fakeRows struct {
	rows []func(dest ...any) error
	i    int
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.i-1](dest...) }
func (r *fakeRows) Close()                 {}
func (r *fakeRows) Err() error              { return nil }

// fakeConn simulates a database with no schema present at all: the
// namespace query returns no matching row, so every table in a declared
// schema is reported as missing.
type fakeConn struct {
	execed  []string
	failSQL string
}

func (f *fakeConn) Query(ctx context.Context, sql string, args ...any) (dbapi.Rows, error) {
	return &fakeRows{}, nil
}

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	f.execed = append(f.execed, sql)
	if f.failSQL != "" && strings.Contains(sql, f.failSQL) {
		return 0, errFailingStatement
	}
	return 0, nil
}

var errFailingStatement = &testError{"simulated driver failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func usersTable() schema.Table {
	return schema.Table{
		Name: "users",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "email", Type: schema.String, Unique: true},
		},
	}
}

func TestSync_DiffOnly_NoFulfill(t *testing.T) {
	conn := &fakeConn{}
	result, err := Sync(context.Background(), conn, "public", []schema.Table{usersTable()}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RunID == "" {
		t.Fatalf("expected a run id")
	}
	if len(result.Issues) == 0 {
		t.Fatalf("expected issues for a missing schema")
	}
	if len(conn.execed) != 0 {
		t.Fatalf("expected no statements executed without Fulfill, got %v", conn.execed)
	}
}

func TestSync_Fulfill_AppliesActionsInOrder(t *testing.T) {
	conn := &fakeConn{}
	var logged []string

	result, err := Sync(context.Background(), conn, "public", []schema.Table{usersTable()}, Options{
		Fulfill: true,
		Log:     func(s string) { logged = append(logged, s) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Fulfilled {
		t.Fatalf("expected every resolvable issue fulfilled")
	}
	if len(conn.execed) == 0 {
		t.Fatalf("expected statements executed")
	}
	if !strings.HasPrefix(conn.execed[0], "CREATE SCHEMA") {
		t.Fatalf("expected CREATE SCHEMA to run first, got %q", conn.execed[0])
	}
	if len(logged) == 0 {
		t.Fatalf("expected status lines to be logged")
	}
}

func TestSync_Fulfill_RecordsFailureAndContinues(t *testing.T) {
	conn := &fakeConn{failSQL: "CREATE TABLE"}

	result, err := Sync(context.Background(), conn, "public", []schema.Table{usersTable()}, Options{Fulfill: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fulfilled {
		t.Fatalf("expected Fulfilled=false after a failing action")
	}

	var sawFailure bool
	for _, iss := range result.Issues {
		if iss.Table == "users" && iss.Error != nil {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Fatalf("expected the users table issue to record the failure")
	}

	var ranAfterFailure bool
	for _, stmt := range conn.execed {
		if strings.Contains(stmt, "PRIMARY KEY") {
			ranAfterFailure = true
		}
	}
	if !ranAfterFailure {
		t.Fatalf("expected issues after the failed one to still run, got %v", conn.execed)
	}
}
