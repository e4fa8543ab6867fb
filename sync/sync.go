// Package sync runs a declared schema against a live database end to end:
// validate, diff, and optionally fulfill the resulting issues in the fixed
// order package diff defines. Grounded on the teacher's runner package
// (ApplyMigrations' ordered pass over pending files, per-item status lines,
// activity logging), reinterpreted against a single in-memory issue list
// instead of a file-based migration ledger.
package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arjunmehta/relsync/dbapi"
	"github.com/arjunmehta/relsync/dbvalidate"
	"github.com/arjunmehta/relsync/diff"
	"github.com/arjunmehta/relsync/schema"
)

// Result is the outcome of one Sync call: the diff, plus (if fulfillment
// ran) which issues were applied and which failed. RunID correlates the
// status lines one run prints, the way migrato's migration_logs rows carry
// an executed_by/timestamp pair for each file it processes.
type Result struct {
	RunID      string
	diff.Result
}

// Options controls how Sync behaves beyond the mandatory validate+diff
// pass.
type Options struct {
	// Fulfill applies every resolvable issue's actions against the
	// database. If false, Sync only reports the diff.
	Fulfill bool
	// Log receives a status line ("✅ table created", "❌ ...failed: ...")
	// for each issue as fulfillment proceeds. If nil, status lines are
	// printed to stdout via fmt.Println, matching the teacher's runner
	// convention.
	Log func(string)
}

// Sync validates tables, diffs them against schemaName's live state, and,
// if opts.Fulfill is set and the diff is fully resolvable, applies every
// issue's actions in package diff's fixed fulfillment order.
func Sync(ctx context.Context, driver dbapi.Conn, schemaName string, tables []schema.Table, opts Options) (Result, error) {
	runID := uuid.New().String()

	if err := dbvalidate.Validate(tables); err != nil {
		return Result{RunID: runID}, fmt.Errorf("validating schema: %w", err)
	}

	diffResult, err := diff.Diff(ctx, driver, schemaName, tables)
	if err != nil {
		return Result{RunID: runID}, fmt.Errorf("diffing schema: %w", err)
	}

	result := Result{RunID: runID, Result: diffResult}

	if !opts.Fulfill {
		return result, nil
	}

	if !result.Resolvable {
		return result, fmt.Errorf("run %s: one or more issues are not resolvable, refusing to fulfill", runID)
	}

	logf := opts.Log
	if logf == nil {
		logf = func(s string) { fmt.Println(s) }
	}

	Fulfill(ctx, driver, &result.Result, runID, logf)

	return result, nil
}

// Fulfill executes every resolvable, not-yet-fulfilled issue's actions, in
// package diff's fixed fulfillment order, and records success/failure on
// each Issue in place. Issues unresolvable or already fulfilled are
// skipped. Grounded on runner.ApplyMigrations' per-file loop: one status
// line is logged after each issue's actions run. A driver error stops
// that issue's remaining statements and is recorded on the issue, and the
// remaining issues still run (a failed CREATE TABLE doesn't block an
// unrelated table's index from being added).
func Fulfill(ctx context.Context, driver dbapi.Execer, result *diff.Result, runID string, logf func(string)) {
	byKind := make(map[diff.IssueKind][]int)
	for i, iss := range result.Issues {
		byKind[iss.Kind] = append(byKind[iss.Kind], i)
	}

	for _, kind := range diff.FulfillmentOrder() {
		for _, i := range byKind[kind] {
			iss := &result.Issues[i]
			if !iss.Resolvable || len(iss.Actions) == 0 {
				continue
			}

			label := issueLabel(*iss)
			if err := runActions(ctx, driver, iss.Actions); err != nil {
				iss.Error = err
				logf(fmt.Sprintf("❌ [%s] %s failed: %v", runID, label, err))
				continue
			}

			iss.Fulfilled = true
			logf(fmt.Sprintf("✅ [%s] %s", runID, label))
		}
	}

	result.Fulfilled = allFulfilled(result.Issues)
}

func runActions(ctx context.Context, driver dbapi.Execer, actions []string) error {
	for _, stmt := range actions {
		if _, err := driver.Exec(ctx, stmt); err != nil {
			return dbapi.Wrap(stmt, err)
		}
	}
	return nil
}

func allFulfilled(issues []diff.Issue) bool {
	for _, iss := range issues {
		if iss.Resolvable && !iss.Fulfilled {
			return false
		}
	}
	return true
}

func issueLabel(iss diff.Issue) string {
	if iss.Field != "" {
		return fmt.Sprintf("%s %s.%s.%s", iss.Kind, iss.Schema, iss.Table, iss.Field)
	}
	if iss.Table != "" {
		return fmt.Sprintf("%s %s.%s", iss.Kind, iss.Schema, iss.Table)
	}
	return fmt.Sprintf("%s %s", iss.Kind, iss.Schema)
}
