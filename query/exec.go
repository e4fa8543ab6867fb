package query

import (
	"context"

	"github.com/arjunmehta/relsync/dbapi"
	"github.com/arjunmehta/relsync/expr"
)

// Row is one decoded result row, keyed by projection label.
type Row map[string]any

// execQuery renders the query, runs it against the driver, and decodes each
// row according to the tag of the expression each label was projected from.
func execQuery(ctx context.Context, st state, opts ExecOptions) ([]Row, error) {
	sql, labels := render(st, opts)

	rows, err := st.driver.Query(ctx, sql)
	if err != nil {
		return nil, dbapi.Wrap(sql, err)
	}
	defer rows.Close()

	dests := make([]any, len(labels))
	for i, label := range labels {
		dests[i] = newScanDest(st.projection[label])
	}

	var out []Row
	for rows.Next() {
		if err := rows.Scan(dests...); err != nil {
			return nil, dbapi.Wrap(sql, err)
		}
		row := make(Row, len(labels))
		for i, label := range labels {
			row[label] = derefScan(dests[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dbapi.Wrap(sql, err)
	}
	return out, nil
}

// newScanDest allocates a Scan destination matching the projected
// expression's tag: a plain pointer for non-nullable tags, a pointer to
// pointer for nullable ones, and *any for anything else (Generic, the
// result of asc()/desc(), or a cast to an untagged result).
func newScanDest(e expr.Expr) any {
	switch e.(type) {
	case expr.Boolean:
		return new(bool)
	case expr.Integer:
		return new(int64)
	case expr.NullableInteger:
		return new(*int64)
	case expr.Double:
		return new(float64)
	case expr.NullableDouble:
		return new(*float64)
	case expr.String:
		return new(string)
	case expr.NullableString:
		return new(*string)
	default:
		return new(any)
	}
}

// derefScan converts a Scan destination back to a plain value, mapping a nil
// nullable pointer to nil.
func derefScan(dest any) any {
	switch d := dest.(type) {
	case *bool:
		return *d
	case *int64:
		return *d
	case **int64:
		if *d == nil {
			return nil
		}
		return **d
	case *float64:
		return *d
	case **float64:
		if *d == nil {
			return nil
		}
		return **d
	case *string:
		return *d
	case **string:
		if *d == nil {
			return nil
		}
		return **d
	case *any:
		return *d
	default:
		return nil
	}
}
