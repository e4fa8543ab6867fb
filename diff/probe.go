package diff

import (
	"context"
	"fmt"

	"github.com/arjunmehta/relsync/dbapi"
	"github.com/arjunmehta/relsync/ddl"
	"github.com/arjunmehta/relsync/schema"
)

// probeHasNull reports whether table.field currently holds at least one
// NULL row, the data probe spec §4.7 requires before tightening a column
// to NOT NULL.
func probeHasNull(ctx context.Context, q dbapi.Querier, schemaName, table, field string) (bool, error) {
	sql := fmt.Sprintf(`SELECT 1 FROM %s.%s WHERE %s IS NULL LIMIT 1`,
		ddl.Quote(schemaName), ddl.Quote(table), ddl.Quote(field))

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return false, dbapi.Wrap(sql, err)
	}
	defer rows.Close()

	hasRow := rows.Next()
	return hasRow, dbapi.Wrap(sql, rows.Err())
}

// probeUnique reports whether table.field currently holds only distinct
// values, the data probe spec §4.7 requires before adding a unique
// constraint retroactively.
func probeUnique(ctx context.Context, q dbapi.Querier, schemaName, table, field string) (bool, error) {
	sql := fmt.Sprintf(`SELECT COUNT(DISTINCT %s) = COUNT(%s) FROM %s.%s`,
		ddl.Quote(field), ddl.Quote(field), ddl.Quote(schemaName), ddl.Quote(table))

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return false, dbapi.Wrap(sql, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return true, dbapi.Wrap(sql, rows.Err())
	}
	var unique bool
	if err := rows.Scan(&unique); err != nil {
		return false, dbapi.Wrap(sql, err)
	}
	return unique, dbapi.Wrap(sql, rows.Err())
}

// probeAllIn reports whether every existing value of table.field falls
// within f.OneOf, the data probe spec §4.7 requires before tightening a
// check constraint retroactively.
func probeAllIn(ctx context.Context, q dbapi.Querier, schemaName, table string, f schema.Field) (bool, error) {
	values := make([]string, len(f.OneOf))
	for i, v := range f.OneOf {
		values[i] = ddl.FormatLiteral(f.Type, v)
	}

	in := "("
	for i, v := range values {
		if i > 0 {
			in += ", "
		}
		in += v
	}
	in += ")"

	sql := fmt.Sprintf(`SELECT 1 FROM %s.%s WHERE %s NOT IN %s LIMIT 1`,
		ddl.Quote(schemaName), ddl.Quote(table), ddl.Quote(f.Name), in)

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return false, dbapi.Wrap(sql, err)
	}
	defer rows.Close()

	hasViolation := rows.Next()
	return !hasViolation, dbapi.Wrap(sql, rows.Err())
}
