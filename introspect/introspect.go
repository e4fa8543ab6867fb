// Package introspect reads live PostgreSQL catalog state through
// pg_catalog (not information_schema, per the schema synchronizer's
// design) and normalizes it into flat row vectors the diff engine locates
// via linear search, the way the teacher's introspect package returns
// []ExistingTable/[]ExistingColumn for package diff to scan.
package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/arjunmehta/relsync/dbapi"
)

// Column is one row of the columns query: one physical column of one
// table in the target schema.
type Column struct {
	Schema          string
	Table           string
	Column          string
	PhysicalType    string
	NotNull         bool
	HasDefault      bool
	IsDropped       bool
	DefaultExprText string
}

// Constraint is one row of the constraints query. Type is one of
// "p" (primary key), "f" (foreign key), "u" (unique), "c" (check),
// mirroring pg_constraint.contype.
type Constraint struct {
	Type       string
	Name       string
	Table      string
	Columns    string // braced list, e.g. "{user_id}"
	RefTable   string
	RefColumns string // braced list
	OnUpdate   string // pg_constraint.confupdtype code: a/c/r/d/n
	OnDelete   string // pg_constraint.confdeltype code
	Definition string
}

// Index is one row of the b-tree indexes query.
type Index struct {
	Name    string
	Table   string
	Columns string // braced list
}

// State is the normalized catalog snapshot for one named schema.
type State struct {
	SchemaExists bool
	Columns      []Column
	Constraints  []Constraint
	Indexes      []Index
}

// Read issues the introspection queries against schemaName and returns the
// normalized catalog state. The schema-list query runs first; if the
// schema does not exist, Read returns at once with SchemaExists false and
// empty slices, without running the column, constraint, and index queries.
func Read(ctx context.Context, q dbapi.Querier, schemaName string) (State, error) {
	exists, err := schemaExists(ctx, q, schemaName)
	if err != nil {
		return State{}, err
	}
	if !exists {
		return State{SchemaExists: false}, nil
	}

	cols, err := readColumns(ctx, q, schemaName)
	if err != nil {
		return State{}, err
	}

	cons, err := readConstraints(ctx, q, schemaName)
	if err != nil {
		return State{}, err
	}

	idxs, err := readIndexes(ctx, q, schemaName)
	if err != nil {
		return State{}, err
	}

	return State{
		SchemaExists: true,
		Columns:      cols,
		Constraints:  cons,
		Indexes:      idxs,
	}, nil
}

func schemaExists(ctx context.Context, q dbapi.Querier, schemaName string) (bool, error) {
	const sql = `SELECT nspname FROM pg_catalog.pg_namespace`

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return false, dbapi.Wrap(sql, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, dbapi.Wrap(sql, err)
		}
		if name == schemaName {
			return true, nil
		}
	}
	return false, dbapi.Wrap(sql, rows.Err())
}

func readColumns(ctx context.Context, q dbapi.Querier, schemaName string) ([]Column, error) {
	const sql = `
		SELECT n.nspname, c.relname, a.attname, t.typname, a.attnotnull,
		       a.atthasdef, a.attisdropped, pg_get_expr(ad.adbin, ad.adrelid) AS adbin_sql
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_catalog.pg_type t ON t.oid = a.atttypid
		LEFT JOIN pg_catalog.pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
		WHERE c.relkind = 'r' AND a.attnum > 0 AND n.nspname = $1
		ORDER BY c.relname, a.attname`

	rows, err := q.Query(ctx, sql, schemaName)
	if err != nil {
		return nil, dbapi.Wrap(sql, err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var c Column
		var defExpr *string
		if err := rows.Scan(&c.Schema, &c.Table, &c.Column, &c.PhysicalType,
			&c.NotNull, &c.HasDefault, &c.IsDropped, &defExpr); err != nil {
			return nil, dbapi.Wrap(sql, err)
		}
		if defExpr != nil {
			c.DefaultExprText = *defExpr
		}
		out = append(out, c)
	}
	return out, dbapi.Wrap(sql, rows.Err())
}

func readConstraints(ctx context.Context, q dbapi.Querier, schemaName string) ([]Constraint, error) {
	const sql = `
		SELECT con.contype, con.conname, rel.relname,
		       (SELECT array_agg(att.attname)::text FROM pg_catalog.pg_attribute att
		          WHERE att.attrelid = con.conrelid AND att.attnum = ANY(con.conkey)) AS columns,
		       frel.relname,
		       (SELECT array_agg(att.attname)::text FROM pg_catalog.pg_attribute att
		          WHERE att.attrelid = con.confrelid AND att.attnum = ANY(con.confkey)) AS ref_columns,
		       con.confupdtype, con.confdeltype, pg_get_constraintdef(con.oid)
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class rel ON rel.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = rel.relnamespace
		LEFT JOIN pg_catalog.pg_class frel ON frel.oid = con.confrelid
		WHERE con.contype IN ('p', 'f', 'u', 'c') AND n.nspname = $1`

	rows, err := q.Query(ctx, sql, schemaName)
	if err != nil {
		return nil, dbapi.Wrap(sql, err)
	}
	defer rows.Close()

	var out []Constraint
	for rows.Next() {
		var c Constraint
		var refTable, refColumns, onUpdate, onDelete *string
		if err := rows.Scan(&c.Type, &c.Name, &c.Table, &c.Columns,
			&refTable, &refColumns, &onUpdate, &onDelete, &c.Definition); err != nil {
			return nil, dbapi.Wrap(sql, err)
		}
		if refTable != nil {
			c.RefTable = *refTable
		}
		if refColumns != nil {
			c.RefColumns = *refColumns
		}
		if onUpdate != nil {
			c.OnUpdate = *onUpdate
		}
		if onDelete != nil {
			c.OnDelete = *onDelete
		}
		out = append(out, c)
	}
	return out, dbapi.Wrap(sql, rows.Err())
}

func readIndexes(ctx context.Context, q dbapi.Querier, schemaName string) ([]Index, error) {
	const sql = `
		SELECT ic.relname, tc.relname,
		       (SELECT array_agg(att.attname)::text FROM pg_catalog.pg_attribute att
		          WHERE att.attrelid = i.indrelid AND att.attnum = ANY(i.indkey)) AS columns
		FROM pg_catalog.pg_index i
		JOIN pg_catalog.pg_class ic ON ic.oid = i.indexrelid
		JOIN pg_catalog.pg_class tc ON tc.oid = i.indrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = tc.relnamespace
		JOIN pg_catalog.pg_am am ON am.oid = ic.relam
		WHERE am.amname = 'btree' AND n.nspname = $1`

	rows, err := q.Query(ctx, sql, schemaName)
	if err != nil {
		return nil, dbapi.Wrap(sql, err)
	}
	defer rows.Close()

	var out []Index
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.Name, &idx.Table, &idx.Columns); err != nil {
			return nil, dbapi.Wrap(sql, err)
		}
		out = append(out, idx)
	}
	return out, dbapi.Wrap(sql, rows.Err())
}

// ColumnsOfTable returns the non-dropped catalog columns observed for table.
func (s State) ColumnsOfTable(table string) []Column {
	var out []Column
	for _, c := range s.Columns {
		if c.Table == table && !c.IsDropped {
			out = append(out, c)
		}
	}
	return out
}

// FindColumn locates a single column by table and name.
func (s State) FindColumn(table, column string) (Column, bool) {
	for _, c := range s.ColumnsOfTable(table) {
		if c.Column == column {
			return c, true
		}
	}
	return Column{}, false
}

// ContainsColumn reports whether a braced column list (e.g. "{a,b}")
// mentions name as a whole element: "{user_id,created_at}" contains
// "user_id" and "created_at" but not "id". Names that need quoting inside
// the braced list are not unquoted before matching.
func ContainsColumn(bracedList, name string) bool {
	return strings.Contains(bracedList, fmt.Sprintf("{%s}", name)) ||
		strings.Contains(bracedList, fmt.Sprintf("{%s,", name)) ||
		strings.Contains(bracedList, fmt.Sprintf(",%s,", name)) ||
		strings.Contains(bracedList, fmt.Sprintf(",%s}", name))
}

// ConstraintsOfTable returns constraints of the given contype on table.
func (s State) ConstraintsOfTable(table, ctype string) []Constraint {
	var out []Constraint
	for _, c := range s.Constraints {
		if c.Table == table && c.Type == ctype {
			out = append(out, c)
		}
	}
	return out
}

// FindConstraintOnColumn locates the first constraint of ctype on table
// whose column list mentions column.
func (s State) FindConstraintOnColumn(table, column, ctype string) (Constraint, bool) {
	for _, c := range s.ConstraintsOfTable(table, ctype) {
		if ContainsColumn(c.Columns, column) {
			return c, true
		}
	}
	return Constraint{}, false
}

// IndexesOfTable returns b-tree indexes declared on table.
func (s State) IndexesOfTable(table string) []Index {
	var out []Index
	for _, idx := range s.Indexes {
		if idx.Table == table {
			out = append(out, idx)
		}
	}
	return out
}

// FindIndexOnColumn locates the first index on table whose column list
// mentions column.
func (s State) FindIndexOnColumn(table, column string) (Index, bool) {
	for _, idx := range s.IndexesOfTable(table) {
		if ContainsColumn(idx.Columns, column) {
			return idx, true
		}
	}
	return Index{}, false
}

// HasTable reports whether any (non-dropped) column exists for table,
// i.e. the table itself exists in the catalog.
func (s State) HasTable(table string) bool {
	return len(s.ColumnsOfTable(table)) > 0
}
