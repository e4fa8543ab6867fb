package diff

import (
	"context"
	"strings"
	"testing"

	"github.com/arjunmehta/relsync/dbapi"
	"github.com/arjunmehta/relsync/schema"
)

// fakeRows is a canned cursor whose rows are pre-bound scan closures, so
// each test can shape exactly the tuples its scenario's queries expect.
type fakeRows struct {
	scans []func(dest ...any) error
	i     int
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.scans) {
		return false
	}
	r.i++
	return true
}
func (r *fakeRows) Scan(dest ...any) error { return r.scans[r.i-1](dest...) }
func (r *fakeRows) Close()                 {}
func (r *fakeRows) Err() error              { return nil }

func strPtr(s string) *string { return &s }

// fakeQuerier dispatches on substrings of the SQL text to return the rows
// each introspection query or data probe expects for one scenario.
type fakeQuerier struct {
	schemaExists bool

	columns     []func(dest ...any) error
	constraints []func(dest ...any) error
	indexes     []func(dest ...any) error

	probeHasNullResult bool
	probeUniqueResult  bool
	probeAllInResult   bool // true = no violations found
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (dbapi.Rows, error) {
	switch {
	case strings.Contains(sql, "pg_namespace") && !strings.Contains(sql, "pg_class"):
		if !q.schemaExists {
			return &fakeRows{}, nil
		}
		return &fakeRows{scans: []func(dest ...any) error{
			func(dest ...any) error { *dest[0].(*string) = "app"; return nil },
		}}, nil
	case strings.Contains(sql, "pg_attrdef"):
		return &fakeRows{scans: q.columns}, nil
	case strings.Contains(sql, "pg_constraint"):
		return &fakeRows{scans: q.constraints}, nil
	case strings.Contains(sql, "pg_index"):
		return &fakeRows{scans: q.indexes}, nil
	case strings.Contains(sql, "IS NULL"):
		if q.probeHasNullResult {
			return &fakeRows{scans: []func(dest ...any) error{func(dest ...any) error { return nil }}}, nil
		}
		return &fakeRows{}, nil
	case strings.Contains(sql, "COUNT(DISTINCT"):
		return &fakeRows{scans: []func(dest ...any) error{
			func(dest ...any) error { *dest[0].(*bool) = q.probeUniqueResult; return nil },
		}}, nil
	case strings.Contains(sql, "NOT IN"):
		if q.probeAllInResult {
			return &fakeRows{}, nil
		}
		return &fakeRows{scans: []func(dest ...any) error{func(dest ...any) error { return nil }}}, nil
	default:
		return &fakeRows{}, nil
	}
}

func columnScan(schemaName, table, column, physType string, notNull, hasDefault bool, defExpr *string) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*string) = schemaName
		*dest[1].(*string) = table
		*dest[2].(*string) = column
		*dest[3].(*string) = physType
		*dest[4].(*bool) = notNull
		*dest[5].(*bool) = hasDefault
		*dest[6].(*bool) = false
		*dest[7].(**string) = defExpr
		return nil
	}
}

func constraintScan(ctype, name, table, columns string, refTable, refColumns, onUpdate, onDelete *string, definition string) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*string) = ctype
		*dest[1].(*string) = name
		*dest[2].(*string) = table
		*dest[3].(*string) = columns
		*dest[4].(**string) = refTable
		*dest[5].(**string) = refColumns
		*dest[6].(**string) = onUpdate
		*dest[7].(**string) = onDelete
		*dest[8].(*string) = definition
		return nil
	}
}

func usersTableS2() schema.Table {
	return schema.Table{
		Name: "users",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "email", Type: schema.String, Unique: true},
		},
	}
}

func TestDiff_S2_MissingSchema(t *testing.T) {
	q := &fakeQuerier{schemaExists: false}

	result, err := Diff(context.Background(), q, "app", []schema.Table{usersTableS2()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKinds := []IssueKind{SchemaNotFound, TableNotFound, PrimaryKeyNotFound, UniqueKeyNotFound}
	if len(result.Issues) != len(wantKinds) {
		t.Fatalf("expected %d issues, got %d: %+v", len(wantKinds), len(result.Issues), result.Issues)
	}
	for i, k := range wantKinds {
		if result.Issues[i].Kind != k {
			t.Errorf("issue %d: got kind %q, want %q", i, result.Issues[i].Kind, k)
		}
		if !result.Issues[i].Resolvable {
			t.Errorf("issue %d (%s): expected resolvable", i, k)
		}
	}
	if !result.Resolvable {
		t.Errorf("expected overall result resolvable")
	}
}

func TestDiff_S3_NullabilityTighteningWithNulls(t *testing.T) {
	q := &fakeQuerier{
		schemaExists: true,
		columns: []func(dest ...any) error{
			columnScan("app", "users", "email", "varchar", false, false, nil),
		},
		probeHasNullResult: true,
	}

	table := schema.Table{
		Name: "users",
		Fields: []schema.Field{
			{Name: "email", Type: schema.String, Nullable: false},
		},
	}

	result, err := Diff(context.Background(), q, "app", []schema.Table{table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d: %+v", len(result.Issues), result.Issues)
	}
	iss := result.Issues[0]
	if iss.Kind != FieldNullableMismatch {
		t.Fatalf("expected FieldNullableMismatch, got %s", iss.Kind)
	}
	if iss.Resolvable {
		t.Fatalf("expected unresolvable when nulls are present")
	}
	if iss.Description != "nulls found" {
		t.Fatalf("expected description 'nulls found', got %q", iss.Description)
	}
	if result.Resolvable {
		t.Fatalf("expected overall result not resolvable")
	}
}

func TestDiff_S4_UniqueViolationProbe(t *testing.T) {
	q := &fakeQuerier{
		schemaExists: true,
		columns: []func(dest ...any) error{
			columnScan("app", "users", "email", "varchar", true, false, nil),
		},
		probeUniqueResult: false,
	}

	table := schema.Table{
		Name: "users",
		Fields: []schema.Field{
			{Name: "email", Type: schema.String, Unique: true},
		},
	}

	result, err := Diff(context.Background(), q, "app", []schema.Table{table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d: %+v", len(result.Issues), result.Issues)
	}
	iss := result.Issues[0]
	if iss.Kind != UniqueKeyNotFound {
		t.Fatalf("expected UniqueKeyNotFound, got %s", iss.Kind)
	}
	if iss.Resolvable {
		t.Fatalf("expected unresolvable for non-unique existing values")
	}
	if iss.Description != "non-unique values found" {
		t.Fatalf("expected description 'non-unique values found', got %q", iss.Description)
	}
}

func TestDiff_S5_ForeignKeyActionMismatch(t *testing.T) {
	usersTbl := "users"
	idCol := "{id}"
	q := &fakeQuerier{
		schemaExists: true,
		columns: []func(dest ...any) error{
			columnScan("app", "orders", "user_id", "bigint", true, false, nil),
		},
		constraints: []func(dest ...any) error{
			constraintScan("f", "orders_user_id_fkey", "orders", "{user_id}", &usersTbl, &idCol, strPtr("a"), strPtr("a"), "FOREIGN KEY (user_id) REFERENCES users(id)"),
		},
	}

	table := schema.Table{
		Name: "orders",
		Fields: []schema.Field{
			{Name: "user_id", Type: schema.Integer, References: &schema.Reference{
				Table: "users", Field: "id", OnDelete: schema.Cascade,
			}},
		},
	}

	result, err := Diff(context.Background(), q, "app", []schema.Table{table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d: %+v", len(result.Issues), result.Issues)
	}
	iss := result.Issues[0]
	if iss.Kind != ForeignKeyMismatch {
		t.Fatalf("expected ForeignKeyMismatch, got %s", iss.Kind)
	}
	if !iss.Resolvable {
		t.Fatalf("expected resolvable")
	}
	if len(iss.Actions) < 2 {
		t.Fatalf("expected drop+create actions, got %v", iss.Actions)
	}
	if !strings.Contains(iss.Actions[0], "DROP CONSTRAINT") {
		t.Errorf("expected first action to drop the existing constraint, got %q", iss.Actions[0])
	}
	if !strings.Contains(iss.Actions[len(iss.Actions)-1], "CASCADE") {
		t.Errorf("expected the new constraint to declare ON DELETE CASCADE, got %q", iss.Actions[len(iss.Actions)-1])
	}
}

func TestDiff_S6_CheckConstraintDrift(t *testing.T) {
	q := &fakeQuerier{
		schemaExists: true,
		columns: []func(dest ...any) error{
			columnScan("app", "widgets", "status", "varchar", true, false, nil),
		},
		constraints: []func(dest ...any) error{
			constraintScan("c", "widgets_status_check", "widgets", "{status}", nil, nil, nil, nil,
				`CHECK (status::text = ANY (ARRAY['a'::character varying, 'b'::character varying]::text[]))`),
		},
		probeAllInResult: true,
	}

	table := schema.Table{
		Name: "widgets",
		Fields: []schema.Field{
			{Name: "status", Type: schema.String, OneOf: []string{"a", "b", "c"}},
		},
	}

	result, err := Diff(context.Background(), q, "app", []schema.Table{table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d: %+v", len(result.Issues), result.Issues)
	}
	iss := result.Issues[0]
	if iss.Kind != CheckKeyMismatch {
		t.Fatalf("expected CheckKeyMismatch, got %s", iss.Kind)
	}
	if !iss.Resolvable {
		t.Fatalf("expected resolvable since no rows violate the declared set")
	}
	if len(iss.Actions) < 2 {
		t.Fatalf("expected drop+create actions, got %v", iss.Actions)
	}
}

func TestFulfillmentOrder_StructuralBeforeForeignKeys(t *testing.T) {
	order := FulfillmentOrder()
	pos := make(map[IssueKind]int, len(order))
	for i, k := range order {
		pos[k] = i
	}
	if pos[SchemaNotFound] > pos[TableNotFound] {
		t.Errorf("schemaNotFound must precede tableNotFound")
	}
	if pos[TableNotFound] > pos[FieldNotFound] {
		t.Errorf("tableNotFound must precede fieldNotFound")
	}
	if pos[PrimaryKeyNotFound] > pos[ForeignKeyNotFound] {
		t.Errorf("primaryKeyNotFound must precede foreignKeyNotFound")
	}
}
