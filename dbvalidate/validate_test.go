package dbvalidate

import (
	"strings"
	"testing"

	"github.com/arjunmehta/relsync/schema"
)

func usersTable() schema.Table {
	return schema.Table{
		Name: "users",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "email", Type: schema.String, Unique: true},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate([]schema.Table{usersTable()}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_DuplicateField(t *testing.T) {
	tbl := usersTable()
	tbl.Fields = append(tbl.Fields, schema.Field{Name: "email", Type: schema.String})

	err := Validate([]schema.Table{tbl})
	if err == nil || !strings.Contains(err.Error(), "duplicate field name") {
		t.Fatalf("expected duplicate field name error, got %v", err)
	}
}

func TestValidate_MultiplePrimaryKeys(t *testing.T) {
	tbl := usersTable()
	tbl.Fields = append(tbl.Fields, schema.Field{Name: "alt_id", Type: schema.Integer, PrimaryKey: true})

	err := Validate([]schema.Table{tbl})
	if err == nil || !strings.Contains(err.Error(), "at most one primary-key") {
		t.Fatalf("expected primary key count error, got %v", err)
	}
}

func TestValidate_NullablePrimaryKey(t *testing.T) {
	tbl := schema.Table{
		Name: "widgets",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Integer, PrimaryKey: true, Nullable: true},
		},
	}

	err := Validate([]schema.Table{tbl})
	if err == nil || !strings.Contains(err.Error(), "must not be nullable") {
		t.Fatalf("expected nullable primary key error, got %v", err)
	}
}

func TestValidate_SerialWithUnique(t *testing.T) {
	tbl := schema.Table{
		Name: "widgets",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, Unique: true},
		},
	}

	err := Validate([]schema.Table{tbl})
	if err == nil || !strings.Contains(err.Error(), "cannot declare unique") {
		t.Fatalf("expected serial/unique error, got %v", err)
	}
}

func TestValidate_EmptyOneOf(t *testing.T) {
	tbl := schema.Table{
		Name: "widgets",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "status", Type: schema.String, OneOf: []string{}},
		},
	}

	err := Validate([]schema.Table{tbl})
	if err == nil || !strings.Contains(err.Error(), "oneOf must be non-empty") {
		t.Fatalf("expected oneOf error, got %v", err)
	}
}

func TestValidate_IndexOnUniqueField(t *testing.T) {
	tbl := schema.Table{
		Name: "widgets",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "code", Type: schema.String, Unique: true, Index: schema.BTree},
		},
	}

	err := Validate([]schema.Table{tbl})
	if err == nil || !strings.Contains(err.Error(), "index forbidden on a unique field") {
		t.Fatalf("expected index restriction error, got %v", err)
	}
}

func TestValidate_ReferenceTargetMissing(t *testing.T) {
	orders := schema.Table{
		Name: "orders",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "user_id", Type: schema.Integer, References: &schema.Reference{Table: "users", Field: "id"}},
		},
	}

	err := Validate([]schema.Table{orders})
	if err == nil || !strings.Contains(err.Error(), "undeclared table") {
		t.Fatalf("expected undeclared table error, got %v", err)
	}
}

func TestValidate_ReferenceNotPrimaryKey(t *testing.T) {
	users := schema.Table{
		Name: "users",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "email", Type: schema.String},
		},
	}
	orders := schema.Table{
		Name: "orders",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "user_email", Type: schema.String, References: &schema.Reference{Table: "users", Field: "email"}},
		},
	}

	err := Validate([]schema.Table{users, orders})
	if err == nil || !strings.Contains(err.Error(), "which is not a primary key") {
		t.Fatalf("expected non-PK reference error, got %v", err)
	}
}

func TestValidate_ReferenceClassMismatch(t *testing.T) {
	users := schema.Table{
		Name: "users",
		Fields: []schema.Field{
			{Name: "id", Type: schema.String, PrimaryKey: true},
		},
	}
	orders := schema.Table{
		Name: "orders",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Serial, PrimaryKey: true},
			{Name: "user_id", Type: schema.Integer, References: &schema.Reference{Table: "users", Field: "id"}},
		},
	}

	err := Validate([]schema.Table{users, orders})
	if err == nil || !strings.Contains(err.Error(), "incompatible type classes") {
		t.Fatalf("expected type class mismatch error, got %v", err)
	}
}
