// Package schema declares the logical tables, fields, and constraints that
// relsync compares against a live database and that the query builder
// renders SELECT statements against.
package schema

import "fmt"

// FieldType is the logical type of a Field. Every value here maps to
// exactly one physical Postgres type family through package typemap.
type FieldType string

const (
	Serial  FieldType = "serial"
	Integer FieldType = "integer"
	Double  FieldType = "double"
	String  FieldType = "string"
)

// ReferentialAction is the ON DELETE / ON UPDATE behavior of a foreign key.
type ReferentialAction string

const (
	NoAction   ReferentialAction = "no action"
	Restrict   ReferentialAction = "restrict"
	Cascade    ReferentialAction = "cascade"
	SetDefault ReferentialAction = "set default"
)

// IndexKind enumerates the index types relsync knows how to diff and emit.
// Only btree is supported; see spec Non-goals.
type IndexKind string

const BTree IndexKind = "btree"

// Reference declares that a field is a foreign key into another table's
// primary key.
type Reference struct {
	Table    string
	Field    string
	OnDelete ReferentialAction
	OnUpdate ReferentialAction
}

// Field is one column of a Table.
type Field struct {
	Name         string
	Type         FieldType
	Nullable     bool
	Unique       bool
	DefaultValue *string
	PrimaryKey   bool
	References   *Reference
	OneOf        []string
	Index        IndexKind
}

// HasIndex reports whether the field declares an explicit btree index.
func (f Field) HasIndex() bool {
	return f.Index == BTree
}

// Table is a named, ordered list of fields.
type Table struct {
	Name   string
	Fields []Field
}

// FieldByName returns the field with the given name and whether it exists.
func (t Table) FieldByName(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TableByName finds a table by name in a declared schema.
func TableByName(tables []Table, name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

func (f Field) String() string {
	return fmt.Sprintf("%s (%s)", f.Name, f.Type)
}
