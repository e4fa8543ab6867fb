// Package typemap bridges relsync's logical field types (schema.FieldType)
// and Postgres's physical column types, and answers whether a value of one
// logical type can be safely converted to another without data loss.
//
// Grounded on _examples/lucasefe-dbml/introspect/typemap.go's class/alias/
// physical table shape.
package typemap

import (
	"strings"

	"github.com/arjunmehta/relsync/schema"
)

// Class is a coarse grouping used to decide whether a foreign key reference
// is legal. Two logical types are reference-compatible iff they share a
// Class; type conversions are decided by CanConvert, not by Class.
type Class string

const (
	ClassInteger Class = "integer"
	ClassDouble  Class = "double"
	ClassText    Class = "text"
)

type entry struct {
	class      Class
	logical    schema.FieldType
	physical   string
	aliases    []string
	convertsTo []schema.FieldType
}

var table = []entry{
	{
		class:      ClassInteger,
		logical:    schema.Serial,
		physical:   "bigserial",
		aliases:    []string{"bigserial", "serial8"},
		convertsTo: []schema.FieldType{schema.Serial},
	},
	{
		class:      ClassInteger,
		logical:    schema.Integer,
		physical:   "bigint",
		aliases:    []string{"bigint", "int8"},
		convertsTo: []schema.FieldType{schema.Integer, schema.Double, schema.String},
	},
	{
		class:      ClassDouble,
		logical:    schema.Double,
		physical:   "float8",
		aliases:    []string{"double precision", "float8"},
		convertsTo: []schema.FieldType{schema.Double, schema.String},
	},
	{
		class:      ClassText,
		logical:    schema.String,
		physical:   "varchar",
		aliases:    []string{"character varying", "varchar", "character", "char"},
		convertsTo: []schema.FieldType{schema.String},
	},
}

func findByLogical(t schema.FieldType) (entry, bool) {
	for _, e := range table {
		if e.logical == t {
			return e, true
		}
	}
	return entry{}, false
}

func findByPhysical(physical string) (entry, bool) {
	p := strings.ToLower(strings.TrimSpace(physical))
	for _, e := range table {
		for _, alias := range e.aliases {
			if alias == p {
				return e, true
			}
		}
	}
	return entry{}, false
}

// ToLogical maps a physical Postgres type name (case-insensitive) to the
// logical FieldType it represents. The second return is false if the
// physical type isn't one relsync understands.
func ToLogical(physical string) (schema.FieldType, bool) {
	e, ok := findByPhysical(physical)
	if !ok {
		return "", false
	}
	return e.logical, true
}

// ToPhysical maps a logical FieldType to its canonical physical column
// type, used when emitting DDL.
func ToPhysical(logical schema.FieldType) (string, bool) {
	e, ok := findByLogical(logical)
	if !ok {
		return "", false
	}
	return e.physical, true
}

// ClassOf returns the type class of a logical field type.
func ClassOf(logical schema.FieldType) (Class, bool) {
	e, ok := findByLogical(logical)
	if !ok {
		return "", false
	}
	return e.class, true
}

// SameClass reports whether two logical types share a class, the rule used
// to validate foreign key reference compatibility.
func SameClass(a, b schema.FieldType) bool {
	ca, ok1 := ClassOf(a)
	cb, ok2 := ClassOf(b)
	return ok1 && ok2 && ca == cb
}

// CanConvert reports whether a column observed with logical type `from` can
// be safely altered to declared logical type `to`.
func CanConvert(from, to schema.FieldType) bool {
	e, ok := findByLogical(from)
	if !ok {
		return false
	}
	for _, t := range e.convertsTo {
		if t == to {
			return true
		}
	}
	return false
}
