package query

import (
	"github.com/arjunmehta/relsync/expr"
	"github.com/arjunmehta/relsync/schema"
)

// Fields maps a field name to its typed column expression within one
// table alias.
type Fields map[string]expr.Expr

// Scope is the set of alias-qualified column expressions visible at a
// builder stage: alias -> fieldName -> Expression. from() seeds it with
// one alias; each join() call adds another.
type Scope map[string]Fields

// seedFields builds the Fields map for one aliased table, picking the
// column expression constructor that matches each field's declared type
// and nullability (spec §4.3 "fieldExpr maps each field to a typed column
// expression per C5's type/nullability").
func seedFields(alias string, table schema.Table) Fields {
	fields := make(Fields, len(table.Fields))
	for _, f := range table.Fields {
		fields[f.Name] = columnExpr(alias, f)
	}
	return fields
}

func columnExpr(alias string, f schema.Field) expr.Expr {
	switch f.Type {
	case schema.Serial:
		// serial is always not-null (spec §3).
		return expr.IntegerColumn(alias, f.Name)
	case schema.Integer:
		if f.Nullable {
			return expr.NullableIntegerColumn(alias, f.Name)
		}
		return expr.IntegerColumn(alias, f.Name)
	case schema.Double:
		if f.Nullable {
			return expr.NullableDoubleColumn(alias, f.Name)
		}
		return expr.DoubleColumn(alias, f.Name)
	case schema.String:
		if f.Nullable {
			return expr.NullableStringColumn(alias, f.Name)
		}
		return expr.StringColumn(alias, f.Name)
	default:
		panic("query: unknown field type " + string(f.Type))
	}
}

func cloneScope(s Scope) Scope {
	out := make(Scope, len(s)+1)
	for alias, fields := range s {
		out[alias] = fields
	}
	return out
}
