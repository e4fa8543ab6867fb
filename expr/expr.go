// Package expr implements relsync's typed expression algebra: immutable
// SQL fragments tagged with a logical type (Generic, Boolean, Integer,
// Double, String; Integer, Double and String also have Nullable variants).
// The tag on a value determines
// which operators it exposes and what it decodes to in a result row.
//
// There is no shared base-interface method dispatch on operators: each
// concrete type exposes only the methods its tag allows, which is how
// constructing an illegal combination (e.g. calling StartsWith on an
// Integer) becomes a compile error instead of a runtime one. Every
// operator is a pure function over its receiver's fragment; nothing here
// performs I/O.
package expr

import "fmt"

// Expr is satisfied by every expression node; it is the minimal surface
// the query builder needs to render a projection, predicate, or order
// clause regardless of the node's specific tag.
type Expr interface {
	Render() string
}

type base struct {
	frag string
}

// Render returns the node's SQL fragment. Rendering is pure: calling it
// twice on the same value yields identical output.
func (b base) Render() string { return b.frag }

// Asc wraps any typed expression as a descending-free ascending order
// fragment. Available on every tag via embedding.
func (b base) Asc() Generic { return Generic{base{b.frag + " asc"}} }

// Desc wraps any typed expression as a "<frag> desc" order fragment.
func (b base) Desc() Generic { return Generic{base{b.frag + " desc"}} }

// CastTarget names the logical types a cast() may target.
type CastTarget int

const (
	CastToInteger CastTarget = iota
	CastToDouble
	CastToString
)

func castSQL(frag string, to CastTarget) (string, CastTarget) {
	var t string
	switch to {
	case CastToInteger:
		t = "bigint"
	case CastToDouble:
		t = "double"
	case CastToString:
		t = "varchar"
	default:
		panic(fmt.Sprintf("expr: invalid cast target %d", to))
	}
	return fmt.Sprintf("cast(%s as %s)", frag, t), to
}

// Cast renders "cast(<frag> as T)" and returns the target-typed,
// non-nullable expression node.
func (b base) Cast(to CastTarget) Expr {
	sql, target := castSQL(b.frag, to)
	switch target {
	case CastToInteger:
		return Integer{base{sql}}
	case CastToDouble:
		return Double{base{sql}}
	default:
		return String{base{sql}}
	}
}

// ---- Generic ----

// Generic is the tag for values with no narrower operator surface, such as
// the result of asc()/desc().
type Generic struct{ base }

// ---- Boolean ----

// Boolean is a non-nullable boolean-valued expression.
type Boolean struct{ base }

// Not renders "(not <frag>)".
func (b Boolean) Not() Boolean {
	return Boolean{base{fmt.Sprintf("(not %s)", b.frag)}}
}

// ---- Integer ----

// Integer is a non-nullable integer-valued expression.
type Integer struct{ base }

func (i Integer) Equals(v any) Boolean              { return numericOp(i.frag, "=", v) }
func (i Integer) LessThan(v any) Boolean             { return numericOp(i.frag, "<", v) }
func (i Integer) GreaterThan(v any) Boolean          { return numericOp(i.frag, ">", v) }
func (i Integer) LessThanOrEqual(v any) Boolean      { return numericOp(i.frag, "<=", v) }
func (i Integer) GreaterThanOrEqual(v any) Boolean   { return numericOp(i.frag, ">=", v) }

// NullableInteger is an integer-valued expression that may be SQL NULL. It
// carries the same comparison operators as Integer: SQL's null-propagation
// semantics mean a comparison against a NULL column already evaluates to
// unknown/false without any coalescing, so nullability doesn't narrow the
// operator surface.
type NullableInteger struct{ base }

func (i NullableInteger) Equals(v any) Boolean            { return numericOp(i.frag, "=", v) }
func (i NullableInteger) LessThan(v any) Boolean          { return numericOp(i.frag, "<", v) }
func (i NullableInteger) GreaterThan(v any) Boolean       { return numericOp(i.frag, ">", v) }
func (i NullableInteger) LessThanOrEqual(v any) Boolean    { return numericOp(i.frag, "<=", v) }
func (i NullableInteger) GreaterThanOrEqual(v any) Boolean { return numericOp(i.frag, ">=", v) }

// IfNull renders "coalesce(<frag>, <lift(v)>)" and returns non-nullable Integer.
func (i NullableInteger) IfNull(v int64) Integer {
	return Integer{base{fmt.Sprintf("coalesce(%s, %s)", i.frag, liftInt(v))}}
}

// ---- Double ----

// Double is a non-nullable floating-point expression.
type Double struct{ base }

func (d Double) Equals(v any) Boolean            { return numericOp(d.frag, "=", v) }
func (d Double) LessThan(v any) Boolean          { return numericOp(d.frag, "<", v) }
func (d Double) GreaterThan(v any) Boolean       { return numericOp(d.frag, ">", v) }
func (d Double) LessThanOrEqual(v any) Boolean    { return numericOp(d.frag, "<=", v) }
func (d Double) GreaterThanOrEqual(v any) Boolean { return numericOp(d.frag, ">=", v) }

// NullableDouble is a floating-point expression that may be SQL NULL,
// carrying the same comparison operators as Double for the same reason
// NullableInteger does.
type NullableDouble struct{ base }

func (d NullableDouble) Equals(v any) Boolean            { return numericOp(d.frag, "=", v) }
func (d NullableDouble) LessThan(v any) Boolean          { return numericOp(d.frag, "<", v) }
func (d NullableDouble) GreaterThan(v any) Boolean       { return numericOp(d.frag, ">", v) }
func (d NullableDouble) LessThanOrEqual(v any) Boolean    { return numericOp(d.frag, "<=", v) }
func (d NullableDouble) GreaterThanOrEqual(v any) Boolean { return numericOp(d.frag, ">=", v) }

// IfNull renders "coalesce(<frag>, <lift(v)>)" and returns non-nullable Double.
func (d NullableDouble) IfNull(v float64) Double {
	return Double{base{fmt.Sprintf("coalesce(%s, %s)", d.frag, liftFloat(v))}}
}

// ---- String ----

// String is a non-nullable text-valued expression.
type String struct{ base }

func (s String) Equals(v any) Boolean {
	return Boolean{base{fmt.Sprintf("(%s = %s)", s.frag, stringOperand(v))}}
}

// StartsWith renders "(<frag> like (<x> || '%'))".
func (s String) StartsWith(v any) Boolean {
	return Boolean{base{fmt.Sprintf("(%s like (%s || '%%'))", s.frag, stringOperand(v))}}
}

// EndsWith renders "(<frag> like ('%' || <x>))".
func (s String) EndsWith(v any) Boolean {
	return Boolean{base{fmt.Sprintf("(%s like ('%%' || %s))", s.frag, stringOperand(v))}}
}

func (s String) Upper() String     { return String{base{fmt.Sprintf("upper(%s)", s.frag)}} }
func (s String) Lower() String     { return String{base{fmt.Sprintf("lower(%s)", s.frag)}} }
func (s String) Trim() String      { return String{base{fmt.Sprintf("trim(%s)", s.frag)}} }
func (s String) TrimLeft() String  { return String{base{fmt.Sprintf("ltrim(%s)", s.frag)}} }
func (s String) TrimRight() String { return String{base{fmt.Sprintf("rtrim(%s)", s.frag)}} }

// NullableString is a text-valued expression that may be SQL NULL, carrying
// the same operators as String for the same reason NullableInteger does.
type NullableString struct{ base }

func (s NullableString) Equals(v any) Boolean {
	return Boolean{base{fmt.Sprintf("(%s = %s)", s.frag, stringOperand(v))}}
}

// StartsWith renders "(<frag> like (<x> || '%'))".
func (s NullableString) StartsWith(v any) Boolean {
	return Boolean{base{fmt.Sprintf("(%s like (%s || '%%'))", s.frag, stringOperand(v))}}
}

// EndsWith renders "(<frag> like ('%' || <x>))".
func (s NullableString) EndsWith(v any) Boolean {
	return Boolean{base{fmt.Sprintf("(%s like ('%%' || %s))", s.frag, stringOperand(v))}}
}

func (s NullableString) Upper() NullableString     { return NullableString{base{fmt.Sprintf("upper(%s)", s.frag)}} }
func (s NullableString) Lower() NullableString     { return NullableString{base{fmt.Sprintf("lower(%s)", s.frag)}} }
func (s NullableString) Trim() NullableString      { return NullableString{base{fmt.Sprintf("trim(%s)", s.frag)}} }
func (s NullableString) TrimLeft() NullableString  { return NullableString{base{fmt.Sprintf("ltrim(%s)", s.frag)}} }
func (s NullableString) TrimRight() NullableString { return NullableString{base{fmt.Sprintf("rtrim(%s)", s.frag)}} }

// IfNull renders "coalesce(<frag>, <lift(v)>)" and returns non-nullable String.
func (s NullableString) IfNull(v string) String {
	return String{base{fmt.Sprintf("coalesce(%s, %s)", s.frag, liftString(v))}}
}

// ---- literal lifting ----

func liftInt(v int64) string      { return fmt.Sprintf("%d", v) }
func liftFloat(v float64) string  { return fmt.Sprintf("%v", v) }
func liftString(v string) string  { return "'" + escapeQuote(v) + "'" }
func liftBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func escapeQuote(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// numericOp lifts v (an Expr of numeric tag, or an int/int64/float32/float64
// literal) and renders "(<l> OP <r>)".
func numericOp(leftFrag, op string, v any) Boolean {
	return Boolean{base{fmt.Sprintf("(%s %s %s)", leftFrag, op, numericOperand(v))}}
}

func numericOperand(v any) string {
	switch x := v.(type) {
	case Integer, NullableInteger, Double, NullableDouble:
		return x.(Expr).Render()
	case int:
		return liftInt(int64(x))
	case int64:
		return liftInt(x)
	case float32:
		return liftFloat(float64(x))
	case float64:
		return liftFloat(x)
	default:
		panic(fmt.Sprintf("expr: operand %v is not a numeric expression or literal", v))
	}
}

func stringOperand(v any) string {
	switch x := v.(type) {
	case Expr:
		return x.Render()
	case string:
		return liftString(x)
	default:
		panic(fmt.Sprintf("expr: operand %v is not a string expression or literal", v))
	}
}

// ---- literal constructors ----

func LitInteger(v int64) Integer   { return Integer{base{liftInt(v)}} }
func LitDouble(v float64) Double   { return Double{base{liftFloat(v)}} }
func LitString(v string) String   { return String{base{liftString(v)}} }
func LitBoolean(v bool) Boolean    { return Boolean{base{liftBool(v)}} }

// ---- column constructors ----
// These render "<alias>."<field>"" fragments; the query builder calls them
// once per field when it seeds a Scope from a table's declared fields.

func colFrag(alias, field string) string {
	return fmt.Sprintf(`%s."%s"`, alias, field)
}

func IntegerColumn(alias, field string) Integer { return Integer{base{colFrag(alias, field)}} }
func NullableIntegerColumn(alias, field string) NullableInteger {
	return NullableInteger{base{colFrag(alias, field)}}
}
func DoubleColumn(alias, field string) Double { return Double{base{colFrag(alias, field)}} }
func NullableDoubleColumn(alias, field string) NullableDouble {
	return NullableDouble{base{colFrag(alias, field)}}
}
func StringColumn(alias, field string) String { return String{base{colFrag(alias, field)}} }
func NullableStringColumn(alias, field string) NullableString {
	return NullableString{base{colFrag(alias, field)}}
}
