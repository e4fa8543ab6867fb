package expr

import "testing"

func TestStringOperators(t *testing.T) {
	name := StringColumn("t1", "name")

	tests := []struct {
		name string
		got  Expr
		want string
	}{
		{"equals", name.Equals("bob"), `(t1."name" = 'bob')`},
		{"startsWith", name.StartsWith("bo"), `(t1."name" like ('bo' || '%'))`},
		{"endsWith", name.EndsWith("ob"), `(t1."name" like ('%' || 'ob'))`},
		{"upper", name.Upper(), `upper(t1."name")`},
		{"lower", name.Lower(), `lower(t1."name")`},
		{"trim", name.Trim(), `trim(t1."name")`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.got.Render(); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStartsWithUsesConcatenationNotPlus(t *testing.T) {
	got := StringColumn("t1", "name").StartsWith("bo").Render()
	if want := `(t1."name" like ('bo' || '%'))`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNumericOperators(t *testing.T) {
	age := IntegerColumn("t1", "age")

	if got, want := age.Equals(30).Render(), `(t1."age" = 30)`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := age.GreaterThan(LitInteger(18)).Render(), `(t1."age" > 18)`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAscDesc(t *testing.T) {
	name := StringColumn("t1", "name")
	if got, want := name.Asc().Render(), `t1."name" asc`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := name.Desc().Render(), `t1."name" desc`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNullableIfNull(t *testing.T) {
	email := NullableStringColumn("t1", "email")
	got := email.IfNull("none").Render()
	want := `coalesce(t1."email", 'none')`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNullableStringOperators(t *testing.T) {
	email := NullableStringColumn("t1", "email")

	tests := []struct {
		name string
		got  Expr
		want string
	}{
		{"equals", email.Equals("bob@example.com"), `(t1."email" = 'bob@example.com')`},
		{"startsWith", email.StartsWith("bo"), `(t1."email" like ('bo' || '%'))`},
		{"endsWith", email.EndsWith("com"), `(t1."email" like ('%' || 'com'))`},
		{"upper", email.Upper(), `upper(t1."email")`},
		{"lower", email.Lower(), `lower(t1."email")`},
		{"trim", email.Trim(), `trim(t1."email")`},
		{"trimLeft", email.TrimLeft(), `ltrim(t1."email")`},
		{"trimRight", email.TrimRight(), `rtrim(t1."email")`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.got.Render(); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNullableNumericOperators(t *testing.T) {
	discount := NullableIntegerColumn("t1", "discount")

	tests := []struct {
		name string
		got  Expr
		want string
	}{
		{"equals", discount.Equals(0), `(t1."discount" = 0)`},
		{"lessThan", discount.LessThan(10), `(t1."discount" < 10)`},
		{"greaterThan", discount.GreaterThan(0), `(t1."discount" > 0)`},
		{"lessThanOrEqual", discount.LessThanOrEqual(10), `(t1."discount" <= 10)`},
		{"greaterThanOrEqual", discount.GreaterThanOrEqual(0), `(t1."discount" >= 0)`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.got.Render(); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}

	price := NullableDoubleColumn("t1", "price")
	if got, want := price.GreaterThan(9.99).Render(), `(t1."price" > 9.99)`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCast(t *testing.T) {
	age := IntegerColumn("t1", "age")
	got := age.Cast(CastToString).Render()
	want := `cast(t1."age" as varchar)`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBooleanNot(t *testing.T) {
	flag := IntegerColumn("t1", "x").Equals(1)
	got := flag.Not().Render()
	want := `(not (t1."x" = 1))`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLiteralEscapesQuotes(t *testing.T) {
	got := LitString("o'brien").Render()
	want := `'o''brien'`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNumericOperandRejectsNonNumeric(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for non-numeric operand")
		}
	}()
	IntegerColumn("t1", "age").Equals("not a number")
}
