package query

import (
	"strings"
	"testing"

	"github.com/arjunmehta/relsync/expr"
	"github.com/arjunmehta/relsync/schema"
)

func table1() schema.Table {
	return schema.Table{
		Name: "table1",
		Fields: []schema.Field{
			{Name: "field1", Type: schema.String, Nullable: true},
			{Name: "field2", Type: schema.Integer},
		},
	}
}

func table2() schema.Table {
	return schema.Table{
		Name: "table2",
		Fields: []schema.Field{
			{Name: "field3", Type: schema.String},
			{Name: "field4", Type: schema.Integer},
		},
	}
}

func TestRender_S1_JoinFilterOrderPaging(t *testing.T) {
	ordered := From(nil, table1(), "t1").
		Join(table2(), "t2", func(s Scope) expr.Boolean {
			return s["t1"]["field2"].(expr.Integer).Equals(s["t2"]["field4"])
		}).
		Select(func(s Scope) map[string]expr.Expr {
			return map[string]expr.Expr{
				"name": s["t1"]["field1"],
				"age":  s["t2"]["field4"],
			}
		}).
		Where(func(s Scope) expr.Boolean {
			return s["t1"]["field1"].(expr.NullableString).IfNull("").StartsWith("blablabla")
		}).
		OrderBy(func(s Scope) OrderList {
			return Order(s["t1"]["field1"].(expr.NullableString).Desc(), s["t1"]["field2"])
		})

	sql, labels := render(ordered.st, ExecOptions{PageSize: 20, PageIndex: 0})

	wantFragments := []string{
		`t1."field1" as "name"`,
		`t2."field4" as "age"`,
		`from "table1" t1`,
		`join "table2" t2 on (t1."field2" = t2."field4")`,
		`where (coalesce(t1."field1", '') like ('blablabla' || '%'))`,
		`order by t1."field1" desc, t1."field2"`,
		`limit 20 offset 0`,
	}

	for _, frag := range wantFragments {
		if !strings.Contains(sql, frag) {
			t.Errorf("rendered SQL missing fragment %q\ngot: %s", frag, sql)
		}
	}

	if len(labels) != 2 || labels[0] != "age" || labels[1] != "name" {
		t.Errorf("expected sorted labels [age name], got %v", labels)
	}
}

func TestRender_NoWhereNoOrderNoPaging(t *testing.T) {
	st := From(nil, table1(), "t1").
		Select(func(s Scope) map[string]expr.Expr {
			return map[string]expr.Expr{"f": s["t1"]["field2"]}
		}).st

	sql, _ := render(st, ExecOptions{})

	if strings.Contains(sql, "where") {
		t.Errorf("expected no WHERE clause, got %s", sql)
	}
	if strings.Contains(sql, "order by") {
		t.Errorf("expected no ORDER BY clause, got %s", sql)
	}
	if strings.Contains(sql, "limit") {
		t.Errorf("expected no LIMIT clause, got %s", sql)
	}
}
