package schema

import "testing"

func TestHasIndex(t *testing.T) {
	if (Field{Index: BTree}).HasIndex() != true {
		t.Errorf("expected HasIndex true for a btree field")
	}
	if (Field{}).HasIndex() != false {
		t.Errorf("expected HasIndex false with no declared index")
	}
}

func TestFieldByName(t *testing.T) {
	tbl := Table{Fields: []Field{{Name: "id"}, {Name: "email"}}}

	if _, ok := tbl.FieldByName("email"); !ok {
		t.Errorf("expected to find email")
	}
	if _, ok := tbl.FieldByName("missing"); ok {
		t.Errorf("expected not to find missing")
	}
}

func TestTableByName(t *testing.T) {
	tables := []Table{{Name: "users"}, {Name: "orders"}}

	if _, ok := TableByName(tables, "orders"); !ok {
		t.Errorf("expected to find orders")
	}
	if _, ok := TableByName(tables, "widgets"); ok {
		t.Errorf("expected not to find widgets")
	}
}
