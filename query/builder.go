// Package query is relsync's typed SELECT builder (spec C3). It grows a
// query through the fixed stage sequence
//
//	From -> (Join)* -> Select -> (Where)? -> (OrderBy)? -> Exec
//
// Each stage is a distinct Go type wrapping an immutable context record, so
// calling Where before Select (or Exec before Select) is a compile error,
// not a runtime one — the "builder-per-stage" pattern from spec §9.
package query

import (
	"context"

	"github.com/arjunmehta/relsync/dbapi"
	"github.com/arjunmehta/relsync/expr"
	"github.com/arjunmehta/relsync/schema"
)

type joinClause struct {
	table string
	alias string
	on    expr.Boolean
}

// state is the builder's immutable context, threaded through every stage.
// Each stage method returns a new state rather than mutating the receiver.
type state struct {
	driver     dbapi.Querier
	fromTable  string
	fromAlias  string
	joins      []joinClause
	scope      Scope
	projection map[string]expr.Expr
	where      *expr.Boolean
	orderBy    OrderList
}

func (s state) clone() state {
	return state{
		driver:     s.driver,
		fromTable:  s.fromTable,
		fromAlias:  s.fromAlias,
		joins:      append([]joinClause(nil), s.joins...),
		scope:      cloneScope(s.scope),
		projection: s.projection,
		where:      s.where,
		orderBy:    s.orderBy,
	}
}

// FromStage is the builder stage after from(); it only exposes Join and
// Select, matching spec §4.3's "from -> (join)* -> select" sequencing.
type FromStage struct{ st state }

// From seeds the scope with one aliased table and begins a query.
func From(driver dbapi.Querier, table schema.Table, alias string) FromStage {
	st := state{
		driver:    driver,
		fromTable: table.Name,
		fromAlias: alias,
		scope:     Scope{alias: seedFields(alias, table)},
	}
	return FromStage{st}
}

// Join adds another aliased table to the scope and a join condition built
// from the scope visible so far (including the new alias).
func (f FromStage) Join(table schema.Table, alias string, on func(Scope) expr.Boolean) FromStage {
	st := f.st.clone()
	st.scope[alias] = seedFields(alias, table)
	cond := on(st.scope)
	st.joins = append(st.joins, joinClause{table: table.Name, alias: alias, on: cond})
	return FromStage{st}
}

// Select fixes the result-row shape: each returned label's decoded type
// follows its expression's tag.
func (f FromStage) Select(sel func(Scope) map[string]expr.Expr) SelectedStage {
	st := f.st.clone()
	st.projection = sel(st.scope)
	return SelectedStage{st}
}

// SelectedStage is reachable only after Select(); it exposes Where,
// OrderBy, and the terminal Exec.
type SelectedStage struct{ st state }

// Where stores the query's single filter predicate.
func (s SelectedStage) Where(pred func(Scope) expr.Boolean) FilteredStage {
	st := s.st.clone()
	w := pred(st.scope)
	st.where = &w
	return FilteredStage{st}
}

// OrderBy stores the query's ORDER BY list, built from the scope.
func (s SelectedStage) OrderBy(order func(Scope) OrderList) OrderedStage {
	st := s.st.clone()
	st.orderBy = order(st.scope)
	return OrderedStage{st}
}

// Exec renders the query with no WHERE/ORDER BY and runs it.
func (s SelectedStage) Exec(ctx context.Context, opts ExecOptions) ([]Row, error) {
	return execQuery(ctx, s.st, opts)
}

// FilteredStage is reachable after Where(); it exposes OrderBy and Exec.
type FilteredStage struct{ st state }

// OrderBy stores the query's ORDER BY list, built from the scope.
func (f FilteredStage) OrderBy(order func(Scope) OrderList) OrderedStage {
	st := f.st.clone()
	st.orderBy = order(st.scope)
	return OrderedStage{st}
}

// Exec renders the filtered query and runs it.
func (f FilteredStage) Exec(ctx context.Context, opts ExecOptions) ([]Row, error) {
	return execQuery(ctx, f.st, opts)
}

// OrderedStage is reachable after OrderBy(); Exec is the only next step.
type OrderedStage struct{ st state }

// Exec renders the fully composed query and runs it.
func (o OrderedStage) Exec(ctx context.Context, opts ExecOptions) ([]Row, error) {
	return execQuery(ctx, o.st, opts)
}

// OrderList is an ordered sequence of expressions for ORDER BY. A single
// expression is just a one-element list; Order builds one from a variadic
// call so callers can write `OrderBy(func(s query.Scope) query.OrderList {
// return query.Order(s["t1"]["field1"].(expr.String).Desc(), s["t1"]["field2"]) })`.
type OrderList []expr.Expr

// Order builds an OrderList from one or more expressions, in the order
// given.
func Order(items ...expr.Expr) OrderList { return OrderList(items) }
