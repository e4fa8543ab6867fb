// Package diff compares a declared schema against live catalog state and
// produces an ordered list of resolvable-or-not divergence issues, each
// carrying its own remediation SQL. Grounded on the teacher's diff
// package's map-based lookup shape (existingTableMap/modelTableMap,
// existingCols/modelCols), regrounded on the SyncIssue/SyncIssueType model
// this system's design calls for instead of migrato's Operation slice.
package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/arjunmehta/relsync/ddl"
	"github.com/arjunmehta/relsync/dbapi"
	"github.com/arjunmehta/relsync/introspect"
	"github.com/arjunmehta/relsync/schema"
	"github.com/arjunmehta/relsync/typemap"
)

// IssueKind enumerates every divergence the engine can report, in the
// fixed order spec §4.9 uses for fulfillment.
type IssueKind string

const (
	SchemaNotFound            IssueKind = "schemaNotFound"
	TableNotFound             IssueKind = "tableNotFound"
	FieldNotFound              IssueKind = "fieldNotFound"
	FieldTypeMismatch          IssueKind = "fieldTypeMismatch"
	FieldNullableMismatch      IssueKind = "fieldNullableMismatch"
	FieldDefaultValueMismatch  IssueKind = "fieldDefaultValueMismatch"
	PrimaryKeyNotFound         IssueKind = "primaryKeyNotFound"
	PrimaryKeyDangling         IssueKind = "primaryKeyDangling"
	ForeignKeyNotFound         IssueKind = "foreignKeyNotFound"
	ForeignKeyDangling         IssueKind = "foreignKeyDangling"
	ForeignKeyMismatch         IssueKind = "foreignKeyMismatch"
	UniqueKeyNotFound          IssueKind = "uniqueKeyNotFound"
	UniqueKeyDangling          IssueKind = "uniqueKeyDangling"
	CheckKeyNotFound           IssueKind = "checkKeyNotFound"
	CheckKeyMismatch           IssueKind = "checkKeyMismatch"
	CheckKeyDangling           IssueKind = "checkKeyDangling"
	BtreeIndexNotFound         IssueKind = "btreeIndexNotFound"
	BtreeIndexDangling         IssueKind = "btreeIndexDangling"
)

// fulfillmentOrder is the fixed sequence spec §4.9 requires fulfillment to
// iterate in; package sync imports this directly rather than re-deriving
// it, so the two packages can never drift apart.
var fulfillmentOrder = []IssueKind{
	SchemaNotFound, TableNotFound, FieldNotFound, FieldTypeMismatch,
	FieldNullableMismatch, FieldDefaultValueMismatch,
	PrimaryKeyNotFound, PrimaryKeyDangling,
	ForeignKeyNotFound, ForeignKeyDangling, ForeignKeyMismatch,
	UniqueKeyNotFound, UniqueKeyDangling,
	CheckKeyNotFound, CheckKeyMismatch, CheckKeyDangling,
	BtreeIndexNotFound, BtreeIndexDangling,
}

// FulfillmentOrder returns the fixed fulfillment kind order from spec
// §4.9.
func FulfillmentOrder() []IssueKind {
	return append([]IssueKind(nil), fulfillmentOrder...)
}

// Issue is one divergence between declared and observed schema.
type Issue struct {
	Kind        IssueKind
	Schema      string
	Table       string
	Field       string
	Resolvable  bool
	Description string
	Fulfilled   bool
	Actions     []string
	Error       error
}

// Result is the full diff output for one sync run.
type Result struct {
	Issues     []Issue
	Actions    []string
	Warnings   []string
	Resolvable bool
	Fulfilled  bool
}

// Diff compares tables against the schemaName's live catalog state and
// returns the ordered issue list, per spec §4.7.
func Diff(ctx context.Context, q dbapi.Querier, schemaName string, tables []schema.Table) (Result, error) {
	state, err := introspect.Read(ctx, q, schemaName)
	if err != nil {
		return Result{}, fmt.Errorf("reading catalog state: %w", err)
	}

	var issues []Issue
	if !state.SchemaExists {
		issues = diffMissingSchema(schemaName, tables)
	} else {
		var err error
		issues, err = diffExistingSchema(ctx, q, schemaName, tables, state)
		if err != nil {
			return Result{}, err
		}
	}

	warnings := undeclaredWarnings(tables, state)

	return buildResult(issues, warnings), nil
}

func buildResult(issues []Issue, warnings []string) Result {
	var actions []string
	resolvable := true
	for _, iss := range issues {
		actions = append(actions, iss.Actions...)
		if !iss.Resolvable {
			resolvable = false
		}
	}
	return Result{
		Issues:     issues,
		Actions:    actions,
		Warnings:   warnings,
		Resolvable: resolvable,
		Fulfilled:  len(issues) == 0,
	}
}

// ---- schema does not exist ----

func diffMissingSchema(schemaName string, tables []schema.Table) []Issue {
	issues := []Issue{{
		Kind:       SchemaNotFound,
		Schema:     schemaName,
		Resolvable: true,
		Actions:    ddl.CreateSchema(schemaName),
	}}

	for _, t := range tables {
		issues = append(issues, Issue{
			Kind:       TableNotFound,
			Schema:     schemaName,
			Table:      t.Name,
			Resolvable: true,
			Actions:    ddl.CreateTable(schemaName, t),
		})

		for _, f := range t.Fields {
			issues = append(issues, keyIssuesForFreshField(schemaName, t, f, true)...)
		}
	}

	return issues
}

// keyIssuesForFreshField emits the NotFound issue for every key/index a
// field declares. freshSchema is the foreign-key issue's resolvable flag:
// true (the fresh schema branch, its only caller, since every referenced
// table/PK is created in the same pass by construction) attaches the
// ADD FOREIGN KEY action; false leaves the issue unresolvable with no
// actions.
func keyIssuesForFreshField(schemaName string, t schema.Table, f schema.Field, freshSchema bool) []Issue {
	var out []Issue

	if f.PrimaryKey {
		out = append(out, Issue{
			Kind: PrimaryKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.AddPrimaryKey(schemaName, t.Name, f.Name),
		})
	}

	if f.References != nil {
		out = append(out, Issue{
			Kind: ForeignKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: freshSchema, Actions: conditionalFKActions(freshSchema, schemaName, t.Name, f),
		})
	}

	if f.Unique {
		out = append(out, Issue{
			Kind: UniqueKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.AddUnique(schemaName, t.Name, f.Name),
		})
	}

	if f.OneOf != nil {
		out = append(out, Issue{
			Kind: CheckKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.AddCheck(schemaName, t.Name, f),
		})
	}

	if f.HasIndex() {
		out = append(out, Issue{
			Kind: BtreeIndexNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.AddBTreeIndex(schemaName, t.Name, f.Name),
		})
	}

	return out
}

func conditionalFKActions(resolvable bool, schemaName, table string, f schema.Field) []string {
	if !resolvable {
		return nil
	}
	return ddl.AddForeignKey(schemaName, table, f.Name, *f.References)
}

// ---- schema exists ----

func diffExistingSchema(ctx context.Context, q dbapi.Querier, schemaName string, tables []schema.Table, state introspect.State) ([]Issue, error) {
	var issues []Issue

	// Pass 1: column shapes.
	for _, t := range tables {
		if !state.HasTable(t.Name) {
			issues = append(issues, Issue{
				Kind: TableNotFound, Schema: schemaName, Table: t.Name,
				Resolvable: true, Actions: ddl.CreateTable(schemaName, t),
			})
			continue
		}

		for _, f := range t.Fields {
			fieldIssues, err := diffColumnShape(ctx, q, schemaName, t, f, state)
			if err != nil {
				return nil, err
			}
			issues = append(issues, fieldIssues...)
		}
	}

	// Pass 2: keys and indexes.
	for _, t := range tables {
		for _, f := range t.Fields {
			fieldIssues, err := diffKeysAndIndexes(ctx, q, schemaName, t, f, state)
			if err != nil {
				return nil, err
			}
			issues = append(issues, fieldIssues...)
		}
	}

	fixupForeignKeyResolvability(issues, tables)

	return issues, nil
}

func diffColumnShape(ctx context.Context, q dbapi.Querier, schemaName string, t schema.Table, f schema.Field, state introspect.State) ([]Issue, error) {
	col, ok := state.FindColumn(t.Name, f.Name)
	if !ok {
		return []Issue{{
			Kind: FieldNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.AddColumn(schemaName, t.Name, f),
		}}, nil
	}

	var issues []Issue

	if iss, ok := diffType(schemaName, t.Name, f, col); ok {
		issues = append(issues, iss)
	}

	if f.Type != schema.Serial {
		iss, err := diffNullable(ctx, q, schemaName, t.Name, f, col)
		if err != nil {
			return nil, err
		}
		if iss != nil {
			issues = append(issues, *iss)
		}

		if iss := diffDefault(schemaName, t.Name, f, col); iss != nil {
			issues = append(issues, *iss)
		}
	}

	return issues, nil
}

func isSerialIntegerSpecialCase(declared schema.FieldType, physical string) bool {
	observed, known := typemap.ToLogical(physical)
	return declared == schema.Serial && known && observed == schema.Integer
}

func diffType(schemaName, table string, f schema.Field, col introspect.Column) (Issue, bool) {
	if isSerialIntegerSpecialCase(f.Type, col.PhysicalType) {
		return Issue{}, false
	}

	observed, known := typemap.ToLogical(col.PhysicalType)
	mismatch := !known || observed != f.Type
	if !mismatch {
		return Issue{}, false
	}

	resolvable := known && typemap.CanConvert(observed, f.Type)
	var actions []string
	desc := fmt.Sprintf("observed physical type %q is not declared type %q", col.PhysicalType, f.Type)
	if resolvable {
		actions = ddl.AlterColumnType(schemaName, table, f.Name, f.Type)
		desc = ""
	}

	return Issue{
		Kind: FieldTypeMismatch, Schema: schemaName, Table: table, Field: f.Name,
		Resolvable: resolvable, Actions: actions, Description: desc,
	}, true
}

func diffNullable(ctx context.Context, q dbapi.Querier, schemaName, table string, f schema.Field, col introspect.Column) (*Issue, error) {
	observedNullable := !col.NotNull
	if f.Nullable == observedNullable {
		return nil, nil
	}

	if f.Nullable {
		return &Issue{
			Kind: FieldNullableMismatch, Schema: schemaName, Table: table, Field: f.Name,
			Resolvable: true, Actions: ddl.SetNullable(schemaName, table, f.Name, true),
		}, nil
	}

	hasNull, err := probeHasNull(ctx, q, schemaName, table, f.Name)
	if err != nil {
		return nil, err
	}
	if hasNull {
		return &Issue{
			Kind: FieldNullableMismatch, Schema: schemaName, Table: table, Field: f.Name,
			Resolvable: false, Description: "nulls found",
		}, nil
	}
	return &Issue{
		Kind: FieldNullableMismatch, Schema: schemaName, Table: table, Field: f.Name,
		Resolvable: true, Actions: ddl.SetNullable(schemaName, table, f.Name, false),
	}, nil
}

func diffDefault(schemaName, table string, f schema.Field, col introspect.Column) *Issue {
	declared := ""
	if f.DefaultValue != nil {
		declared = ddl.FormatLiteral(f.Type, *f.DefaultValue)
	}
	observed := normalizeDefaultExpr(col.DefaultExprText)

	if declared == observed {
		return nil
	}

	return &Issue{
		Kind: FieldDefaultValueMismatch, Schema: schemaName, Table: table, Field: f.Name,
		Resolvable: true, Actions: ddl.SetDefault(schemaName, table, f),
	}
}

// normalizeDefaultExpr strips every level of wrapping parens and then
// everything from the first "::" cast onward from a catalog-rendered
// default expression, per the
// decision to compare default values textually rather than evaluating
// them server-side.
func normalizeDefaultExpr(expr string) string {
	e := strings.TrimSpace(expr)
	for strings.HasPrefix(e, "(") && strings.HasSuffix(e, ")") {
		e = strings.TrimSpace(e[1 : len(e)-1])
	}
	if idx := strings.Index(e, "::"); idx >= 0 {
		e = strings.TrimSpace(e[:idx])
	}
	return e
}

func diffKeysAndIndexes(ctx context.Context, q dbapi.Querier, schemaName string, t schema.Table, f schema.Field, state introspect.State) ([]Issue, error) {
	var issues []Issue

	pkCol, hasPK := state.FindConstraintOnColumn(t.Name, f.Name, "p")
	switch {
	case f.PrimaryKey && !hasPK:
		issues = append(issues, Issue{
			Kind: PrimaryKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.AddPrimaryKey(schemaName, t.Name, f.Name),
		})
	case !f.PrimaryKey && hasPK:
		referenced := isReferenced(t.Name, f.Name, state)
		iss := Issue{
			Kind: PrimaryKeyDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: !referenced,
		}
		if !referenced {
			iss.Actions = ddl.DropConstraint(schemaName, t.Name, pkCol.Name)
		} else {
			iss.Description = "referenced by a foreign key"
		}
		issues = append(issues, iss)
	}

	if f.References != nil {
		iss, err := diffForeignKey(ctx, q, schemaName, t, f, state)
		if err != nil {
			return nil, err
		}
		if iss != nil {
			issues = append(issues, *iss)
		}
	} else if fk, ok := state.FindConstraintOnColumn(t.Name, f.Name, "f"); ok {
		issues = append(issues, Issue{
			Kind: ForeignKeyDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.DropConstraint(schemaName, t.Name, fk.Name),
		})
	}

	if f.Unique {
		iss, err := diffUnique(ctx, q, schemaName, t, f, state)
		if err != nil {
			return nil, err
		}
		if iss != nil {
			issues = append(issues, *iss)
		}
	} else if uk, ok := state.FindConstraintOnColumn(t.Name, f.Name, "u"); ok {
		issues = append(issues, Issue{
			Kind: UniqueKeyDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.DropConstraint(schemaName, t.Name, uk.Name),
		})
	}

	if f.OneOf != nil {
		iss, err := diffCheck(ctx, q, schemaName, t, f, state)
		if err != nil {
			return nil, err
		}
		if iss != nil {
			issues = append(issues, *iss)
		}
	} else if ck, ok := state.FindConstraintOnColumn(t.Name, f.Name, "c"); ok {
		issues = append(issues, Issue{
			Kind: CheckKeyDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.DropConstraint(schemaName, t.Name, ck.Name),
		})
	}

	eligibleForIndex := !f.PrimaryKey && f.References == nil && !f.Unique && f.Type != schema.Serial
	if idx, hasIdx := state.FindIndexOnColumn(t.Name, f.Name); eligibleForIndex {
		switch {
		case f.HasIndex() && !hasIdx:
			issues = append(issues, Issue{
				Kind: BtreeIndexNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
				Resolvable: true, Actions: ddl.AddBTreeIndex(schemaName, t.Name, f.Name),
			})
		case !f.HasIndex() && hasIdx:
			issues = append(issues, Issue{
				Kind: BtreeIndexDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
				Resolvable: true, Actions: ddl.DropIndex(schemaName, idx.Name),
			})
		}
	}

	return issues, nil
}

func isReferenced(table, field string, state introspect.State) bool {
	for _, c := range state.Constraints {
		if c.Type == "f" && c.RefTable == table && introspect.ContainsColumn(c.RefColumns, field) {
			return true
		}
	}
	return false
}

func diffForeignKey(ctx context.Context, q dbapi.Querier, schemaName string, t schema.Table, f schema.Field, state introspect.State) (*Issue, error) {
	ref := *f.References
	fk, ok := state.FindConstraintOnColumn(t.Name, f.Name, "f")
	if !ok {
		resolvable := state.HasTable(ref.Table)
		if resolvable {
			if _, colOK := state.FindColumn(ref.Table, ref.Field); !colOK {
				resolvable = false
			}
		}
		return &Issue{
			Kind: ForeignKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: resolvable, Actions: conditionalFKActions(resolvable, schemaName, t.Name, f),
		}, nil
	}

	onDelete := fkActionCode(ref.OnDelete)
	onUpdate := fkActionCode(ref.OnUpdate)
	if fk.RefTable == ref.Table && introspect.ContainsColumn(fk.RefColumns, ref.Field) &&
		fk.OnDelete == onDelete && fk.OnUpdate == onUpdate {
		return nil, nil
	}

	return &Issue{
		Kind: ForeignKeyMismatch, Schema: schemaName, Table: t.Name, Field: f.Name,
		Resolvable: true, Actions: ddl.ReplaceForeignKey(schemaName, t.Name, f.Name, fk.Name, ref),
	}, nil
}

// fkActionCode maps a declared ReferentialAction to pg_constraint's
// single-letter code; absent maps to "a" (no action), per spec §4.7.
func fkActionCode(a schema.ReferentialAction) string {
	switch a {
	case schema.Cascade:
		return "c"
	case schema.Restrict:
		return "r"
	case schema.SetDefault:
		return "d"
	default:
		return "a"
	}
}

func diffUnique(ctx context.Context, q dbapi.Querier, schemaName string, t schema.Table, f schema.Field, state introspect.State) (*Issue, error) {
	if _, ok := state.FindConstraintOnColumn(t.Name, f.Name, "u"); ok {
		return nil, nil
	}

	isUnique, err := probeUnique(ctx, q, schemaName, t.Name, f.Name)
	if err != nil {
		return nil, err
	}
	if !isUnique {
		return &Issue{
			Kind: UniqueKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: false, Description: "non-unique values found",
		}, nil
	}
	return &Issue{
		Kind: UniqueKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
		Resolvable: true, Actions: ddl.AddUnique(schemaName, t.Name, f.Name),
	}, nil
}

func diffCheck(ctx context.Context, q dbapi.Querier, schemaName string, t schema.Table, f schema.Field, state introspect.State) (*Issue, error) {
	ck, ok := state.FindConstraintOnColumn(t.Name, f.Name, "c")
	if !ok {
		return &Issue{
			Kind: CheckKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: ddl.AddCheck(schemaName, t.Name, f),
		}, nil
	}

	for _, v := range f.OneOf {
		if !strings.Contains(ck.Definition, ddl.FormatLiteral(f.Type, v)) {
			allIn, err := probeAllIn(ctx, q, schemaName, t.Name, f)
			if err != nil {
				return nil, err
			}
			return &Issue{
				Kind: CheckKeyMismatch, Schema: schemaName, Table: t.Name, Field: f.Name,
				Resolvable: allIn, Actions: conditionalCheckActions(allIn, schemaName, t.Name, ck.Name, f),
			}, nil
		}
	}

	return nil, nil
}

func conditionalCheckActions(resolvable bool, schemaName, table, existingName string, f schema.Field) []string {
	if !resolvable {
		return nil
	}
	return ddl.ReplaceCheck(schemaName, table, existingName, f)
}

// fixupForeignKeyResolvability performs the second pass spec §9 requires:
// a foreign key that was marked unresolvable because its target didn't
// exist yet may still be safe to apply, if an already-queued resolvable
// issue creates that target column in the same run.
func fixupForeignKeyResolvability(issues []Issue, tables []schema.Table) {
	willExist := make(map[[2]string]bool)

	for _, iss := range issues {
		if !iss.Resolvable {
			continue
		}
		switch iss.Kind {
		case TableNotFound:
			if t, ok := schema.TableByName(tables, iss.Table); ok {
				for _, f := range t.Fields {
					willExist[[2]string{iss.Table, f.Name}] = true
				}
			}
		case FieldNotFound, PrimaryKeyNotFound:
			willExist[[2]string{iss.Table, iss.Field}] = true
		}
	}

	for i := range issues {
		iss := &issues[i]
		if iss.Kind != ForeignKeyNotFound || iss.Resolvable {
			continue
		}
		t, ok := schema.TableByName(tables, iss.Table)
		if !ok {
			continue
		}
		f, ok := t.FieldByName(iss.Field)
		if !ok || f.References == nil {
			continue
		}
		if willExist[[2]string{f.References.Table, f.References.Field}] {
			iss.Resolvable = true
			iss.Actions = ddl.AddForeignKey(iss.Schema, iss.Table, iss.Field, *f.References)
		}
	}
}

// ---- undeclared (warnings only) ----

func undeclaredWarnings(tables []schema.Table, state introspect.State) []string {
	declared := make(map[string]map[string]bool, len(tables))
	for _, t := range tables {
		cols := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			cols[f.Name] = true
		}
		declared[t.Name] = cols
	}

	seenTable := make(map[string]bool)
	var warnings []string
	for _, c := range state.Columns {
		if c.IsDropped {
			continue
		}
		cols, known := declared[c.Table]
		if !known {
			if !seenTable[c.Table] {
				seenTable[c.Table] = true
				warnings = append(warnings, fmt.Sprintf("undeclared table %q found in schema", c.Table))
			}
			continue
		}
		if !cols[c.Column] {
			warnings = append(warnings, fmt.Sprintf("undeclared column %q found on table %q", c.Column, c.Table))
		}
	}
	return warnings
}
