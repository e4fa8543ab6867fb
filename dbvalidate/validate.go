// Package dbvalidate runs pre-flight checks on a declared schema before any
// database I/O, the way the teacher's validator package gates a run before
// touching the pool. Unlike the teacher's SchemaValidator (which produces a
// ValidationResult of errors/warnings/info and never aborts), this package
// enforces hard invariants: any violation is a fatal error that aborts sync
// outright, matching spec §4.6's "fatal error that aborts the whole sync".
package dbvalidate

import (
	"fmt"

	"github.com/arjunmehta/relsync/schema"
	"github.com/arjunmehta/relsync/typemap"
)

// Validate checks every invariant from spec §3 against the declared tables
// and returns the first violation found, quoting the offending table.field.
func Validate(tables []schema.Table) error {
	byName := make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	for _, t := range tables {
		if err := validateTable(t, byName); err != nil {
			return err
		}
	}
	return nil
}

func validateTable(t schema.Table, byName map[string]schema.Table) error {
	seenNames := make(map[string]bool, len(t.Fields))
	primaryKeys := 0

	for _, f := range t.Fields {
		if seenNames[f.Name] {
			return fmt.Errorf("%s.%s: duplicate field name", t.Name, f.Name)
		}
		seenNames[f.Name] = true

		if f.PrimaryKey {
			primaryKeys++
			if f.Nullable {
				return fmt.Errorf("%s.%s: primary key field must not be nullable", t.Name, f.Name)
			}
		}

		if f.Type == schema.Serial {
			if f.Nullable {
				return fmt.Errorf("%s.%s: serial field cannot declare nullable", t.Name, f.Name)
			}
			if f.Unique {
				return fmt.Errorf("%s.%s: serial field cannot declare unique (implicitly unique)", t.Name, f.Name)
			}
		}

		if f.OneOf != nil && len(f.OneOf) == 0 {
			return fmt.Errorf("%s.%s: oneOf must be non-empty when present", t.Name, f.Name)
		}

		if f.HasIndex() {
			if f.Type == schema.Serial {
				return fmt.Errorf("%s.%s: index forbidden on serial field", t.Name, f.Name)
			}
			if f.References != nil {
				return fmt.Errorf("%s.%s: index forbidden on a referencing field", t.Name, f.Name)
			}
			if f.Unique {
				return fmt.Errorf("%s.%s: index forbidden on a unique field", t.Name, f.Name)
			}
			if f.PrimaryKey {
				return fmt.Errorf("%s.%s: index forbidden on a primary-key field", t.Name, f.Name)
			}
		}

		if f.References != nil {
			if err := validateReference(t, f, byName); err != nil {
				return err
			}
		}
	}

	if primaryKeys > 1 {
		return fmt.Errorf("%s: at most one primary-key field is allowed, found %d", t.Name, primaryKeys)
	}

	return nil
}

func validateReference(t schema.Table, f schema.Field, byName map[string]schema.Table) error {
	ref := f.References
	target, ok := byName[ref.Table]
	if !ok {
		return fmt.Errorf("%s.%s: references undeclared table %q", t.Name, f.Name, ref.Table)
	}

	targetField, ok := target.FieldByName(ref.Field)
	if !ok {
		return fmt.Errorf("%s.%s: references undeclared field %q on table %q", t.Name, f.Name, ref.Field, ref.Table)
	}

	if !targetField.PrimaryKey {
		return fmt.Errorf("%s.%s: references %s.%s, which is not a primary key", t.Name, f.Name, ref.Table, ref.Field)
	}

	if !typemap.SameClass(f.Type, targetField.Type) {
		return fmt.Errorf("%s.%s: references %s.%s across incompatible type classes (%s vs %s)",
			t.Name, f.Name, ref.Table, ref.Field, f.Type, targetField.Type)
	}

	return nil
}
