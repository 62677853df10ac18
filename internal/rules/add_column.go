package rules

import (
	"fmt"

	"github.com/akraskov/safemig/internal/model"
)

const (
	RuleNotNullWithoutDefault = "SM001"
	RuleAddForeignKey         = "SM005"
)

// NotNullWithoutDefault flags adding a NOT NULL column with no default.
// The database must rewrite the whole table under an exclusive lock to
// add such a column, blocking reads and writes for the duration.
type NotNullWithoutDefault struct{}

func (NotNullWithoutDefault) ID() string                { return RuleNotNullWithoutDefault }
func (NotNullWithoutDefault) DefaultSeverity() Severity { return SeverityError }
func (NotNullWithoutDefault) Vendors() []string         { return nil }
func (NotNullWithoutDefault) Description() string {
	return "Adding NOT NULL column without default will lock table"
}

func (r NotNullWithoutDefault) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindAddColumn || op.Spec == nil {
		return nil
	}
	spec := op.Spec
	if spec.Nullable || spec.HasDefault || spec.HasDBDefault {
		return nil
	}
	// Primary keys and auto-increment columns get their values from
	// the database itself.
	if spec.PrimaryKey || spec.AutoIncrement {
		return nil
	}
	// A relation without a database constraint is added as a plain
	// column and handled by SM005's safe pattern instead.
	if spec.ForeignKey != nil && !spec.ForeignKey.DBConstraint {
		return nil
	}

	msg := fmt.Sprintf("adding NOT NULL column %q to %q without a default value will lock the table",
		op.Column, op.Table)
	return newIssue(r, msg, notNullSuggestion(op))
}

func notNullSuggestion(op *model.Operation) string {
	return fmt.Sprintf(`Safe pattern for adding a NOT NULL column:

1. Add %q as nullable.
2. Backfill existing rows in batches.
3. Add the NOT NULL constraint in a separate changeset once the
   backfill is complete.`, op.Column)
}

// AddForeignKeyValidates flags foreign keys created with a database
// constraint. Validation scans every existing row while holding locks.
type AddForeignKeyValidates struct{}

func (AddForeignKeyValidates) ID() string                { return RuleAddForeignKey }
func (AddForeignKeyValidates) DefaultSeverity() Severity { return SeverityWarning }
func (AddForeignKeyValidates) Vendors() []string         { return []string{"postgresql"} }
func (AddForeignKeyValidates) Description() string {
	return "Adding foreign key validates existing rows (may lock table)"
}

func (r AddForeignKeyValidates) Check(op *model.Operation, ctx *Context) *Issue {
	switch op.Kind {
	case model.KindAddColumn:
		if op.Spec == nil || op.Spec.ForeignKey == nil || !op.Spec.ForeignKey.DBConstraint {
			return nil
		}
		msg := fmt.Sprintf("adding foreign key %q to %q will validate all existing rows, potentially locking the table",
			op.Column, op.Table)
		return newIssue(r, msg, fkSuggestion)
	case model.KindAddConstraint:
		if op.Constraint != model.ConstraintForeignKey {
			return nil
		}
		msg := fmt.Sprintf("constraint %q on %q will validate all existing rows, potentially locking the table",
			op.ConstraintName, op.Table)
		return newIssue(r, msg, fkSuggestion)
	}
	return nil
}

const fkSuggestion = `Safe pattern for adding a foreign key:

1. Add the column without a database constraint.
2. Backfill data if needed.
3. Add the constraint as NOT VALID with raw SQL.
4. VALIDATE CONSTRAINT in a separate changeset; validation then takes
   only a light lock.`
