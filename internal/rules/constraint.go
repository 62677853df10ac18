package rules

import (
	"fmt"

	"github.com/akraskov/safemig/internal/model"
)

const (
	RuleAddUniqueConstraint = "SM009"
	RuleAddCheckConstraint  = "SM017"
)

// AddUniqueConstraintValidates flags unique constraints: creation
// builds the backing index non-concurrently and validates every
// existing row.
type AddUniqueConstraintValidates struct{}

func (AddUniqueConstraintValidates) ID() string                { return RuleAddUniqueConstraint }
func (AddUniqueConstraintValidates) DefaultSeverity() Severity { return SeverityWarning }
func (AddUniqueConstraintValidates) Vendors() []string         { return nil }
func (AddUniqueConstraintValidates) Description() string {
	return "Adding a unique constraint validates existing rows"
}

func (r AddUniqueConstraintValidates) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindAddConstraint || op.Constraint != model.ConstraintUnique {
		return nil
	}
	msg := fmt.Sprintf("unique constraint %q on %q builds an index and validates all existing rows under lock",
		op.ConstraintName, op.Table)
	return newIssue(r, msg, `Safe pattern for adding a unique constraint:

1. CREATE UNIQUE INDEX CONCURRENTLY on the columns.
2. ALTER TABLE ... ADD CONSTRAINT ... UNIQUE USING INDEX in a
   separate changeset; the constraint reuses the finished index.`)
}

// AddCheckConstraintValidates flags check constraints added in the
// default validating mode.
type AddCheckConstraintValidates struct{}

func (AddCheckConstraintValidates) ID() string                { return RuleAddCheckConstraint }
func (AddCheckConstraintValidates) DefaultSeverity() Severity { return SeverityWarning }
func (AddCheckConstraintValidates) Vendors() []string         { return nil }
func (AddCheckConstraintValidates) Description() string {
	return "Adding a check constraint validates existing rows"
}

func (r AddCheckConstraintValidates) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindAddConstraint || op.Constraint != model.ConstraintCheck {
		return nil
	}
	msg := fmt.Sprintf("check constraint %q on %q scans all existing rows while holding a lock",
		op.ConstraintName, op.Table)
	return newIssue(r, msg, `Add the constraint as NOT VALID first, then VALIDATE CONSTRAINT in a
separate changeset; validation then takes only a light lock.`)
}
