package rules

import (
	"fmt"

	"github.com/akraskov/safemig/internal/model"
)

const (
	RuleRenameColumn = "SM006"
	RuleRenameTable  = "SM014"
)

// RenameColumnBreaksDeploy flags column renames. The rename itself is
// instant, but releases still running the old code fail the moment the
// changeset applies.
type RenameColumnBreaksDeploy struct{}

func (RenameColumnBreaksDeploy) ID() string                { return RuleRenameColumn }
func (RenameColumnBreaksDeploy) DefaultSeverity() Severity { return SeverityInfo }
func (RenameColumnBreaksDeploy) Vendors() []string         { return nil }
func (RenameColumnBreaksDeploy) Description() string {
	return "Column rename may break code during deployment"
}

func (r RenameColumnBreaksDeploy) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindRenameColumn {
		return nil
	}
	msg := fmt.Sprintf("renaming column %q to %q on %q may break old code during a rolling deployment",
		op.Column, op.NewName, op.Table)
	return newIssue(r, msg, `Zero-downtime column rename (expand/contract):

1. Add the new column.
2. Deploy code writing to both columns, reading from the new one.
3. Copy remaining data.
4. Drop the old column in a later changeset.

If brief downtime is acceptable, a direct rename is fine.`)
}

// RenameTableBreaksReferences flags table renames: foreign keys from
// other scopes, raw SQL, and database permissions can all reference
// the old name.
type RenameTableBreaksReferences struct{}

func (RenameTableBreaksReferences) ID() string                { return RuleRenameTable }
func (RenameTableBreaksReferences) DefaultSeverity() Severity { return SeverityWarning }
func (RenameTableBreaksReferences) Vendors() []string         { return nil }
func (RenameTableBreaksReferences) Description() string {
	return "Renaming a table may break foreign keys and references"
}

func (r RenameTableBreaksReferences) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindRenameTable {
		return nil
	}
	msg := fmt.Sprintf("renaming table %q to %q may break foreign keys, raw SQL, and external references",
		op.Table, op.NewName)
	return newIssue(r, msg, `Before renaming a table:

1. Audit raw SQL and other scopes for references to the old name.
2. Check database-level grants on the table.
3. Consider keeping the old physical name and renaming only in the
   application model.`)
}
