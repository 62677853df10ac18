package rules

import (
	"fmt"

	"github.com/akraskov/safemig/internal/model"
)

const (
	RuleRemoveColumn = "SM002"
	RuleDeleteTable  = "SM003"
)

// RemoveColumnLosesData flags column drops: the data is gone once the
// changeset applies, and code still reading the column during a rolling
// deploy breaks.
type RemoveColumnLosesData struct{}

func (RemoveColumnLosesData) ID() string                { return RuleRemoveColumn }
func (RemoveColumnLosesData) DefaultSeverity() Severity { return SeverityWarning }
func (RemoveColumnLosesData) Vendors() []string         { return nil }
func (RemoveColumnLosesData) Description() string {
	return "Dropping a column destroys data and breaks old code"
}

func (r RemoveColumnLosesData) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindRemoveColumn {
		return nil
	}
	msg := fmt.Sprintf("dropping column %q from %q destroys its data and breaks code still reading it", op.Column, op.Table)
	return newIssue(r, msg, `Safe pattern for dropping a column:

1. Remove every code reference to the column and deploy.
2. Drop the column in a later changeset, once no running release
   can still read it.
3. Keep a backup or the reverse changeset ready; the drop cannot
   restore data.`)
}

// DeleteTableLosesData flags table drops.
type DeleteTableLosesData struct{}

func (DeleteTableLosesData) ID() string                { return RuleDeleteTable }
func (DeleteTableLosesData) DefaultSeverity() Severity { return SeverityWarning }
func (DeleteTableLosesData) Vendors() []string         { return nil }
func (DeleteTableLosesData) Description() string {
	return "Dropping a table destroys data and breaks references"
}

func (r DeleteTableLosesData) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindDeleteTable {
		return nil
	}
	msg := fmt.Sprintf("dropping table %q destroys its data; foreign keys and raw SQL referencing it will break", op.Table)
	return newIssue(r, msg, "Confirm the table is unreferenced (code, foreign keys, views) and archived before dropping it.")
}
