package rules

import (
	"fmt"
	"strings"

	"github.com/akraskov/safemig/internal/model"
)

const (
	RuleAlterColumnType       = "SM004"
	RuleVarcharLengthDecrease = "SM013"
	RuleMakeColumnNotNull     = "SM015"
)

// likelySafeTypes are unbounded types whose alteration is assumed
// metadata-only when no prior definition is available. This is the
// conservative name heuristic: approximate, and a known source of
// false negatives rather than a guarantee.
var likelySafeTypes = map[string]bool{
	"text":  true,
	"jsonb": true,
}

// AlterColumnType flags type changes that can force a table rewrite
// under an exclusive lock. With prior state it fires only when the
// classified delta actually changes the type; without it, the rule
// falls back to flagging any alter whose new type is not likely safe.
type AlterColumnType struct{}

func (AlterColumnType) ID() string                { return RuleAlterColumnType }
func (AlterColumnType) DefaultSeverity() Severity { return SeverityWarning }
func (AlterColumnType) Vendors() []string         { return nil }
func (AlterColumnType) Description() string {
	return "Changing column type may rewrite table and lock it"
}

func (r AlterColumnType) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindAlterColumn || op.Spec == nil {
		return nil
	}

	if ctx.Prior != nil {
		delta := model.ClassifyDelta(ctx.Prior, op.Spec)
		if !delta.TypeChanged {
			return nil
		}
		msg := fmt.Sprintf("altering column %q on %q from type %q to %q may require a table rewrite and lock",
			op.Column, op.Table, ctx.Prior.Type, op.Spec.Type)
		return newIssue(r, msg, alterTypeSuggestion)
	}

	// No history: fall back to the type-name heuristic.
	if likelySafeTypes[strings.ToLower(op.Spec.Type)] {
		return nil
	}
	msg := fmt.Sprintf("altering column %q on %q to type %q may require a table rewrite and lock (prior definition unknown)",
		op.Column, op.Table, op.Spec.Type)
	return newIssue(r, msg, alterTypeSuggestion)
}

const alterTypeSuggestion = `Safe pattern for changing a column type (expand/contract):

1. Add a new column with the desired type, nullable.
2. Backfill and transform data in batches.
3. Deploy code reading from both columns, writing to both.
4. Drop the old column in a later changeset.`

// VarcharLengthDecrease flags bounded-length shrinks. Increasing a
// varchar length is metadata-only in PostgreSQL; decreasing it (or
// going text -> varchar) rewrites the table.
type VarcharLengthDecrease struct{}

func (VarcharLengthDecrease) ID() string                { return RuleVarcharLengthDecrease }
func (VarcharLengthDecrease) DefaultSeverity() Severity { return SeverityWarning }
func (VarcharLengthDecrease) Vendors() []string         { return []string{"postgresql"} }
func (VarcharLengthDecrease) Description() string {
	return "Decreasing VARCHAR length requires table rewrite"
}

func (r VarcharLengthDecrease) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindAlterColumn || op.Spec == nil {
		return nil
	}

	if ctx.Prior != nil {
		delta := model.ClassifyDelta(ctx.Prior, op.Spec)
		if !delta.LengthDecreased {
			return nil
		}
		msg := fmt.Sprintf("decreasing the length of column %q on %q (%s to %s) will rewrite the table",
			op.Column, op.Table, boundLabel(ctx.Prior.MaxLength), boundLabel(op.Spec.MaxLength))
		return newIssue(r, msg, varcharSuggestion)
	}

	if !ctx.HistoryComplete && op.Spec.MaxLength > 0 {
		msg := fmt.Sprintf("altering bounded column %q on %q - if max_length is being decreased, the table will be rewritten",
			op.Column, op.Table)
		return newIssue(r, msg, varcharSuggestion)
	}
	return nil
}

func boundLabel(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("max_length=%d", n)
}

const varcharSuggestion = `Length changes:

SAFE: increasing max_length, or switching to an unbounded text type.
UNSAFE: decreasing max_length, or text -> varchar.

To shrink, verify existing data fits, then prefer a CHECK constraint
added as NOT VALID and validated separately over an actual type change.`

// MakeColumnNotNull flags tightening a nullable column to NOT NULL
// without a database-level default: every existing NULL row makes the
// change fail, and the validation scan locks the table.
type MakeColumnNotNull struct{}

func (MakeColumnNotNull) ID() string                { return RuleMakeColumnNotNull }
func (MakeColumnNotNull) DefaultSeverity() Severity { return SeverityError }
func (MakeColumnNotNull) Vendors() []string         { return nil }
func (MakeColumnNotNull) Description() string {
	return "Making a column NOT NULL without a database default locks the table"
}

func (r MakeColumnNotNull) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindAlterColumn || op.Spec == nil {
		return nil
	}
	if op.Spec.Nullable || op.Spec.HasDBDefault {
		return nil
	}

	if ctx.Prior != nil {
		if !model.ClassifyDelta(ctx.Prior, op.Spec).NullabilityTightened {
			return nil
		}
		msg := fmt.Sprintf("column %q on %q was nullable; making it NOT NULL without a database default will scan and lock the table",
			op.Column, op.Table)
		return newIssue(r, msg, notNullAlterSuggestion)
	}

	if !ctx.HistoryComplete {
		// Cold start: we cannot see the previous nullability, so warn
		// conservatively.
		msg := fmt.Sprintf("altering column %q on %q to NOT NULL - if it was previously nullable, the change will scan and lock the table",
			op.Column, op.Table)
		return newIssue(r, msg, notNullAlterSuggestion)
	}
	return nil
}

const notNullAlterSuggestion = `Safe pattern for adding NOT NULL to an existing column:

1. Backfill NULL rows in batches.
2. Add a CHECK (col IS NOT NULL) NOT VALID constraint, then VALIDATE
   it; the validation takes only a light lock.
3. Set NOT NULL afterwards; the database can use the validated
   constraint instead of scanning.`
