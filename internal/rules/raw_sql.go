package rules

import (
	"regexp"

	"github.com/akraskov/safemig/internal/model"
)

const (
	RuleRawSQLNoReverse = "SM007"
	RuleEnumAddValue    = "SM012"
)

// RawSQLWithoutReverse flags raw SQL operations that declare no
// reverse statement and therefore cannot be rolled back.
type RawSQLWithoutReverse struct{}

func (RawSQLWithoutReverse) ID() string                { return RuleRawSQLNoReverse }
func (RawSQLWithoutReverse) DefaultSeverity() Severity { return SeverityWarning }
func (RawSQLWithoutReverse) Vendors() []string         { return nil }
func (RawSQLWithoutReverse) Description() string {
	return "Raw SQL without reverse SQL cannot be rolled back"
}

func (r RawSQLWithoutReverse) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindRunRawSQL || op.HasReverse {
		return nil
	}
	return newIssue(r, "raw SQL operation has no reverse SQL and cannot be rolled back",
		`Always declare a reverse, even a no-op:

- op: run_sql
  sql: CREATE INDEX CONCURRENTLY idx ON t (col)
  reverse: DROP INDEX CONCURRENTLY IF EXISTS idx

Use an empty reverse ("") for statements that need no undo.`)
}

var enumAddValuePattern = regexp.MustCompile(`(?i)ALTER\s+TYPE\s+\S+\s+ADD\s+VALUE`)

// EnumAddValueInTransaction flags ALTER TYPE ... ADD VALUE inside a
// transactional changeset. PostgreSQL refuses to run it in a
// transaction block, so the changeset fails at apply time.
type EnumAddValueInTransaction struct{}

func (EnumAddValueInTransaction) ID() string                { return RuleEnumAddValue }
func (EnumAddValueInTransaction) DefaultSeverity() Severity { return SeverityError }
func (EnumAddValueInTransaction) Vendors() []string         { return []string{"postgresql"} }
func (EnumAddValueInTransaction) Description() string {
	return "Adding enum value in transaction will fail in PostgreSQL"
}

func (r EnumAddValueInTransaction) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindRunRawSQL || !ctx.Atomic {
		return nil
	}
	if !enumAddValuePattern.MatchString(op.SQL) {
		return nil
	}
	return newIssue(r, "ALTER TYPE ... ADD VALUE cannot run inside a transaction; mark the changeset atomic: false",
		`Move the statement to a non-transactional changeset:

atomic: false
operations:
  - op: run_sql
    sql: ALTER TYPE my_enum ADD VALUE 'new_value'
    reverse: ""

Enum values cannot be removed; the reverse stays a no-op.`)
}
