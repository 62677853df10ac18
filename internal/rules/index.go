package rules

import (
	"fmt"
	"strings"

	"github.com/akraskov/safemig/internal/model"
)

const (
	RuleNonConcurrentIndex  = "SM010"
	RuleNonConcurrentUnique = "SM011"
)

// NonConcurrentIndex flags plain index builds: CREATE INDEX without
// CONCURRENTLY blocks writes to the table for the whole build.
type NonConcurrentIndex struct{}

func (NonConcurrentIndex) ID() string                { return RuleNonConcurrentIndex }
func (NonConcurrentIndex) DefaultSeverity() Severity { return SeverityWarning }
func (NonConcurrentIndex) Vendors() []string         { return []string{"postgresql"} }
func (NonConcurrentIndex) Description() string {
	return "Non-concurrent index creation blocks writes"
}

func (r NonConcurrentIndex) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindAddIndex || op.Concurrent || op.Unique {
		return nil
	}
	msg := fmt.Sprintf("creating index %q on %q without CONCURRENTLY blocks writes for the whole build",
		op.IndexName, op.Table)
	return newIssue(r, msg, concurrentIndexSuggestion(op))
}

// NonConcurrentUniqueIndex flags unique index builds without
// CONCURRENTLY; on top of the write lock, uniqueness is validated
// against every existing row.
type NonConcurrentUniqueIndex struct{}

func (NonConcurrentUniqueIndex) ID() string                { return RuleNonConcurrentUnique }
func (NonConcurrentUniqueIndex) DefaultSeverity() Severity { return SeverityWarning }
func (NonConcurrentUniqueIndex) Vendors() []string         { return []string{"postgresql"} }
func (NonConcurrentUniqueIndex) Description() string {
	return "Non-concurrent unique index creation blocks writes and validates rows"
}

func (r NonConcurrentUniqueIndex) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindAddIndex || op.Concurrent || !op.Unique {
		return nil
	}
	msg := fmt.Sprintf("creating unique index %q on %q without CONCURRENTLY blocks writes and validates all existing rows",
		op.IndexName, op.Table)
	return newIssue(r, msg, concurrentIndexSuggestion(op))
}

func concurrentIndexSuggestion(op *model.Operation) string {
	return fmt.Sprintf(`Build the index concurrently in a non-transactional changeset:

CREATE INDEX CONCURRENTLY %s ON %s (%s);

A concurrent build takes longer but never blocks writes. It cannot run
inside a transaction, so mark the changeset atomic: false.`,
		op.IndexName, op.Table, strings.Join(op.IndexColumns, ", "))
}
