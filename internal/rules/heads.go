package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/akraskov/safemig/internal/model"
)

const RuleMultipleHeads = "SM027"

// MultipleHeads is a graph-level check: a scope with more than one
// head changeset (no dependents, no merge changeset unifying them)
// cannot be applied deterministically. The per-operation Check always
// returns nil; the analyzer calls CheckScope once per scope.
type MultipleHeads struct{}

func (MultipleHeads) ID() string                { return RuleMultipleHeads }
func (MultipleHeads) DefaultSeverity() Severity { return SeverityError }
func (MultipleHeads) Vendors() []string         { return nil }
func (MultipleHeads) Description() string {
	return "Multiple head changesets require a merge changeset"
}

func (MultipleHeads) Check(op *model.Operation, ctx *Context) *Issue {
	return nil
}

// CheckScope emits one issue when a scope has several heads. The issue
// carries no specific operation; its identity key uses the sorted head
// list so the baseline keeps matching until the graph changes.
func (r MultipleHeads) CheckScope(scope string, heads []model.Ref) *Issue {
	if len(heads) <= 1 {
		return nil
	}

	names := make([]string, len(heads))
	for i, h := range heads {
		names[i] = h.Name
	}
	sort.Strings(names)

	issue := newIssue(r, fmt.Sprintf("scope %q has %d head changesets (%s); add a merge changeset depending on all of them",
		scope, len(names), strings.Join(names, ", ")),
		`Create an empty merge changeset listing every head in its
dependencies. The merge unifies the branches without schema changes.`)
	issue.Scope = scope
	issue.Operation = fmt.Sprintf("MultipleHeads(%s)", strings.Join(names, ","))
	return issue
}
