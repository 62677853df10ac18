// Package analyzer walks changesets in dependency order, applies every
// enabled rule, and produces a deterministic issue list.
package analyzer

import (
	"sort"
	"sync"

	"github.com/akraskov/safemig/internal/config"
	"github.com/akraskov/safemig/internal/model"
	"github.com/akraskov/safemig/internal/rules"
	"github.com/akraskov/safemig/internal/state"
)

// Locator is the pluggable, advisory source-location lookup: given a
// changeset file and an operation index it returns a line number. The
// analyzer works correctly with a nil Locator (all locations omitted)
// and a lookup failure never fails the analysis.
type Locator func(path string, opIndex int) (int, bool)

// Analyzer evaluates changesets against an immutable rule registry and
// config snapshot. It holds no mutable state across runs.
type Analyzer struct {
	registry *rules.Registry
	snap     *config.Snapshot
	locate   Locator
}

// New builds an analyzer. locate may be nil.
func New(registry *rules.Registry, snap *config.Snapshot, locate Locator) *Analyzer {
	return &Analyzer{registry: registry, snap: snap, locate: locate}
}

// Run analyzes every scope in sets and returns the issues in stable
// order: scopes alphabetically, changesets in topological position,
// operations in declaration order, rules in registration order.
//
// only optionally restricts which changesets contribute issues; the
// full scope is still replayed so prior state stays correct. nil means
// no restriction.
//
// Independent scopes are analyzed in parallel; per-scope replay state
// is never shared. A fatal error (dependency cycle) aborts the run
// with no partial issue list.
func (a *Analyzer) Run(sets map[string][]*model.Changeset, only map[model.Ref]bool) ([]rules.Issue, error) {
	scopes := make([]string, 0, len(sets))
	for scope := range sets {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)

	if len(scopes) <= 1 {
		var all []rules.Issue
		for _, scope := range scopes {
			issues, err := a.runScope(scope, sets[scope], only)
			if err != nil {
				return nil, err
			}
			all = append(all, issues...)
		}
		return all, nil
	}

	type scopeResult struct {
		issues []rules.Issue
		err    error
	}
	results := make([]scopeResult, len(scopes))

	var wg sync.WaitGroup
	for i, scope := range scopes {
		i, scope := i, scope
		wg.Add(1)
		go func() {
			defer wg.Done()
			issues, err := a.runScope(scope, sets[scope], only)
			results[i] = scopeResult{issues: issues, err: err}
		}()
	}
	wg.Wait()

	var all []rules.Issue
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		all = append(all, res.issues...)
	}
	return all, nil
}

func (a *Analyzer) runScope(scope string, sets []*model.Changeset, only map[model.Ref]bool) ([]rules.Issue, error) {
	sg, err := state.BuildScopeGraph(scope, sets)
	if err != nil {
		return nil, err
	}

	vendor := a.snap.Vendor()
	replay := state.NewReplayer(sg.Complete)
	var issues []rules.Issue

	for _, cs := range sg.Order {
		include := only == nil || only[cs.Ref()]
		for idx, op := range cs.Operations {
			if include {
				ctx := &rules.Context{
					Vendor:          vendor,
					Prior:           replay.Prior(op),
					HistoryComplete: sg.Complete,
					Atomic:          cs.Atomic,
				}
				for _, rule := range a.registry.Rules() {
					if !rules.AppliesTo(rule, vendor) {
						continue
					}
					if !a.snap.Enabled(rule.ID(), scope) {
						continue
					}
					issue := rule.Check(op, ctx)
					if issue == nil {
						continue
					}
					issue.Severity = a.snap.SeverityFor(rule, scope)
					a.enrich(issue, cs, op, idx)
					issues = append(issues, *issue)
				}
			}
			replay.Apply(op)
		}
	}

	// Graph-level checks run once per scope, after per-operation
	// evaluation, and carry no specific operation index.
	if headsRule, ok := a.registry.Lookup(rules.RuleMultipleHeads); ok {
		if mh, ok := headsRule.(interface {
			CheckScope(scope string, heads []model.Ref) *rules.Issue
		}); ok && a.snap.Enabled(headsRule.ID(), scope) {
			if issue := mh.CheckScope(scope, sg.Heads); issue != nil {
				issue.Severity = a.snap.SeverityFor(headsRule, scope)
				issues = append(issues, *issue)
			}
		}
	}

	return issues, nil
}

// enrich fills location and identity metadata. Rules never set these
// themselves.
func (a *Analyzer) enrich(issue *rules.Issue, cs *model.Changeset, op *model.Operation, opIndex int) {
	issue.Scope = cs.Scope
	issue.Changeset = cs.Name
	issue.Operation = op.Signature()
	issue.FilePath = cs.FilePath
	if a.locate != nil && cs.FilePath != "" {
		if line, ok := a.locate(cs.FilePath, opIndex); ok {
			issue.Line = line
		}
	}
}
