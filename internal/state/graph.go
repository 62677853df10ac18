// Package state reconstructs column definitions as they existed before
// a given operation by replaying a scope's changesets in dependency
// order.
package state

import (
	"fmt"
	"sort"

	"github.com/yourbasic/graph"

	"github.com/akraskov/safemig/internal/model"
)

// CycleError is the fatal error for a cyclic dependency graph. It is
// reported once per scope, never per operation.
type CycleError struct {
	Scope string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("changeset dependency cycle in scope %q", e.Scope)
}

// ScopeGraph is the resolved replay order for one scope.
type ScopeGraph struct {
	Scope string
	// Order lists the scope's changesets so that every changeset
	// comes after all of its in-scope dependencies. Squashed
	// changesets are excluded; their replacement stands in for them.
	Order []*model.Changeset
	// Heads are changesets no other changeset in the scope depends
	// on. More than one head means a merge changeset is missing.
	Heads []model.Ref
	// Complete is false when some in-scope dependency is absent from
	// the input set, e.g. when analyzing a subset without ancestors.
	// Rules then fall back to conservative heuristics.
	Complete bool
}

// BuildScopeGraph orders a scope's changesets. Dependencies on other
// scopes are ignored: ordering is scoped by definition.
func BuildScopeGraph(scope string, sets []*model.Changeset) (*ScopeGraph, error) {
	// Substitute squash changesets for the ones they replace. The
	// replaced changesets may still exist on disk; they are dropped
	// from the order and references to them are redirected.
	replacedBy := make(map[model.Ref]*model.Changeset)
	for _, cs := range sets {
		for _, ref := range cs.Replaces {
			if ref.Scope == "" {
				ref.Scope = scope
			}
			if ref.Scope == scope {
				replacedBy[ref] = cs
			}
		}
	}

	var active []*model.Changeset
	for _, cs := range sets {
		if _, squashed := replacedBy[cs.Ref()]; !squashed {
			active = append(active, cs)
		}
	}
	// Canonical indexing: the topological order must not depend on
	// the order the source handed us the changesets in.
	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })

	index := make(map[model.Ref]int, len(active))
	for i, cs := range active {
		index[cs.Ref()] = i
	}

	g := graph.New(len(active))
	dependents := make([]int, len(active))
	complete := true

	for i, cs := range active {
		for _, dep := range cs.Dependencies {
			if dep.Scope == "" {
				dep.Scope = scope
			}
			if dep.Scope != scope {
				continue
			}
			if repl, ok := replacedBy[dep]; ok {
				dep = repl.Ref()
			}
			j, ok := index[dep]
			if !ok {
				complete = false
				continue
			}
			if j == i {
				continue
			}
			g.Add(j, i)
			dependents[j]++
		}
	}

	if !graph.Acyclic(g) {
		return nil, &CycleError{Scope: scope}
	}
	order, _ := graph.TopSort(g)

	sg := &ScopeGraph{Scope: scope, Complete: complete}
	for _, idx := range order {
		sg.Order = append(sg.Order, active[idx])
	}
	for i, n := range dependents {
		if n == 0 {
			sg.Heads = append(sg.Heads, active[i].Ref())
		}
	}
	sort.Slice(sg.Heads, func(i, j int) bool { return sg.Heads[i].Name < sg.Heads[j].Name })
	return sg, nil
}
