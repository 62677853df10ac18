package state

import (
	"strings"

	"github.com/akraskov/safemig/internal/model"
)

type columnKey struct {
	table  string
	column string
}

// Replayer tracks the most recent ColumnSpec per (table, column) while
// the analyzer walks a scope in topological order. It is incremental
// by design: the analyzer applies each operation after evaluating it,
// so no operation ever triggers a replay from scratch. A Replayer is
// scoped to one goroutine.
type Replayer struct {
	specs    map[columnKey]*model.ColumnSpec
	tables   map[string]bool
	complete bool
}

// NewReplayer starts empty. complete says whether the full ancestry of
// the scope is being replayed; when false, missing prior state means
// "unknown" rather than "column never existed".
func NewReplayer(complete bool) *Replayer {
	return &Replayer{
		specs:    make(map[columnKey]*model.ColumnSpec),
		tables:   make(map[string]bool),
		complete: complete,
	}
}

// Complete reports whether the replayed history covers all ancestors.
func (r *Replayer) Complete() bool { return r.complete }

// Prior returns the column definition immediately before op executes,
// or nil if the column did not previously exist or history cannot be
// determined.
func (r *Replayer) Prior(op *model.Operation) *model.ColumnSpec {
	switch op.Kind {
	case model.KindAddColumn, model.KindAlterColumn, model.KindRemoveColumn, model.KindRenameColumn:
		return r.specs[columnKey{op.Table, op.Column}]
	}
	return nil
}

// Apply advances the replay state past op. Unknown shapes advance
// nothing: an operation the replayer cannot interpret must not corrupt
// the state it has.
func (r *Replayer) Apply(op *model.Operation) {
	switch op.Kind {
	case model.KindCreateTable:
		r.tables[op.Table] = true
		for _, col := range op.Columns {
			r.specs[columnKey{op.Table, col.Name}] = col.Spec.Clone()
		}
	case model.KindDeleteTable:
		delete(r.tables, op.Table)
		for key := range r.specs {
			if key.table == op.Table {
				delete(r.specs, key)
			}
		}
	case model.KindAddColumn, model.KindAlterColumn:
		r.specs[columnKey{op.Table, op.Column}] = op.Spec.Clone()
	case model.KindRemoveColumn:
		delete(r.specs, columnKey{op.Table, op.Column})
	case model.KindRenameColumn:
		key := columnKey{op.Table, op.Column}
		if spec, ok := r.specs[key]; ok {
			delete(r.specs, key)
			r.specs[columnKey{op.Table, op.NewName}] = spec
		}
	case model.KindRenameTable:
		if r.tables[op.Table] {
			delete(r.tables, op.Table)
			r.tables[op.NewName] = true
		}
		for key, spec := range r.specs {
			if key.table == op.Table {
				delete(r.specs, key)
				r.specs[columnKey{op.NewName, key.column}] = spec
			}
		}
	}
}

// Resolve reconstructs the prior state for one target operation from a
// full scope. It orders the scope, replays every operation that comes
// before the target, and returns the target column's definition. The
// analyzer does not use this path (it replays incrementally); it
// exists for callers that need a single lookup.
func Resolve(scope string, sets []*model.Changeset, changeset string, opIndex int) (*model.ColumnSpec, error) {
	sg, err := BuildScopeGraph(scope, sets)
	if err != nil {
		return nil, err
	}

	r := NewReplayer(sg.Complete)
	for _, cs := range sg.Order {
		for i, op := range cs.Operations {
			if strings.EqualFold(cs.Name, changeset) && i == opIndex {
				return r.Prior(op), nil
			}
			r.Apply(op)
		}
	}
	return nil, nil
}
