// Package baseline records issue identity keys so known issues can be
// suppressed in later runs, letting teams adopt the linter without
// fixing every historical changeset first.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/akraskov/safemig/internal/rules"
)

// Entry is one recorded identity key. Matching is exact-tuple
// equality; the operation signature tracks logical content, so a
// renamed changeset keeps matching while an edited operation stops.
type Entry struct {
	RuleID    string `json:"rule_id"`
	Scope     string `json:"scope"`
	Changeset string `json:"changeset"`
	Operation string `json:"operation"`
}

// Baseline holds previously accepted issues.
type Baseline struct {
	Version int     `json:"version"`
	Issues  []Entry `json:"issues"`

	set map[Entry]bool
}

// New builds an in-memory baseline from entries.
func New(entries []Entry) *Baseline {
	b := &Baseline{Version: 1, Issues: entries}
	b.index()
	return b
}

func (b *Baseline) index() {
	b.set = make(map[Entry]bool, len(b.Issues))
	for _, e := range b.Issues {
		b.set[e] = true
	}
}

// Load reads a baseline file. A malformed file is a fatal error; a
// missing one simply loads as empty.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	if b.Version != 1 {
		return nil, fmt.Errorf("baseline %s: unsupported version %d", path, b.Version)
	}
	b.index()
	return &b, nil
}

// Save writes the issues' identity keys as a new baseline, sorted and
// deduplicated, in the same flat-tuple format Load reads.
func Save(path string, issues []rules.Issue) (int, error) {
	seen := make(map[Entry]bool, len(issues))
	entries := make([]Entry, 0, len(issues))
	for i := range issues {
		e := keyOf(&issues[i])
		if !seen[e] {
			entries = append(entries, e)
			seen[e] = true
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Scope != b.Scope {
			return a.Scope < b.Scope
		}
		if a.Changeset != b.Changeset {
			return a.Changeset < b.Changeset
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Operation < b.Operation
	})

	data, err := json.MarshalIndent(Baseline{Version: 1, Issues: entries}, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal baseline: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Contains reports whether the issue's identity key is recorded.
func (b *Baseline) Contains(issue *rules.Issue) bool {
	return b.set[keyOf(issue)]
}

// Filter removes baselined issues. Returns the remaining issues and
// the number suppressed.
func (b *Baseline) Filter(issues []rules.Issue) ([]rules.Issue, int) {
	if len(b.set) == 0 {
		return issues, 0
	}

	var filtered []rules.Issue
	suppressed := 0
	for i := range issues {
		if b.Contains(&issues[i]) {
			suppressed++
		} else {
			filtered = append(filtered, issues[i])
		}
	}
	return filtered, suppressed
}

func keyOf(issue *rules.Issue) Entry {
	return Entry{
		RuleID:    issue.RuleID,
		Scope:     issue.Scope,
		Changeset: issue.Changeset,
		Operation: issue.Operation,
	}
}
