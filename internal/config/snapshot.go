package config

import (
	"fmt"

	"github.com/akraskov/safemig/internal/rules"
)

// Snapshot is the resolved, immutable configuration for one analysis
// run. Enabled and SeverityFor are pure functions of the snapshot, so
// two analyses against the same snapshot always agree.
type Snapshot struct {
	vendor        string
	failOnWarning bool

	global scopeLayers
	scopes map[string]scopeLayers
}

type scopeLayers struct {
	disabled    map[string]bool
	catEnabled  map[string]bool // nil when no whitelist is configured
	catDisabled map[string]bool
	severity    map[string]rules.Severity
}

func newLayers(disabled []string, cats CategoryConfig, severity map[string]string) (scopeLayers, error) {
	l := scopeLayers{
		disabled:    make(map[string]bool, len(disabled)),
		catDisabled: make(map[string]bool, len(cats.Disabled)),
	}
	for _, id := range disabled {
		l.disabled[id] = true
	}
	if len(cats.Enabled) > 0 {
		l.catEnabled = make(map[string]bool, len(cats.Enabled))
		for _, c := range cats.Enabled {
			l.catEnabled[c] = true
		}
	}
	for _, c := range cats.Disabled {
		l.catDisabled[c] = true
	}
	if len(severity) > 0 {
		l.severity = make(map[string]rules.Severity, len(severity))
		for id, raw := range severity {
			sev, err := rules.ParseSeverity(raw)
			if err != nil {
				return l, fmt.Errorf("severity override for %s: %w", id, err)
			}
			l.severity[id] = sev
		}
	}
	return l, nil
}

// disables reports whether this layer disables the rule. Disabling is
// sticky: a layer can only remove rules, never re-add ones an earlier
// layer removed.
func (l scopeLayers) disables(ruleID string) bool {
	if l.disabled[ruleID] {
		return true
	}
	cats := rules.CategoriesFor(ruleID)
	if l.catEnabled != nil {
		listed := false
		for _, c := range cats {
			if l.catEnabled[c] {
				listed = true
				break
			}
		}
		if !listed {
			return true
		}
	}
	for _, c := range cats {
		if l.catDisabled[c] {
			return true
		}
	}
	return false
}

// BuildSnapshot resolves raw configuration once per run. It validates
// the static category table against the registry and every severity
// override string; either failing is a fatal configuration error.
func BuildSnapshot(cfg *Config, reg *rules.Registry) (*Snapshot, error) {
	if err := rules.ValidateCategories(reg); err != nil {
		return nil, err
	}

	global, err := newLayers(cfg.Rules.Disabled, cfg.Categories, cfg.Rules.Severity)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		vendor:        cfg.Vendor,
		failOnWarning: cfg.FailOnWarning,
		global:        global,
		scopes:        make(map[string]scopeLayers, len(cfg.Scopes)),
	}
	for scope, sc := range cfg.Scopes {
		layers, err := newLayers(sc.Disabled, sc.Categories, sc.Severity)
		if err != nil {
			return nil, fmt.Errorf("scope %s: %w", scope, err)
		}
		snap.scopes[scope] = layers
	}
	return snap, nil
}

// Vendor returns the configured database vendor tag.
func (s *Snapshot) Vendor() string { return s.vendor }

// FailOnWarning reports whether warnings should fail the run.
func (s *Snapshot) FailOnWarning() bool { return s.failOnWarning }

// Enabled answers whether a rule runs for a scope. Layers are checked
// from most specific to most global; any layer that disables wins.
func (s *Snapshot) Enabled(ruleID, scope string) bool {
	if sl, ok := s.scopes[scope]; ok && sl.disables(ruleID) {
		return false
	}
	return !s.global.disables(ruleID)
}

// SeverityFor resolves the effective severity for a rule in a scope:
// per-scope override, then global override, then the rule's default.
func (s *Snapshot) SeverityFor(r rules.Rule, scope string) rules.Severity {
	if sl, ok := s.scopes[scope]; ok {
		if sev, ok := sl.severity[r.ID()]; ok {
			return sev
		}
	}
	if sev, ok := s.global.severity[r.ID()]; ok {
		return sev
	}
	return r.DefaultSeverity()
}
