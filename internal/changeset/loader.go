// Package changeset is the file-backed changeset source: it loads
// <root>/<scope>/*.yml files into model changesets with dependency and
// replaces references resolved per scope.
package changeset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/akraskov/safemig/internal/model"
)

// ref decodes either the "NNNN_name" same-scope shorthand or an
// explicit {scope, name} mapping.
type ref model.Ref

func (r *ref) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Name = value.Value
		return nil
	}
	var doc struct {
		Scope string `yaml:"scope"`
		Name  string `yaml:"name"`
	}
	if err := value.Decode(&doc); err != nil {
		return fmt.Errorf("decode changeset reference: %w", err)
	}
	r.Scope = doc.Scope
	r.Name = doc.Name
	return nil
}

type changesetDoc struct {
	Dependencies []ref              `yaml:"dependencies"`
	Replaces     []ref              `yaml:"replaces"`
	Atomic       *bool              `yaml:"atomic"`
	Operations   []*model.Operation `yaml:"operations"`
}

// Load reads every scope directory under root and returns the parsed
// changesets per scope, deduplicated and sorted by name. Same-scope
// shorthand references are qualified with the owning scope.
func Load(root string) (map[string][]*model.Changeset, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read changeset root %s: %w", root, err)
	}

	byScope := make(map[string][]*model.Changeset)
	for _, entry := range dirEntries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		scope := entry.Name()
		sets, err := loadScope(filepath.Join(root, scope), scope)
		if err != nil {
			return nil, err
		}
		if len(sets) > 0 {
			byScope[scope] = sets
		}
	}
	return byScope, nil
}

func loadScope(dir, scope string) ([]*model.Changeset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scope %s: %w", scope, err)
	}

	seen := make(map[string]bool)
	var sets []*model.Changeset
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml")) {
			continue
		}
		path := filepath.Join(dir, name)
		cs, err := ParseFile(path, scope)
		if err != nil {
			return nil, err
		}
		if seen[cs.Name] {
			continue
		}
		seen[cs.Name] = true
		sets = append(sets, cs)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}

// ParseFile parses one changeset file. The changeset name is the file
// name without its extension.
func ParseFile(path, scope string) (*model.Changeset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read changeset %s: %w", path, err)
	}

	var doc changesetDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse changeset %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cs := &model.Changeset{
		Scope:      scope,
		Name:       name,
		Operations: doc.Operations,
		Atomic:     true,
		FilePath:   path,
	}
	if doc.Atomic != nil {
		cs.Atomic = *doc.Atomic
	}
	for _, r := range doc.Dependencies {
		if r.Scope == "" {
			r.Scope = scope
		}
		cs.Dependencies = append(cs.Dependencies, model.Ref(r))
	}
	for _, r := range doc.Replaces {
		if r.Scope == "" {
			r.Scope = scope
		}
		cs.Replaces = append(cs.Replaces, model.Ref(r))
	}
	return cs, nil
}
