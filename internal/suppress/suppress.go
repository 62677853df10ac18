// Package suppress filters issues against .safemig-ignore.yml, an
// ignore file for permanent, documented suppressions (as opposed to
// the baseline, which freezes a point in time).
package suppress

import (
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/akraskov/safemig/internal/rules"
)

// Suppression is a single rule in the ignore file. Empty fields match
// anything; Scope supports a trailing wildcard.
type Suppression struct {
	Scope     string `yaml:"scope,omitempty"`
	Changeset string `yaml:"changeset,omitempty"`
	Rule      string `yaml:"rule,omitempty"`
	Reason    string `yaml:"reason,omitempty"`
}

// IgnoreFile is the structure of .safemig-ignore.yml.
type IgnoreFile struct {
	Suppressions []Suppression `yaml:"suppressions"`
}

// Rules holds loaded suppression rules.
type Rules struct {
	ignoreFile IgnoreFile
}

// LoadRules loads .safemig-ignore.yml from the given directory. A
// missing file yields an empty rule set.
func LoadRules(dir string) (*Rules, error) {
	r := &Rules{}

	path := filepath.Join(dir, ".safemig-ignore.yml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, &r.ignoreFile); err != nil {
		return nil, err
	}
	return r, nil
}

// IsSuppressed returns true if the issue matches any suppression.
func (r *Rules) IsSuppressed(issue *rules.Issue) bool {
	for _, s := range r.ignoreFile.Suppressions {
		if s.Scope != "" && !matchPattern(s.Scope, issue.Scope) {
			continue
		}
		if s.Changeset != "" && !strings.EqualFold(s.Changeset, issue.Changeset) {
			continue
		}
		if s.Rule != "" && !strings.EqualFold(s.Rule, issue.RuleID) {
			continue
		}
		if s.Scope == "" && s.Changeset == "" && s.Rule == "" {
			// An empty suppression would silence everything; skip it.
			continue
		}
		return true
	}
	return false
}

// Filter removes suppressed issues and returns the remaining ones plus
// the number suppressed.
func (r *Rules) Filter(issues []rules.Issue) ([]rules.Issue, int) {
	if len(r.ignoreFile.Suppressions) == 0 {
		return issues, 0
	}

	var filtered []rules.Issue
	suppressed := 0
	for i := range issues {
		if r.IsSuppressed(&issues[i]) {
			suppressed++
		} else {
			filtered = append(filtered, issues[i])
		}
	}
	return filtered, suppressed
}

// matchPattern matches a name against a pattern that supports trailing
// wildcards.
func matchPattern(pattern, name string) bool {
	pattern = strings.ToLower(pattern)
	name = strings.ToLower(name)

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == name
}
