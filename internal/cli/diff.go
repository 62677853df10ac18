package cli

import (
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/akraskov/safemig/internal/model"
)

// changedRefs asks git which changeset files changed since ref and
// maps them to changeset references. Narrowing is best-effort: any git
// failure returns nil, which means "report everything".
func changedRefs(dir, ref string) map[model.Ref]bool {
	out, err := exec.Command("git", "diff", "--name-only", "--diff-filter=ACMR", ref).Output()
	if err != nil {
		slog.Debug("git diff failed, reporting all changesets", "ref", ref, "error", err)
		return nil
	}

	refs := parseChangedPaths(string(out), dir)
	if len(refs) == 0 {
		slog.Debug("no changesets changed since ref", "ref", ref)
	}
	return refs
}

// parseChangedPaths maps git diff --name-only output to changeset
// references. Only paths of the form <dir>/<scope>/<name>.yml count;
// anything outside the changeset root or nested deeper is skipped.
func parseChangedPaths(out, dir string) map[model.Ref]bool {
	root := filepath.ToSlash(filepath.Clean(dir)) + "/"
	refs := make(map[model.Ref]bool)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, root) {
			continue
		}
		rel := strings.TrimPrefix(line, root)
		scope, file, ok := strings.Cut(rel, "/")
		if !ok || strings.Contains(file, "/") {
			continue
		}
		ext := filepath.Ext(file)
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		refs[model.Ref{Scope: scope, Name: strings.TrimSuffix(file, ext)}] = true
	}
	return refs
}
