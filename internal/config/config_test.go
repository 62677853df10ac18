package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vendor != "postgresql" {
		t.Errorf("vendor = %q, want postgresql", cfg.Vendor)
	}
	if cfg.ChangesetDir != "changesets" {
		t.Errorf("changeset_dir = %q, want changesets", cfg.ChangesetDir)
	}
	if cfg.Defaults.Format != "console" {
		t.Errorf("format = %q, want console", cfg.Defaults.Format)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	content := `vendor: mysql
changeset_dir: db/changesets
fail_on_warning: true
rules:
  disabled: [SM006]
  severity:
    SM002: error
scopes:
  legacy:
    disabled: [SM001]
exclude_scopes: [sandbox]
`
	if err := os.WriteFile(filepath.Join(dir, ".safemig.yml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vendor != "mysql" {
		t.Errorf("vendor = %q", cfg.Vendor)
	}
	if cfg.ChangesetDir != "db/changesets" {
		t.Errorf("changeset_dir = %q", cfg.ChangesetDir)
	}
	if !cfg.FailOnWarning {
		t.Error("fail_on_warning not loaded")
	}
	if len(cfg.Rules.Disabled) != 1 || cfg.Rules.Disabled[0] != "SM006" {
		t.Errorf("disabled = %v", cfg.Rules.Disabled)
	}
	if cfg.Rules.Severity["SM002"] != "error" {
		t.Errorf("severity override = %v", cfg.Rules.Severity)
	}
	if _, ok := cfg.Scopes["legacy"]; !ok {
		t.Error("scope config not loaded")
	}
	if len(cfg.ExcludeScopes) != 1 || cfg.ExcludeScopes[0] != "sandbox" {
		t.Errorf("exclude_scopes = %v", cfg.ExcludeScopes)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".safemig.yml"), []byte("{{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
