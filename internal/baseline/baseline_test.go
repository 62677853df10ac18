package baseline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akraskov/safemig/internal/model"
	"github.com/akraskov/safemig/internal/rules"
)

var testIssues = []rules.Issue{
	{RuleID: "SM001", Severity: rules.SeverityError, Scope: "core", Changeset: "0002_add_email",
		Operation: "AddColumn(users.email varchar(255) NOT NULL)"},
	{RuleID: "SM010", Severity: rules.SeverityWarning, Scope: "core", Changeset: "0003_add_index",
		Operation: "AddIndex(users.idx_email[email])"},
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")

	n, err := Save(path, testIssues)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("saved %d entries, want 2", n)
	}

	bl, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	remaining, suppressed := bl.Filter(testIssues)
	if len(remaining) != 0 {
		t.Errorf("a baseline of the same run must suppress everything, %d left", len(remaining))
	}
	if suppressed != 2 {
		t.Errorf("suppressed = %d, want 2", suppressed)
	}
}

func TestSaveLoad_MultibyteOperation(t *testing.T) {
	// Raw SQL long enough to be truncated, with a multi-byte rune right
	// at the truncation point. The persisted signature must survive JSON
	// encoding unchanged, so the same issue is still suppressed after a
	// save/load cycle.
	op := &model.Operation{
		Kind: model.KindRunRawSQL,
		SQL:  "UPDATE notes SET body = '" + strings.Repeat("x", 34) + "долго" + strings.Repeat("y", 20) + "'",
	}
	issue := rules.Issue{
		RuleID: "SM007", Severity: rules.SeverityWarning,
		Scope: "core", Changeset: "0005_backfill",
		Operation: op.Signature(),
	}

	path := filepath.Join(t.TempDir(), "baseline.json")
	if _, err := Save(path, []rules.Issue{issue}); err != nil {
		t.Fatal(err)
	}
	bl, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	remaining, suppressed := bl.Filter([]rules.Issue{issue})
	if len(remaining) != 0 || suppressed != 1 {
		t.Errorf("reloaded baseline must match the identical issue: %d remaining, %d suppressed",
			len(remaining), suppressed)
	}
}

func TestFilter_EmptyBaseline(t *testing.T) {
	bl := New(nil)
	remaining, suppressed := bl.Filter(testIssues)
	if len(remaining) != len(testIssues) || suppressed != 0 {
		t.Errorf("empty baseline must pass everything through: %d remaining, %d suppressed",
			len(remaining), suppressed)
	}
}

func TestFilter_ChangedOperationEscapes(t *testing.T) {
	bl := New([]Entry{{
		RuleID: "SM001", Scope: "core", Changeset: "0002_add_email",
		Operation: "AddColumn(users.email varchar(255) NOT NULL)",
	}})

	changed := testIssues[0]
	changed.Operation = "AddColumn(users.email varchar(500) NOT NULL)"
	remaining, _ := bl.Filter([]rules.Issue{changed})
	if len(remaining) != 1 {
		t.Error("an edited operation must stop matching its baseline entry")
	}

	// A renamed changeset stops matching too: the identity tuple is exact.
	renamed := testIssues[0]
	renamed.Changeset = "0002_add_email_renamed"
	remaining, _ = bl.Filter([]rules.Issue{renamed})
	if len(remaining) != 1 {
		t.Error("a renamed changeset must stop matching")
	}
}

func TestSave_Dedupes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	n, err := Save(path, append(testIssues, testIssues...))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("saved %d entries, want 2 after dedup", n)
	}
}

func TestLoad_Missing(t *testing.T) {
	bl, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(bl.Issues) != 0 {
		t.Error("a missing baseline loads as empty")
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed baseline must be a fatal error")
	}
}

func TestLoad_WrongVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := os.WriteFile(path, []byte(`{"version": 2, "issues": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("unknown baseline version must be rejected")
	}
}
