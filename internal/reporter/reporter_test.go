package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/akraskov/safemig/internal/rules"
)

var testIssues = []rules.Issue{
	{RuleID: "SM001", Severity: rules.SeverityError, Message: "NOT NULL without default",
		Suggestion: "add as nullable first", Scope: "core", Changeset: "0002_add_email",
		Operation: "AddColumn(users.email varchar(255) NOT NULL)",
		FilePath:  "changesets/core/0002_add_email.yml", Line: 4},
	{RuleID: "SM010", Severity: rules.SeverityWarning, Message: "non-concurrent index",
		Scope: "core", Changeset: "0003_add_index", Operation: "AddIndex(users.idx[email])"},
	{RuleID: "SM006", Severity: rules.SeverityInfo, Message: "column rename",
		Scope: "billing", Changeset: "0001_rename", Operation: "RenameColumn(invoices.no -> number)"},
}

func TestNewReport_Summary(t *testing.T) {
	r := NewReport("check", "test", testIssues, 2)

	if r.Summary.Total != 3 {
		t.Errorf("total = %d, want 3", r.Summary.Total)
	}
	if r.Summary.Errors != 1 || r.Summary.Warnings != 1 || r.Summary.Info != 1 {
		t.Errorf("summary = %+v", r.Summary)
	}
	if r.Summary.Suppressed != 2 {
		t.Errorf("suppressed = %d, want 2", r.Summary.Suppressed)
	}
	if r.MaxSeverity != rules.SeverityError {
		t.Errorf("maxSeverity = %q", r.MaxSeverity)
	}
	if r.Metadata.Tool != "safemig" || r.Metadata.Command != "check" {
		t.Errorf("metadata = %+v", r.Metadata)
	}
}

func TestNewReport_Empty(t *testing.T) {
	r := NewReport("check", "test", nil, 0)
	if r.Issues == nil {
		t.Error("issues should be an empty slice, not nil")
	}
	if r.MaxSeverity != rules.SeverityInfo {
		t.Errorf("maxSeverity = %q, want info", r.MaxSeverity)
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"console", "json", "sarif", "github", "gitlab"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q): %v", name, err)
		}
	}
	if f, err := ParseFormat(""); err != nil || f != FormatConsole {
		t.Error("empty format defaults to console")
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("unknown format must be rejected")
	}
}

func TestWriteConsole(t *testing.T) {
	r := NewReport("check", "test", testIssues, 1)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatConsole); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "[ERROR] SM001") {
		t.Errorf("missing error line:\n%s", out)
	}
	if !strings.Contains(out, "core/0002_add_email:4") {
		t.Errorf("missing location with line:\n%s", out)
	}
	if !strings.Contains(out, "hint: add as nullable first") {
		t.Errorf("missing suggestion:\n%s", out)
	}
	if !strings.Contains(out, "errors=1 warnings=1 info=1 suppressed=1") {
		t.Errorf("missing summary:\n%s", out)
	}
}

func TestWriteConsole_NoSuggestions(t *testing.T) {
	r := NewReport("check", "test", testIssues, 0)
	r.HideSuggestions = true
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatConsole); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "hint:") {
		t.Error("suggestions must be hidden")
	}
}

func TestWriteConsole_Clean(t *testing.T) {
	r := NewReport("check", "test", nil, 3)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatConsole); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No issues found (3 suppressed).") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	r := NewReport("check", "test", testIssues, 0)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatJSON); err != nil {
		t.Fatal(err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Issues) != 3 {
		t.Errorf("issues = %d, want 3", len(decoded.Issues))
	}
	if decoded.MaxSeverity != rules.SeverityError {
		t.Errorf("maxSeverity = %q", decoded.MaxSeverity)
	}
}

func TestWriteSARIF(t *testing.T) {
	r := NewReport("check", "1.2.3", testIssues, 0)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatSARIF); err != nil {
		t.Fatal(err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatal(err)
	}
	if log.Version != "2.1.0" {
		t.Errorf("version = %q", log.Version)
	}
	if len(log.Runs) != 1 || len(log.Runs[0].Results) != 3 {
		t.Fatalf("runs/results malformed")
	}
	res := log.Runs[0].Results[0]
	if res.RuleID != "safemig/SM001" || res.Level != "error" {
		t.Errorf("result = %+v", res)
	}
	if res.Locations[0].PhysicalLocation == nil ||
		res.Locations[0].PhysicalLocation.Region.StartLine != 4 {
		t.Error("physical location with line missing")
	}
	if log.Runs[0].Tool.Driver.Version != "1.2.3" {
		t.Errorf("driver version = %q", log.Runs[0].Tool.Driver.Version)
	}
}

func TestWriteSARIF_Empty(t *testing.T) {
	r := NewReport("check", "test", nil, 0)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatSARIF); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Error("SARIF results must be an empty array, not null")
	}
}

func TestWriteGitHub(t *testing.T) {
	r := NewReport("check", "test", testIssues, 0)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatGitHub); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "::error file=changesets/core/0002_add_email.yml,line=4,title=SM001::") {
		t.Errorf("missing annotation:\n%s", out)
	}
	if !strings.Contains(out, "::warning ") || !strings.Contains(out, "::notice ") {
		t.Errorf("severity mapping wrong:\n%s", out)
	}
}

func TestWriteGitLab(t *testing.T) {
	r := NewReport("check", "test", testIssues, 0)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatGitLab); err != nil {
		t.Fatal(err)
	}

	var decoded []gitlabIssue
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 3 {
		t.Fatalf("issues = %d, want 3", len(decoded))
	}
	if decoded[0].Severity != "major" || decoded[1].Severity != "minor" || decoded[2].Severity != "info" {
		t.Errorf("severity mapping: %+v", decoded)
	}
	if decoded[0].Fingerprint == "" || decoded[0].Fingerprint == decoded[1].Fingerprint {
		t.Error("fingerprints must be distinct and non-empty")
	}
	if decoded[1].Location.Lines.Begin != 1 {
		t.Error("unknown line must default to 1")
	}
}

func TestFingerprint_IgnoresLine(t *testing.T) {
	a := testIssues[0]
	b := testIssues[0]
	b.Line = 99
	b.FilePath = "moved/elsewhere.yml"
	if fingerprint(&a) != fingerprint(&b) {
		t.Error("fingerprint must track identity, not position")
	}
}
