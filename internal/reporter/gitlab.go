package reporter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/akraskov/safemig/internal/rules"
)

// GitLab Code Quality report, consumed by merge request widgets.

type gitlabIssue struct {
	Description string         `json:"description"`
	CheckName   string         `json:"check_name"`
	Fingerprint string         `json:"fingerprint"`
	Severity    string         `json:"severity"`
	Location    gitlabLocation `json:"location"`
}

type gitlabLocation struct {
	Path  string      `json:"path"`
	Lines gitlabLines `json:"lines"`
}

type gitlabLines struct {
	Begin int `json:"begin"`
}

var severityToGitlab = map[rules.Severity]string{
	rules.SeverityError:   "major",
	rules.SeverityWarning: "minor",
	rules.SeverityInfo:    "info",
}

func writeGitLab(w io.Writer, report *Report) error {
	out := make([]gitlabIssue, 0, len(report.Issues))
	for i := range report.Issues {
		issue := &report.Issues[i]
		sev := severityToGitlab[issue.Severity]
		if sev == "" {
			sev = "info"
		}

		line := issue.Line
		if line == 0 {
			line = 1
		}
		out = append(out, gitlabIssue{
			Description: issue.RuleID + ": " + issue.Message,
			CheckName:   issue.RuleID,
			Fingerprint: fingerprint(issue),
			Severity:    sev,
			Location: gitlabLocation{
				Path:  issue.FilePath,
				Lines: gitlabLines{Begin: line},
			},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// fingerprint hashes the issue identity key so the widget tracks an
// issue across pipelines regardless of its line number.
func fingerprint(issue *rules.Issue) string {
	h := sha256.New()
	h.Write([]byte(issue.RuleID))
	h.Write([]byte{0})
	h.Write([]byte(issue.Scope))
	h.Write([]byte{0})
	h.Write([]byte(issue.Changeset))
	h.Write([]byte{0})
	h.Write([]byte(issue.Operation))
	return hex.EncodeToString(h.Sum(nil))
}
