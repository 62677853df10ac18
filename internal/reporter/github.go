package reporter

import (
	"fmt"
	"io"

	"github.com/akraskov/safemig/internal/rules"
)

// GitHub Actions workflow commands: one annotation per issue, rendered
// on the job's source view when the changeset file path is known.

var severityToCommand = map[rules.Severity]string{
	rules.SeverityError:   "error",
	rules.SeverityWarning: "warning",
	rules.SeverityInfo:    "notice",
}

func writeGitHub(w io.Writer, report *Report) error {
	for i := range report.Issues {
		issue := &report.Issues[i]
		cmd := severityToCommand[issue.Severity]
		if cmd == "" {
			cmd = "notice"
		}

		props := ""
		if issue.FilePath != "" {
			props = "file=" + issue.FilePath
			if issue.Line > 0 {
				props += fmt.Sprintf(",line=%d", issue.Line)
			}
		}
		props += ",title=" + issue.RuleID
		props = trimLeadingComma(props)

		msg := fmt.Sprintf("%s %s: %s", issue.RuleID, issue.Operation, issue.Message)
		if _, err := fmt.Fprintf(w, "::%s %s::%s\n", cmd, props, escapeWorkflowData(msg)); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Found %d issues (errors=%d warnings=%d info=%d)\n",
		report.Summary.Total, report.Summary.Errors, report.Summary.Warnings, report.Summary.Info)
	return err
}

func trimLeadingComma(s string) string {
	if len(s) > 0 && s[0] == ',' {
		return s[1:]
	}
	return s
}

// escapeWorkflowData applies the data escaping the workflow command
// grammar requires.
func escapeWorkflowData(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%':
			out = append(out, "%25"...)
		case '\r':
			out = append(out, "%0D"...)
		case '\n':
			out = append(out, "%0A"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
