// Package reporter renders analysis results for humans and CI systems.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/akraskov/safemig/internal/rules"
)

// Format controls report output format.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatSARIF   Format = "sarif"
	FormatGitHub  Format = "github"
	FormatGitLab  Format = "gitlab"
)

// ParseFormat validates a format name from config or a CLI flag.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatConsole, FormatJSON, FormatSARIF, FormatGitHub, FormatGitLab:
		return Format(s), nil
	case "":
		return FormatConsole, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Metadata holds report context.
type Metadata struct {
	Tool      string `json:"tool"`
	Command   string `json:"command"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Summary counts issues by severity.
type Summary struct {
	Total      int `json:"total"`
	Errors     int `json:"errors"`
	Warnings   int `json:"warnings"`
	Info       int `json:"info"`
	Suppressed int `json:"suppressed"`
}

// Report is the top-level check output.
type Report struct {
	Metadata    Metadata       `json:"metadata"`
	Issues      []rules.Issue  `json:"issues"`
	MaxSeverity rules.Severity `json:"max_severity"`
	Summary     Summary        `json:"summary"`

	// HideSuggestions drops the suggestion lines from console output.
	HideSuggestions bool `json:"-"`
}

// NewReport builds a report from issues. suppressed counts issues
// filtered out by the baseline or the ignore file before rendering.
func NewReport(command, version string, issues []rules.Issue, suppressed int) Report {
	summary := Summary{Suppressed: suppressed}
	for i := range issues {
		summary.Total++
		switch issues[i].Severity {
		case rules.SeverityError:
			summary.Errors++
		case rules.SeverityWarning:
			summary.Warnings++
		case rules.SeverityInfo:
			summary.Info++
		}
	}

	if issues == nil {
		issues = []rules.Issue{}
	}

	return Report{
		Metadata: Metadata{
			Tool:      "safemig",
			Command:   command,
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Issues:      issues,
		MaxSeverity: rules.MaxSeverity(issues),
		Summary:     summary,
	}
}

// Write outputs the report in the given format.
func Write(w io.Writer, report *Report, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatSARIF:
		return writeSARIF(w, report)
	case FormatGitHub:
		return writeGitHub(w, report)
	case FormatGitLab:
		return writeGitLab(w, report)
	default:
		return writeConsole(w, report)
	}
}

func writeJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

var severityLabel = map[rules.Severity]string{
	rules.SeverityError:   "ERROR",
	rules.SeverityWarning: "WARNING",
	rules.SeverityInfo:    "INFO",
}

func writeConsole(w io.Writer, report *Report) error {
	color := isTTY(w)

	if report.Summary.Total == 0 {
		msg := "No issues found."
		if report.Summary.Suppressed > 0 {
			msg = fmt.Sprintf("No issues found (%d suppressed).", report.Summary.Suppressed)
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	for i := range report.Issues {
		issue := &report.Issues[i]
		label := severityLabel[issue.Severity]
		if color {
			label = severityColor[issue.Severity] + label + colorReset
		}
		location := issue.Scope + "/" + issue.Changeset
		if issue.Line > 0 {
			location += fmt.Sprintf(":%d", issue.Line)
		}
		_, err := fmt.Fprintf(w, "[%s] %s %s: %s (%s)\n",
			label, issue.RuleID, issue.Operation, issue.Message, location)
		if err != nil {
			return err
		}
		if issue.Suggestion != "" && !report.HideSuggestions {
			if _, err := fmt.Fprintf(w, "  hint: %s\n", issue.Suggestion); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(w, "\nSummary: %d issues (errors=%d warnings=%d info=%d suppressed=%d)\n",
		report.Summary.Total, report.Summary.Errors, report.Summary.Warnings,
		report.Summary.Info, report.Summary.Suppressed)
	return err
}
