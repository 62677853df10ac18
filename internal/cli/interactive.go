package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akraskov/safemig/internal/baseline"
	"github.com/akraskov/safemig/internal/rules"
)

// reviewInteractive walks the issues one by one. Accepted issues are
// added to the baseline file and dropped from the report; kept issues
// stay. Quitting keeps every remaining issue.
func reviewInteractive(cmd *cobra.Command, issues []rules.Issue, baselinePath string) ([]rules.Issue, error) {
	if len(issues) == 0 {
		return issues, nil
	}
	if baselinePath == "" {
		return nil, fmt.Errorf("--interactive requires --baseline")
	}

	bl, err := baseline.Load(baselinePath)
	if err != nil {
		return nil, err
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	var kept []rules.Issue
	var accepted []rules.Issue

	for i := range issues {
		issue := &issues[i]
		fmt.Fprintf(out, "\n[%d/%d] %s %s %s/%s\n  %s\n",
			i+1, len(issues), issue.RuleID, issue.Severity, issue.Scope, issue.Changeset, issue.Message)
		if issue.Suggestion != "" {
			fmt.Fprintf(out, "  hint: %s\n", issue.Suggestion)
		}

		answer := prompt(in, out, "[k]eep, [a]ccept into baseline, [q]uit review: ")
		if answer == "q" || answer == "quit" {
			kept = append(kept, issues[i:]...)
			break
		}
		if answer == "a" || answer == "accept" {
			accepted = append(accepted, *issue)
		} else {
			kept = append(kept, *issue)
		}
	}

	if len(accepted) > 0 {
		// Merge with the entries already on disk.
		for _, e := range bl.Issues {
			accepted = append(accepted, rules.Issue{
				RuleID:    e.RuleID,
				Scope:     e.Scope,
				Changeset: e.Changeset,
				Operation: e.Operation,
			})
		}
		n, err := baseline.Save(baselinePath, accepted)
		if err != nil {
			return nil, fmt.Errorf("save baseline: %w", err)
		}
		fmt.Fprintf(out, "\nBaseline updated: %d entries.\n", n)
	}
	return kept, nil
}

func prompt(in *bufio.Scanner, out io.Writer, msg string) string {
	fmt.Fprint(out, msg)
	if !in.Scan() {
		return "q"
	}
	return strings.ToLower(strings.TrimSpace(in.Text()))
}
