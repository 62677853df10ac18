package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/akraskov/safemig/internal/rules"
)

// SARIF 2.1.0 types, the minimal subset needed for valid output.

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	ShortDescription sarifMessage      `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaults `json:"defaultConfiguration"`
}

type sarifRuleDefaults struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation,omitempty"`
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

type sarifLogicalLocation struct {
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind"`
}

var severityToLevel = map[rules.Severity]string{
	rules.SeverityError:   "error",
	rules.SeverityWarning: "warning",
	rules.SeverityInfo:    "note",
}

func writeSARIF(w io.Writer, report *Report) error {
	registry := rules.NewRegistry()

	ruleSet := make(map[string]bool)
	for i := range report.Issues {
		ruleSet[report.Issues[i].RuleID] = true
	}
	ids := make([]string, 0, len(ruleSet))
	for id := range ruleSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sarifRules := make([]sarifRule, 0, len(ids))
	for _, id := range ids {
		desc := id
		level := "warning"
		if rule, ok := registry.Lookup(id); ok {
			desc = rule.Description()
			level = severityToLevel[rule.DefaultSeverity()]
		}
		sarifRules = append(sarifRules, sarifRule{
			ID:               "safemig/" + id,
			ShortDescription: sarifMessage{Text: desc},
			DefaultConfig:    sarifRuleDefaults{Level: level},
		})
	}

	var results []sarifResult
	for i := range report.Issues {
		issue := &report.Issues[i]
		level := severityToLevel[issue.Severity]
		if level == "" {
			level = "note"
		}

		loc := sarifLocation{
			LogicalLocations: []sarifLogicalLocation{
				{
					Name:               issue.Changeset,
					FullyQualifiedName: issue.Scope + "/" + issue.Changeset + "/" + issue.Operation,
					Kind:               "module",
				},
			},
		}
		if issue.FilePath != "" {
			phys := &sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: issue.FilePath},
			}
			if issue.Line > 0 {
				phys.Region = &sarifRegion{StartLine: issue.Line}
			}
			loc.PhysicalLocation = phys
		}

		results = append(results, sarifResult{
			RuleID:    "safemig/" + issue.RuleID,
			Level:     level,
			Message:   sarifMessage{Text: issue.Message},
			Locations: []sarifLocation{loc},
		})
	}

	log := sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "safemig",
						Version:        report.Metadata.Version,
						InformationURI: "https://github.com/akraskov/safemig",
						Rules:          sarifRules,
					},
				},
				Results: results,
			},
		},
	}

	if log.Runs[0].Results == nil {
		log.Runs[0].Results = []sarifResult{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encode SARIF: %w", err)
	}
	return nil
}
