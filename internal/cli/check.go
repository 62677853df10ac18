package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/akraskov/safemig/internal/analyzer"
	"github.com/akraskov/safemig/internal/baseline"
	"github.com/akraskov/safemig/internal/changeset"
	"github.com/akraskov/safemig/internal/config"
	"github.com/akraskov/safemig/internal/model"
	"github.com/akraskov/safemig/internal/reporter"
	"github.com/akraskov/safemig/internal/rules"
	"github.com/akraskov/safemig/internal/suppress"
)

type checkOptions struct {
	dir            string
	format         string
	failOnWarning  bool
	baselinePath   string
	updateBaseline string
	diffRef        string
	interactive    bool
	watch          bool
	noSuggestions  bool
	scopes         []string
}

func newCheckCmd(version string) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check [scope...]",
		Short: "Analyze changesets for unsafe schema operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.scopes = args

			if !cmd.Flags().Changed("dir") && cfg.ChangesetDir != "" {
				opts.dir = cfg.ChangesetDir
			}
			if !cmd.Flags().Changed("format") && cfg.Defaults.Format != "" {
				opts.format = cfg.Defaults.Format
			}
			if !cmd.Flags().Changed("fail-on-warning") {
				opts.failOnWarning = cfg.FailOnWarning
			}

			format, err := reporter.ParseFormat(opts.format)
			if err != nil {
				return err
			}

			if opts.watch {
				return watchLoop(cmd, &opts, format, version)
			}
			return runCheck(cmd, &opts, format, version)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "changesets", "changeset root directory")
	cmd.Flags().StringVar(&opts.format, "format", "console", "output format: console, json, sarif, github, or gitlab")
	cmd.Flags().BoolVar(&opts.failOnWarning, "fail-on-warning", false, "exit non-zero on warnings, not just errors")
	cmd.Flags().StringVar(&opts.baselinePath, "baseline", "", "path to baseline file (suppress known issues)")
	cmd.Flags().StringVar(&opts.updateBaseline, "update-baseline", "", "save current issues as new baseline")
	cmd.Flags().StringVar(&opts.diffRef, "diff", "", "only report issues in changesets changed since the git ref")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "review issues one by one and baseline accepted ones")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "re-run analysis when changeset files change")
	cmd.Flags().BoolVar(&opts.noSuggestions, "no-suggestions", false, "omit fix suggestions from console output")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions, format reporter.Format, version string) error {
	issues, snap, err := analyze(opts)
	if err != nil {
		return err
	}

	if opts.updateBaseline != "" {
		n, err := baseline.Save(opts.updateBaseline, issues)
		if err != nil {
			return fmt.Errorf("save baseline: %w", err)
		}
		slog.Info("baseline saved", "path", opts.updateBaseline, "entries", n)
	}

	issues, suppressed, err := filterIssues(issues, opts.baselinePath)
	if err != nil {
		return err
	}

	if opts.interactive {
		issues, err = reviewInteractive(cmd, issues, opts.baselinePath)
		if err != nil {
			return err
		}
	}

	report := reporter.NewReport("check", version, issues, suppressed)
	report.HideSuggestions = opts.noSuggestions

	if err := reporter.Write(cmd.OutOrStdout(), &report, format); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	failOnWarning := opts.failOnWarning || snap.FailOnWarning()
	if code := rules.ExitCode(report.MaxSeverity, failOnWarning); code != 0 && len(issues) > 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// analyze loads, orders, and checks every selected scope. It returns
// the unfiltered issue list so baseline updates see everything.
func analyze(opts *checkOptions) ([]rules.Issue, *config.Snapshot, error) {
	registry := rules.NewRegistry()
	snap, err := config.BuildSnapshot(&cfg, registry)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve config: %w", err)
	}

	sets, err := changeset.Load(opts.dir)
	if err != nil {
		return nil, nil, err
	}
	sets = selectScopes(sets, opts.scopes, cfg.ExcludeScopes)

	var only map[model.Ref]bool
	if opts.diffRef != "" {
		only = changedRefs(opts.dir, opts.diffRef)
	}

	a := analyzer.New(registry, snap, changeset.LocateOperation)
	issues, err := a.Run(sets, only)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("analysis complete", "scopes", len(sets), "issues", len(issues))
	return issues, snap, nil
}

// selectScopes applies the positional scope arguments and the
// configured exclusions.
func selectScopes(sets map[string][]*model.Changeset, include, exclude []string) map[string][]*model.Changeset {
	if len(include) > 0 {
		wanted := make(map[string]bool, len(include))
		for _, s := range include {
			wanted[s] = true
		}
		for scope := range sets {
			if !wanted[scope] {
				delete(sets, scope)
			}
		}
	}
	for _, scope := range exclude {
		delete(sets, scope)
	}
	return sets
}

// filterIssues applies baseline and ignore-file suppressions.
func filterIssues(issues []rules.Issue, baselinePath string) ([]rules.Issue, int, error) {
	totalSuppressed := 0

	if baselinePath != "" {
		bl, err := baseline.Load(baselinePath)
		if err != nil {
			return nil, 0, err
		}
		var n int
		issues, n = bl.Filter(issues)
		totalSuppressed += n
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	ignore, err := suppress.LoadRules(cwd)
	if err != nil {
		return nil, 0, fmt.Errorf("load ignore file: %w", err)
	}
	var n int
	issues, n = ignore.Filter(issues)
	totalSuppressed += n

	return issues, totalSuppressed, nil
}
