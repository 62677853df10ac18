// Package cli wires the cobra commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/akraskov/safemig/internal/config"
	"github.com/akraskov/safemig/internal/logging"
	"github.com/akraskov/safemig/internal/rules"
)

// ExitError carries a process exit code through the cobra error path
// without printing anything: the report has already been written.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

var (
	verbose bool
	cfg     config.Config
)

func newRootCmd(version, commit, date string) *cobra.Command {
	root := &cobra.Command{
		Use:           "safemig",
		Short:         "Static safety linter for schema changesets",
		Long:          "Analyzes declarative schema changesets for operations that lock tables, destroy data, or break rolling deploys, before they reach a database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(verbose, cmd.ErrOrStderr())

			// .env is optional; missing is the normal case.
			_ = godotenv.Load()

			cwd, err := os.Getwd()
			if err != nil {
				cwd = "."
			}
			cfg, err = config.Load(cwd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			slog.Debug("config loaded", "path", cwd, "vendor", cfg.Vendor)

			if dir := os.Getenv("SAFEMIG_CHANGESET_DIR"); dir != "" {
				cfg.ChangesetDir = dir
			}
			if vendor := os.Getenv("SAFEMIG_VENDOR"); vendor != "" {
				cfg.Vendor = vendor
			}
			if format := os.Getenv("SAFEMIG_FORMAT"); format != "" {
				cfg.Defaults.Format = format
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	root.AddCommand(newVersionCmd(version, commit, date))
	root.AddCommand(newCheckCmd(version))
	root.AddCommand(newRulesCmd())

	return root
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "safemig %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the built-in rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := rules.NewRegistry()
			list := append([]rules.Rule(nil), registry.Rules()...)
			sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })

			w := cmd.OutOrStdout()
			for _, r := range list {
				vendors := "all vendors"
				if v := r.Vendors(); len(v) > 0 {
					vendors = strings.Join(v, ", ")
				}
				cats := strings.Join(rules.CategoriesFor(r.ID()), ", ")
				_, err := fmt.Fprintf(w, "%s  %-7s  %s\n         categories: %s; vendors: %s\n",
					r.ID(), r.DefaultSeverity(), r.Description(), cats, vendors)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Execute runs the root command.
func Execute(version, commit, date string) error {
	return newRootCmd(version, commit, date).Execute()
}
