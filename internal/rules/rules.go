package rules

import (
	"fmt"
	"strings"

	"github.com/akraskov/safemig/internal/model"
)

// Severity indicates how dangerous a flagged operation is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

var severityOrder = map[Severity]int{
	SeverityInfo:    0,
	SeverityWarning: 1,
	SeverityError:   2,
}

// ParseSeverity resolves a configured severity string. Matching is
// case-insensitive; anything else is a configuration error.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return "", fmt.Errorf("unknown severity %q (want error, warning, or info)", s)
}

// MaxSeverity returns the highest severity among issues.
func MaxSeverity(issues []Issue) Severity {
	max := SeverityInfo
	for i := range issues {
		if severityOrder[issues[i].Severity] > severityOrder[max] {
			max = issues[i].Severity
		}
	}
	return max
}

// ExitCode maps severity to a CLI exit code.
func ExitCode(s Severity, failOnWarning bool) int {
	switch s {
	case SeverityError:
		return 1
	case SeverityWarning:
		if failOnWarning {
			return 1
		}
	}
	return 0
}

// Issue is a single finding. (RuleID, Scope, Changeset, Operation) is
// the identity key used for baseline matching and must be deterministic
// across runs on unchanged input.
type Issue struct {
	RuleID     string   `json:"rule_id"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Scope      string   `json:"scope"`
	Changeset  string   `json:"changeset"`
	Operation  string   `json:"operation"`
	FilePath   string   `json:"file,omitempty"`
	Line       int      `json:"line,omitempty"`
}

// Context carries the prior-state information a rule may consult.
// Prior is the column definition immediately before the operation, nil
// when the column did not exist or its history is unknown;
// HistoryComplete distinguishes the two.
type Context struct {
	Vendor          string
	Prior           *model.ColumnSpec
	HistoryComplete bool
	Atomic          bool // the enclosing changeset runs in a transaction
}

// Rule is a stateless predicate over one operation plus optional prior
// state. Check must be total: an operation shape it cannot interpret
// yields nil, never a panic.
type Rule interface {
	ID() string
	DefaultSeverity() Severity
	Description() string
	// Vendors is the vendor allow-list; empty means the rule applies
	// to every vendor.
	Vendors() []string
	Check(op *model.Operation, ctx *Context) *Issue
}

// newIssue builds an issue carrying the rule's identity and default
// severity. The analyzer applies configured severity overrides and
// location enrichment afterwards.
func newIssue(r Rule, message, suggestion string) *Issue {
	return &Issue{
		RuleID:     r.ID(),
		Severity:   r.DefaultSeverity(),
		Message:    message,
		Suggestion: suggestion,
	}
}

// AppliesTo reports whether a rule's vendor allow-list admits the
// given vendor. Rules with an empty list apply everywhere.
func AppliesTo(r Rule, vendor string) bool {
	vendors := r.Vendors()
	if len(vendors) == 0 {
		return true
	}
	for _, v := range vendors {
		if v == vendor {
			return true
		}
	}
	return false
}

// Registry is the immutable rule set, built once at startup and passed
// by reference into the analyzer.
type Registry struct {
	rules []Rule
	byID  map[string]Rule
}

// NewRegistry builds the built-in rule set in its fixed registration
// order. The order is part of the output contract: issues for one
// operation are emitted in this order.
func NewRegistry() *Registry {
	list := []Rule{
		&NotNullWithoutDefault{},
		&RemoveColumnLosesData{},
		&DeleteTableLosesData{},
		&AlterColumnType{},
		&AddForeignKeyValidates{},
		&RenameColumnBreaksDeploy{},
		&RawSQLWithoutReverse{},
		&SlowDataCallback{},
		&AddUniqueConstraintValidates{},
		&NonConcurrentIndex{},
		&NonConcurrentUniqueIndex{},
		&EnumAddValueInTransaction{},
		&VarcharLengthDecrease{},
		&RenameTableBreaksReferences{},
		&MakeColumnNotNull{},
		&CallbackWithoutReverse{},
		&AddCheckConstraintValidates{},
		&MultipleHeads{},
	}

	byID := make(map[string]Rule, len(list))
	for _, r := range list {
		byID[r.ID()] = r
	}
	return &Registry{rules: list, byID: byID}
}

// Rules returns the registered rules in registration order. Callers
// must not modify the slice.
func (r *Registry) Rules() []Rule { return r.rules }

// Lookup finds a rule by id.
func (r *Registry) Lookup(id string) (Rule, bool) {
	rule, ok := r.byID[id]
	return rule, ok
}

// CategoryTable maps rule id to its category tags. Categories may
// overlap and a rule may belong to several. The table is validated
// against the registry when a config snapshot is built.
var CategoryTable = map[string][]string{
	RuleNotNullWithoutDefault: {"locking"},
	RuleRemoveColumn:          {"data-loss"},
	RuleDeleteTable:           {"data-loss"},
	RuleAlterColumnType:       {"locking"},
	RuleAddForeignKey:         {"locking"},
	RuleRenameColumn:          {"compat"},
	RuleRawSQLNoReverse:       {"reversibility"},
	RuleSlowDataCallback:      {"performance"},
	RuleAddUniqueConstraint:   {"locking"},
	RuleNonConcurrentIndex:    {"locking", "performance"},
	RuleNonConcurrentUnique:   {"locking"},
	RuleEnumAddValue:          {"locking"},
	RuleVarcharLengthDecrease: {"locking"},
	RuleRenameTable:           {"compat"},
	RuleMakeColumnNotNull:     {"locking"},
	RuleCallbackNoReverse:     {"reversibility"},
	RuleAddCheckConstraint:    {"locking"},
	RuleMultipleHeads:         {"graph"},
}

// CategoriesFor returns the category tags for a rule id.
func CategoriesFor(id string) []string { return CategoryTable[id] }

// ValidateCategories fails fast on a category entry naming a rule the
// registry does not know.
func ValidateCategories(reg *Registry) error {
	for id := range CategoryTable {
		if _, ok := reg.Lookup(id); !ok {
			return fmt.Errorf("category table references unknown rule %q", id)
		}
	}
	return nil
}
