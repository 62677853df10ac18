package rules

import (
	"fmt"
	"regexp"

	"github.com/akraskov/safemig/internal/model"
)

const (
	RuleSlowDataCallback  = "SM008"
	RuleCallbackNoReverse = "SM016"
)

// unsafeCallbackPatterns is a best-effort textual scan of callback
// bodies for statements that touch whole tables at once. It is not a
// static analysis of the callback's language.
var unsafeCallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bUPDATE\s+\S+\s+SET\b`),
	regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`),
	regexp.MustCompile(`(?i)\bINSERT\s+INTO\s+\S+\s+SELECT\b`),
}

// SlowDataCallback flags data callbacks: a callback processing a large
// table inside one transaction blocks deploys and causes lock
// contention.
type SlowDataCallback struct{}

func (SlowDataCallback) ID() string                { return RuleSlowDataCallback }
func (SlowDataCallback) DefaultSeverity() Severity { return SeverityInfo }
func (SlowDataCallback) Vendors() []string         { return nil }
func (SlowDataCallback) Description() string {
	return "Data callback may be slow on large tables"
}

func (r SlowDataCallback) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindRunDataCallback {
		return nil
	}

	msg := fmt.Sprintf("data callback %s may be slow on large tables; process rows in batches", callbackLabel(op))
	for _, pat := range unsafeCallbackPatterns {
		if pat.MatchString(op.CallbackBody) {
			msg = fmt.Sprintf("data callback %s appears to modify whole tables in one statement (%q)",
				callbackLabel(op), pat.FindString(op.CallbackBody))
			break
		}
	}
	return newIssue(r, msg, `Best practices for data callbacks:

1. Process rows in bounded batches, committing between batches.
2. Never hold one transaction over a whole large table.
3. Consider running the backfill outside the deploy entirely.`)
}

// CallbackWithoutReverse flags data callbacks with no reverse
// callback declared.
type CallbackWithoutReverse struct{}

func (CallbackWithoutReverse) ID() string                { return RuleCallbackNoReverse }
func (CallbackWithoutReverse) DefaultSeverity() Severity { return SeverityInfo }
func (CallbackWithoutReverse) Vendors() []string         { return nil }
func (CallbackWithoutReverse) Description() string {
	return "Data callback without reverse cannot be rolled back"
}

func (r CallbackWithoutReverse) Check(op *model.Operation, ctx *Context) *Issue {
	if op.Kind != model.KindRunDataCallback || op.ReverseCallback {
		return nil
	}
	msg := fmt.Sprintf("data callback %s has no reverse callback and cannot be rolled back", callbackLabel(op))
	return newIssue(r, msg, "Declare reverse_callback: true and implement the inverse, or document why the callback needs no undo.")
}

func callbackLabel(op *model.Operation) string {
	if op.CallbackName != "" {
		return fmt.Sprintf("%q", op.CallbackName)
	}
	return "(unnamed)"
}
