package rules

import (
	"strings"
	"testing"

	"github.com/akraskov/safemig/internal/model"
)

func TestRawSQLWithoutReverse(t *testing.T) {
	op := &model.Operation{Kind: model.KindRunRawSQL, SQL: "DROP VIEW reporting"}
	if issue := (RawSQLWithoutReverse{}).Check(op, pgCtx()); issue == nil {
		t.Fatal("raw SQL without reverse must be flagged")
	}

	op.HasReverse = true
	op.ReverseSQL = ""
	if issue := (RawSQLWithoutReverse{}).Check(op, pgCtx()); issue != nil {
		t.Error("a declared empty reverse is a deliberate no-op")
	}
}

func TestEnumAddValueInTransaction(t *testing.T) {
	op := &model.Operation{
		Kind:       model.KindRunRawSQL,
		SQL:        "ALTER TYPE order_status ADD VALUE 'refunded'",
		HasReverse: true,
	}

	if issue := (EnumAddValueInTransaction{}).Check(op, pgCtx()); issue == nil {
		t.Fatal("enum value addition in a transactional changeset must be flagged")
	}

	nonAtomic := &Context{Vendor: "postgresql", HistoryComplete: true, Atomic: false}
	if issue := (EnumAddValueInTransaction{}).Check(op, nonAtomic); issue != nil {
		t.Error("atomic: false changesets run outside a transaction")
	}

	op.SQL = "alter type order_status\n  add value 'refunded'"
	if issue := (EnumAddValueInTransaction{}).Check(op, pgCtx()); issue == nil {
		t.Error("pattern must match case-insensitively across whitespace")
	}

	op.SQL = "CREATE TYPE order_status AS ENUM ('new')"
	if issue := (EnumAddValueInTransaction{}).Check(op, pgCtx()); issue != nil {
		t.Error("creating a type is fine in a transaction")
	}
}

func TestSlowDataCallback(t *testing.T) {
	op := &model.Operation{Kind: model.KindRunDataCallback, CallbackName: "backfill_emails"}
	issue := SlowDataCallback{}.Check(op, pgCtx())
	if issue == nil {
		t.Fatal("data callbacks are always reported")
	}
	if issue.Severity != SeverityInfo {
		t.Errorf("severity = %s, want info", issue.Severity)
	}

	op.CallbackBody = "UPDATE users SET email = lower(email)"
	issue = SlowDataCallback{}.Check(op, pgCtx())
	if issue == nil {
		t.Fatal("expected issue")
	}
	if !strings.Contains(issue.Message, "UPDATE") {
		t.Errorf("bulk statement should sharpen the message: %s", issue.Message)
	}
}

func TestCallbackWithoutReverse(t *testing.T) {
	op := &model.Operation{Kind: model.KindRunDataCallback, CallbackName: "backfill"}
	if issue := (CallbackWithoutReverse{}).Check(op, pgCtx()); issue == nil {
		t.Fatal("callback without reverse must be flagged")
	}

	op.ReverseCallback = true
	if issue := (CallbackWithoutReverse{}).Check(op, pgCtx()); issue != nil {
		t.Error("reverse declared, must not be flagged")
	}
}
