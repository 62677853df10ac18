package model

import (
	"testing"

	"go.yaml.in/yaml/v3"
)

func TestColumnSpec_UnmarshalYAML_DefaultPresence(t *testing.T) {
	var spec ColumnSpec
	if err := yaml.Unmarshal([]byte("type: boolean\ndefault: false\n"), &spec); err != nil {
		t.Fatal(err)
	}
	if !spec.HasDefault {
		t.Error("default: false should still count as a declared default")
	}
	if spec.HasDBDefault {
		t.Error("db_default was not declared")
	}
}

func TestColumnSpec_UnmarshalYAML_NoDefault(t *testing.T) {
	var spec ColumnSpec
	if err := yaml.Unmarshal([]byte("type: varchar\nmax_length: 255\n"), &spec); err != nil {
		t.Fatal(err)
	}
	if spec.HasDefault || spec.HasDBDefault {
		t.Error("no default keys were declared")
	}
	if spec.MaxLength != 255 {
		t.Errorf("max_length = %d, want 255", spec.MaxLength)
	}
	if spec.Nullable {
		t.Error("nullable should default to false")
	}
}

func TestColumnSpec_UnmarshalYAML_ForeignKeyDefaults(t *testing.T) {
	var spec ColumnSpec
	src := `type: bigint
foreign_key:
  table: users
  column: id
`
	if err := yaml.Unmarshal([]byte(src), &spec); err != nil {
		t.Fatal(err)
	}
	if spec.ForeignKey == nil {
		t.Fatal("foreign key not decoded")
	}
	if !spec.ForeignKey.DBConstraint {
		t.Error("db_constraint should default to true when omitted")
	}

	var explicit ColumnSpec
	src = `type: bigint
foreign_key:
  table: users
  column: id
  db_constraint: false
`
	if err := yaml.Unmarshal([]byte(src), &explicit); err != nil {
		t.Fatal(err)
	}
	if explicit.ForeignKey.DBConstraint {
		t.Error("explicit db_constraint: false was overridden")
	}
}

func TestColumnSpec_Clone(t *testing.T) {
	orig := &ColumnSpec{
		Type:       "bigint",
		ForeignKey: &ForeignKey{Table: "users", Column: "id", DBConstraint: true},
	}
	cp := orig.Clone()
	cp.Type = "integer"
	cp.ForeignKey.Table = "accounts"

	if orig.Type != "bigint" {
		t.Error("clone aliased the spec")
	}
	if orig.ForeignKey.Table != "users" {
		t.Error("clone aliased the foreign key")
	}

	var nilSpec *ColumnSpec
	if nilSpec.Clone() != nil {
		t.Error("cloning nil should return nil")
	}
}

func TestColumnSpec_String(t *testing.T) {
	spec := &ColumnSpec{Type: "varchar", MaxLength: 255, HasDefault: true}
	got := spec.String()
	want := "varchar(255) NOT NULL DEFAULT"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	var nilSpec *ColumnSpec
	if nilSpec.String() != "?" {
		t.Errorf("nil String() = %q, want ?", nilSpec.String())
	}
}

func TestClassifyDelta_Lengths(t *testing.T) {
	bounded := func(n int) *ColumnSpec { return &ColumnSpec{Type: "varchar", MaxLength: n} }

	d := ClassifyDelta(bounded(100), bounded(255))
	if !d.LengthIncreased || d.LengthDecreased {
		t.Errorf("100 -> 255: got %+v, want increase", d)
	}
	d = ClassifyDelta(bounded(255), bounded(100))
	if !d.LengthDecreased || d.LengthIncreased {
		t.Errorf("255 -> 100: got %+v, want decrease", d)
	}

	// bounded -> unbounded widens, unbounded -> bounded shrinks
	d = ClassifyDelta(bounded(255), &ColumnSpec{Type: "varchar"})
	if !d.LengthIncreased {
		t.Errorf("bounded -> unbounded: got %+v, want increase", d)
	}
	d = ClassifyDelta(&ColumnSpec{Type: "varchar"}, bounded(255))
	if !d.LengthDecreased {
		t.Errorf("unbounded -> bounded: got %+v, want decrease", d)
	}
}

func TestClassifyDelta_Nullability(t *testing.T) {
	nullable := &ColumnSpec{Type: "text", Nullable: true}
	notNull := &ColumnSpec{Type: "text"}

	d := ClassifyDelta(nullable, notNull)
	if !d.NullabilityTightened || d.NullabilityRelaxed {
		t.Errorf("NULL -> NOT NULL: got %+v", d)
	}
	d = ClassifyDelta(notNull, nullable)
	if !d.NullabilityRelaxed || d.NullabilityTightened {
		t.Errorf("NOT NULL -> NULL: got %+v", d)
	}
	if !d.MetadataOnly() {
		t.Error("relaxing nullability is metadata-only")
	}
}

func TestClassifyDelta_TypeCaseInsensitive(t *testing.T) {
	d := ClassifyDelta(&ColumnSpec{Type: "TEXT"}, &ColumnSpec{Type: "text"})
	if d.TypeChanged {
		t.Error("type comparison should be case-insensitive")
	}
	d = ClassifyDelta(&ColumnSpec{Type: "text"}, &ColumnSpec{Type: "varchar"})
	if !d.TypeChanged {
		t.Error("text -> varchar is a type change")
	}
	if d.MetadataOnly() {
		t.Error("a type change is never metadata-only")
	}
}

func TestClassifyDelta_NilInputs(t *testing.T) {
	d := ClassifyDelta(nil, &ColumnSpec{Type: "text"})
	if d != (Delta{}) {
		t.Errorf("nil prior should yield zero delta, got %+v", d)
	}
}
