package model

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ForeignKey describes the target of a foreign-key column.
type ForeignKey struct {
	Table        string `yaml:"table" json:"table"`
	Column       string `yaml:"column" json:"column"`
	DBConstraint bool   `yaml:"db_constraint" json:"db_constraint"`
}

// ColumnSpec is an immutable snapshot of a column definition at one
// point in changeset history. Altering a column produces a new spec;
// earlier specs stay reachable through the state resolver.
type ColumnSpec struct {
	Type          string
	Nullable      bool
	HasDefault    bool // an explicit application-level default was declared
	HasDBDefault  bool // a database-level default was declared
	MaxLength     int  // 0 for unbounded types
	Unique        bool
	PrimaryKey    bool
	AutoIncrement bool
	ForeignKey    *ForeignKey
}

// columnSpecDoc mirrors the YAML shape of a column spec. Defaults are
// detected by key presence so that "default: false" still counts as a
// declared default.
type columnSpecDoc struct {
	Type          string      `yaml:"type"`
	Nullable      bool        `yaml:"nullable"`
	MaxLength     int         `yaml:"max_length"`
	Unique        bool        `yaml:"unique"`
	PrimaryKey    bool        `yaml:"primary_key"`
	AutoIncrement bool        `yaml:"auto_increment"`
	ForeignKey    *ForeignKey `yaml:"foreign_key"`
}

// UnmarshalYAML decodes a column spec, recording whether "default" and
// "db_default" keys were present regardless of their values.
func (c *ColumnSpec) UnmarshalYAML(value *yaml.Node) error {
	var doc columnSpecDoc
	if err := value.Decode(&doc); err != nil {
		return fmt.Errorf("decode column spec: %w", err)
	}

	*c = ColumnSpec{
		Type:          doc.Type,
		Nullable:      doc.Nullable,
		MaxLength:     doc.MaxLength,
		Unique:        doc.Unique,
		PrimaryKey:    doc.PrimaryKey,
		AutoIncrement: doc.AutoIncrement,
		ForeignKey:    doc.ForeignKey,
	}

	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			switch value.Content[i].Value {
			case "default":
				c.HasDefault = true
			case "db_default":
				c.HasDBDefault = true
			case "foreign_key":
				// db_constraint defaults to true when a target is given
				// but the key is omitted.
				if c.ForeignKey != nil && !keyPresent(value.Content[i+1], "db_constraint") {
					c.ForeignKey.DBConstraint = true
				}
			}
		}
	}
	return nil
}

func keyPresent(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Replay state keeps clones so that a spec
// held by one operation is never aliased by another.
func (c *ColumnSpec) Clone() *ColumnSpec {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ForeignKey != nil {
		fk := *c.ForeignKey
		cp.ForeignKey = &fk
	}
	return &cp
}

// String renders the spec for operation signatures. The format is part
// of the baseline identity key: it must change when the logical content
// changes and only then.
func (c *ColumnSpec) String() string {
	if c == nil {
		return "?"
	}
	var b strings.Builder
	b.WriteString(c.Type)
	if c.MaxLength > 0 {
		fmt.Fprintf(&b, "(%d)", c.MaxLength)
	}
	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if c.HasDefault {
		b.WriteString(" DEFAULT")
	}
	if c.HasDBDefault {
		b.WriteString(" DB-DEFAULT")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.PrimaryKey {
		b.WriteString(" PK")
	}
	if c.AutoIncrement {
		b.WriteString(" AUTO")
	}
	if c.ForeignKey != nil {
		fmt.Fprintf(&b, " FK->%s.%s", c.ForeignKey.Table, c.ForeignKey.Column)
		if !c.ForeignKey.DBConstraint {
			b.WriteString("(nodb)")
		}
	}
	return b.String()
}

// Delta classifies how a column definition changed between two
// snapshots. Rules consult this instead of comparing fields themselves
// so that all before/after heuristics agree.
type Delta struct {
	TypeChanged          bool
	LengthIncreased      bool
	LengthDecreased      bool
	NullabilityTightened bool // NULL -> NOT NULL
	NullabilityRelaxed   bool // NOT NULL -> NULL
	DefaultChanged       bool
}

// MetadataOnly reports whether the change avoids anything that could
// rewrite the table: widening a length or relaxing constraints only.
func (d Delta) MetadataOnly() bool {
	return !d.TypeChanged && !d.LengthDecreased && !d.NullabilityTightened
}

// ClassifyDelta compares a column's prior definition with its new one.
func ClassifyDelta(prior, next *ColumnSpec) Delta {
	var d Delta
	if prior == nil || next == nil {
		return d
	}
	if !strings.EqualFold(prior.Type, next.Type) {
		d.TypeChanged = true
	}
	if prior.MaxLength > 0 && next.MaxLength > 0 {
		if next.MaxLength > prior.MaxLength {
			d.LengthIncreased = true
		} else if next.MaxLength < prior.MaxLength {
			d.LengthDecreased = true
		}
	} else if prior.MaxLength > 0 && next.MaxLength == 0 {
		// bounded -> unbounded counts as widening
		d.LengthIncreased = true
	} else if prior.MaxLength == 0 && next.MaxLength > 0 {
		d.LengthDecreased = true
	}
	if prior.Nullable && !next.Nullable {
		d.NullabilityTightened = true
	}
	if !prior.Nullable && next.Nullable {
		d.NullabilityRelaxed = true
	}
	if prior.HasDefault != next.HasDefault || prior.HasDBDefault != next.HasDBDefault {
		d.DefaultChanged = true
	}
	return d
}
