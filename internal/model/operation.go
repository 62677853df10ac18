package model

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

// Kind tags the operation union. New shapes decode to KindUnknown so
// rules fail closed instead of misreading fields.
type Kind string

const (
	KindAddColumn       Kind = "add_column"
	KindRemoveColumn    Kind = "remove_column"
	KindAlterColumn     Kind = "alter_column"
	KindRenameColumn    Kind = "rename_column"
	KindRenameTable     Kind = "rename_table"
	KindAddIndex        Kind = "add_index"
	KindRemoveIndex     Kind = "remove_index"
	KindAddConstraint   Kind = "add_constraint"
	KindRunRawSQL       Kind = "run_sql"
	KindRunDataCallback Kind = "run_callback"
	KindCreateTable     Kind = "create_table"
	KindDeleteTable     Kind = "delete_table"
	KindUnknown         Kind = "unknown"
)

// ConstraintKind discriminates add_constraint operations.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// TableColumn pairs a column name with its spec inside create_table,
// preserving declaration order.
type TableColumn struct {
	Name string
	Spec *ColumnSpec
}

// Operation is one schema-altering action. It is immutable once parsed
// and owned by the changeset that declares it. Only the fields relevant
// to Kind are populated.
type Operation struct {
	Kind Kind

	Table   string
	Column  string
	NewName string // rename_column / rename_table target

	Spec    *ColumnSpec   // add_column / alter_column
	Columns []TableColumn // create_table

	IndexName    string
	IndexColumns []string
	Unique       bool
	Concurrent   bool

	ConstraintName string
	Constraint     ConstraintKind

	SQL        string
	ReverseSQL string
	HasReverse bool

	CallbackName    string
	CallbackBody    string
	ReverseCallback bool

	RawOp string // original op string for unknown kinds
}

type operationDoc struct {
	Op      string      `yaml:"op"`
	Table   string      `yaml:"table"`
	Column  string      `yaml:"column"`
	NewName string      `yaml:"new_name"`
	Spec    *ColumnSpec `yaml:"spec"`

	Columns yaml.Node `yaml:"columns"`

	Index        string   `yaml:"index"`
	IndexColumns []string `yaml:"index_columns"`
	Unique       bool     `yaml:"unique"`
	Concurrent   bool     `yaml:"concurrent"`

	Constraint     string `yaml:"constraint"`
	ConstraintKind string `yaml:"constraint_kind"`

	SQL     string  `yaml:"sql"`
	Reverse *string `yaml:"reverse"`

	Callback        string `yaml:"callback"`
	Body            string `yaml:"body"`
	ReverseCallback bool   `yaml:"reverse_callback"`
}

var kindByOp = map[string]Kind{
	string(KindAddColumn):       KindAddColumn,
	string(KindRemoveColumn):    KindRemoveColumn,
	string(KindAlterColumn):     KindAlterColumn,
	string(KindRenameColumn):    KindRenameColumn,
	string(KindRenameTable):     KindRenameTable,
	string(KindAddIndex):        KindAddIndex,
	string(KindRemoveIndex):     KindRemoveIndex,
	string(KindAddConstraint):   KindAddConstraint,
	string(KindRunRawSQL):       KindRunRawSQL,
	string(KindRunDataCallback): KindRunDataCallback,
	string(KindCreateTable):     KindCreateTable,
	string(KindDeleteTable):     KindDeleteTable,
}

// UnmarshalYAML decodes one operation mapping. Unrecognized op names
// are kept as KindUnknown with the raw name preserved.
func (o *Operation) UnmarshalYAML(value *yaml.Node) error {
	var doc operationDoc
	if err := value.Decode(&doc); err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}

	kind, ok := kindByOp[doc.Op]
	if !ok {
		*o = Operation{Kind: KindUnknown, RawOp: doc.Op}
		return nil
	}

	*o = Operation{
		Kind:            kind,
		Table:           doc.Table,
		Column:          doc.Column,
		NewName:         doc.NewName,
		Spec:            doc.Spec,
		IndexName:       doc.Index,
		IndexColumns:    doc.IndexColumns,
		Unique:          doc.Unique,
		Concurrent:      doc.Concurrent,
		ConstraintName:  doc.Constraint,
		Constraint:      ConstraintKind(doc.ConstraintKind),
		SQL:             doc.SQL,
		CallbackName:    doc.Callback,
		CallbackBody:    doc.Body,
		ReverseCallback: doc.ReverseCallback,
	}
	if doc.Reverse != nil {
		o.HasReverse = true
		o.ReverseSQL = *doc.Reverse
	}

	if kind == KindCreateTable && doc.Columns.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(doc.Columns.Content); i += 2 {
			var spec ColumnSpec
			if err := doc.Columns.Content[i+1].Decode(&spec); err != nil {
				return fmt.Errorf("decode column %q: %w", doc.Columns.Content[i].Value, err)
			}
			o.Columns = append(o.Columns, TableColumn{
				Name: doc.Columns.Content[i].Value,
				Spec: &spec,
			})
		}
	}
	return nil
}

// Signature renders a stable structural summary of the operation. It is
// part of the baseline identity key: renaming a changeset must not
// change it, changing the operation's logical content must.
func (o *Operation) Signature() string {
	switch o.Kind {
	case KindAddColumn:
		return fmt.Sprintf("AddColumn(%s.%s %s)", o.Table, o.Column, o.Spec.String())
	case KindRemoveColumn:
		return fmt.Sprintf("RemoveColumn(%s.%s)", o.Table, o.Column)
	case KindAlterColumn:
		return fmt.Sprintf("AlterColumn(%s.%s %s)", o.Table, o.Column, o.Spec.String())
	case KindRenameColumn:
		return fmt.Sprintf("RenameColumn(%s.%s -> %s)", o.Table, o.Column, o.NewName)
	case KindRenameTable:
		return fmt.Sprintf("RenameTable(%s -> %s)", o.Table, o.NewName)
	case KindAddIndex:
		attrs := ""
		if o.Unique {
			attrs += " unique"
		}
		if o.Concurrent {
			attrs += " concurrent"
		}
		return fmt.Sprintf("AddIndex(%s.%s[%s]%s)", o.Table, o.IndexName, strings.Join(o.IndexColumns, ","), attrs)
	case KindRemoveIndex:
		return fmt.Sprintf("RemoveIndex(%s.%s)", o.Table, o.IndexName)
	case KindAddConstraint:
		return fmt.Sprintf("AddConstraint(%s.%s %s)", o.Table, o.ConstraintName, o.Constraint)
	case KindRunRawSQL:
		return fmt.Sprintf("RunRawSQL(%s)", truncateSQL(o.SQL))
	case KindRunDataCallback:
		if o.CallbackName != "" {
			return fmt.Sprintf("RunDataCallback(%s)", o.CallbackName)
		}
		return fmt.Sprintf("RunDataCallback(%s)", truncateSQL(o.CallbackBody))
	case KindCreateTable:
		names := make([]string, len(o.Columns))
		for i, c := range o.Columns {
			names[i] = c.Name
		}
		return fmt.Sprintf("CreateTable(%s[%s])", o.Table, strings.Join(names, ","))
	case KindDeleteTable:
		return fmt.Sprintf("DeleteTable(%s)", o.Table)
	default:
		return fmt.Sprintf("Unknown(%s)", o.RawOp)
	}
}

// truncateSQL collapses whitespace and bounds the text so signatures
// stay readable while still tracking content changes. The cut lands on
// a rune boundary: signatures are persisted as JSON, and invalid UTF-8
// would be rewritten on save, breaking identity matching.
func truncateSQL(s string) string {
	norm := strings.Join(strings.Fields(s), " ")
	if len(norm) > 60 {
		cut := 60
		for cut > 0 && !utf8.RuneStart(norm[cut]) {
			cut--
		}
		return fmt.Sprintf("%s... len=%d", norm[:cut], len(norm))
	}
	return norm
}
