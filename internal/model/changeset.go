package model

// Ref names a changeset by scope and name.
type Ref struct {
	Scope string `yaml:"scope" json:"scope"`
	Name  string `yaml:"name" json:"name"`
}

func (r Ref) String() string {
	return r.Scope + "/" + r.Name
}

// Changeset is one unit of schema change: an ordered operation list
// with a scope, a unique name, dependency references, and optional
// "replaces" references for squash changesets that supersede earlier
// ones.
type Changeset struct {
	Scope        string
	Name         string
	Dependencies []Ref
	Replaces     []Ref
	Operations   []*Operation

	// Atomic says whether the changeset applies inside one
	// transaction. Defaults to true; concurrent index builds and enum
	// value additions need it off.
	Atomic bool

	// FilePath is advisory location metadata set by the changeset
	// source; empty when the source does not know it.
	FilePath string
}

// Ref returns the changeset's own reference.
func (c *Changeset) Ref() Ref {
	return Ref{Scope: c.Scope, Name: c.Name}
}
