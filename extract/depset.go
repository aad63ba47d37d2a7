package extract

import (
	"slices"
	"strings"
)

// DepSet is a sorted set of reactive names read by an expression.
type DepSet struct {
	names []string
}

func NewDepSet(names ...string) DepSet {
	var d DepSet
	for _, n := range names {
		d.add(n)
	}
	return d
}

func (d *DepSet) add(name string) {
	i, found := slices.BinarySearch(d.names, name)
	if !found {
		d.names = slices.Insert(d.names, i, name)
	}
}

func (d DepSet) Has(name string) bool {
	_, found := slices.BinarySearch(d.names, name)
	return found
}

func (d DepSet) Names() []string {
	return slices.Clone(d.names)
}

func (d DepSet) Len() int { return len(d.names) }

func (d DepSet) Empty() bool { return len(d.names) == 0 }

func (d DepSet) Union(o DepSet) DepSet {
	out := DepSet{names: slices.Clone(d.names)}
	for _, n := range o.names {
		out.add(n)
	}
	return out
}

func (d DepSet) String() string {
	return "{" + strings.Join(d.names, ", ") + "}"
}
