// Package partition groups record identifiers into equivalence classes.
//
// A Partition is built once from the full identifier universe and then
// mutated by merging pairs of identifiers, one at a time or from an edge file.
// Lookups compress paths as a side effect, so a Partition must not be shared
// between goroutines without external locking.
package partition

import (
	"cmp"
	"slices"
)

type Partition struct {
	values []int32
	index  *ValueIndex
	uf     *UnionFind
}

// New builds a partition where every identifier is alone in its class.
// Identifiers must be unique.
func New(values []int32) (*Partition, error) {
	index, err := NewValueIndex(values)
	if err != nil {
		return nil, err
	}
	return &Partition{
		values: slices.Clone(values),
		index:  index,
		uf:     NewUnionFind(len(values)),
	}, nil
}

// Close releases the partition storage. Value lookups on a closed partition
// fail with ErrUnknownIdentifier.
func (p *Partition) Close() {
	p.values = nil
	p.index = &ValueIndex{}
	p.uf = NewUnionFind(0)
}

// Len returns the number of identifiers.
func (p *Partition) Len() int {
	return len(p.values)
}

// Count returns the number of classes.
func (p *Partition) Count() int {
	return p.uf.Roots()
}

// Values returns a copy of the identifiers in construction order.
func (p *Partition) Values() []int32 {
	return slices.Clone(p.values)
}

// Find returns the root position of the class holding position pos.
func (p *Partition) Find(pos int) int {
	return p.uf.Find(pos)
}

// FindByValue returns the root position of the class holding id.
func (p *Partition) FindByValue(id int32) (int, error) {
	pos, err := p.index.Position(id)
	if err != nil {
		return 0, err
	}
	return p.uf.Find(pos), nil
}

// Merge puts a and b in the same class. Nothing changes if either identifier
// is unknown.
func (p *Partition) Merge(a, b int32) error {
	_, err := p.merge(a, b)
	return err
}

func (p *Partition) merge(a, b int32) (bool, error) {
	pa, err := p.index.Position(a)
	if err != nil {
		return false, err
	}
	pb, err := p.index.Position(b)
	if err != nil {
		return false, err
	}
	return p.uf.Merge(pa, pb), nil
}

// Representative returns the identifier at the root of id's class.
func (p *Partition) Representative(id int32) (int32, error) {
	root, err := p.FindByValue(id)
	if err != nil {
		return 0, err
	}
	return p.values[root], nil
}

// Group returns the sorted members of id's class.
func (p *Partition) Group(id int32) ([]int32, error) {
	root, err := p.FindByValue(id)
	if err != nil {
		return nil, err
	}
	group := []int32{}
	for i, v := range p.values {
		if p.uf.Find(i) == root {
			group = append(group, v)
		}
	}
	slices.Sort(group)
	return group, nil
}

// SetSizes maps each class representative to the class size.
func (p *Partition) SetSizes() map[int32]int {
	sizes := make(map[int32]int, p.uf.Roots())
	for i := range p.values {
		sizes[p.values[p.uf.Find(i)]]++
	}
	return sizes
}

// Sets returns every class with sorted members. Larger classes come first,
// ties are ordered by smallest member.
func (p *Partition) Sets() [][]int32 {
	byRoot := make(map[int][]int32, p.uf.Roots())
	for i, v := range p.values {
		root := p.uf.Find(i)
		byRoot[root] = append(byRoot[root], v)
	}
	sets := make([][]int32, 0, len(byRoot))
	for _, set := range byRoot {
		slices.Sort(set)
		sets = append(sets, set)
	}
	slices.SortFunc(sets, func(a, b []int32) int {
		if len(a) != len(b) {
			return cmp.Compare(len(b), len(a))
		}
		return cmp.Compare(a[0], b[0])
	})
	return sets
}
