package partition

import (
	"math"

	"github.com/pkg/errors"
)

// ValueIndex maps identifiers to the position they had in the construction
// sequence. It is immutable once built.
type ValueIndex struct {
	positions map[int32]int32
}

func NewValueIndex(values []int32) (*ValueIndex, error) {
	if len(values) > math.MaxInt32 {
		return nil, errors.Wrapf(ErrAllocationFailure,
			"%d identifiers exceed the %d positions limit", len(values), math.MaxInt32)
	}
	idx := &ValueIndex{
		positions: make(map[int32]int32, len(values)),
	}
	for i, v := range values {
		if prev, ok := idx.positions[v]; ok {
			return nil, errors.Wrapf(ErrDuplicateIdentifier,
				"%d at positions %d and %d", v, prev, i)
		}
		idx.positions[v] = int32(i)
	}
	return idx, nil
}

func (idx *ValueIndex) Len() int {
	return len(idx.positions)
}

func (idx *ValueIndex) Contains(id int32) bool {
	_, ok := idx.positions[id]
	return ok
}

// Position returns the construction position of id.
func (idx *ValueIndex) Position(id int32) (int, error) {
	pos, ok := idx.positions[id]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownIdentifier, "%d", id)
	}
	return int(pos), nil
}
