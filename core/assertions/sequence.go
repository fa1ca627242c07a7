package assertions

import "context"

// Sequence is the lazy per-partition element stream contract: Next produces
// the next element, reports exhaustion, or fails. Once ok is false or err is
// non-nil the sequence is finished.
type Sequence[T any] interface {
	Next() (elem T, ok bool, err error)
}

// Dataset is the engine-side collaborator a decorator wraps: a partitioned
// collection identified by id, type tag, and origin, whose per-partition
// elements are produced lazily by Compute.
type Dataset[T any] interface {
	ID() int64
	TypeName() string
	Origin() string
	Compute(ctx context.Context, partition int) (Sequence[T], error)
}

// Predicate evaluates one element
type Predicate[T any] func(T) bool

// FromSlice adapts a slice into a Sequence, mainly for fixtures and tests
func FromSlice[T any](elems []T) Sequence[T] {
	return &sliceSeq[T]{elems: elems}
}

type sliceSeq[T any] struct {
	elems []T
	next  int
}

func (s *sliceSeq[T]) Next() (T, bool, error) {
	if s.next >= len(s.elems) {
		var zero T
		return zero, false, nil
	}
	elem := s.elems[s.next]
	s.next++
	return elem, true, nil
}
