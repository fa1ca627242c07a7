// Package assertions builds validating decorators around a dataset's
// per-partition computation. The decorators run later, inside the engine's
// own execution of the partition, not during replay. They preserve the
// wrapped sequence's laziness, ordering, and element values exactly; the only
// state a decorator carries is a single boolean in the existential case, and
// each partition gets its own decorator instance, so concurrent partitions
// share nothing.
package assertions

import (
	"context"
	"errors"
	"fmt"
)

// Mode distinguishes the two decorator kinds
type Mode string

const (
	ModeForAll Mode = "forall"
	ModeExists Mode = "exists"
)

// Error is the deferred failure raised when a decorated partition violates
// its predicate during actual computation.
type Error struct {
	Mode        Mode
	DatasetType string
	DatasetID   int64
	Partition   int

	// Element is the offending element for a forall violation. An exists
	// violation has no offending element: nothing qualified.
	Element    any
	HasElement bool
}

func (e *Error) Error() string {
	if e.HasElement {
		return fmt.Sprintf("forall assertion failed on element %v of %s %d partition %d",
			e.Element, e.DatasetType, e.DatasetID, e.Partition)
	}
	return fmt.Sprintf("exists assertion failed: no qualifying element in %s %d partition %d",
		e.DatasetType, e.DatasetID, e.Partition)
}

// IsAssertion reports whether err is an assertion violation
func IsAssertion(err error) bool {
	var ae *Error
	return errors.As(err, &ae)
}

// ForAll returns a dataset that computes the same partitions as d but fails
// immediately on the first element for which pred is false.
func ForAll[T any](d Dataset[T], pred Predicate[T]) Dataset[T] {
	return &checkedDataset[T]{Dataset: d, mode: ModeForAll, pred: pred}
}

// Exists returns a dataset that computes the same partitions as d but fails
// at partition exhaustion unless at least one element satisfied pred.
func Exists[T any](d Dataset[T], pred Predicate[T]) Dataset[T] {
	return &checkedDataset[T]{Dataset: d, mode: ModeExists, pred: pred}
}

type checkedDataset[T any] struct {
	Dataset[T]
	mode Mode
	pred Predicate[T]
}

func (d *checkedDataset[T]) Compute(ctx context.Context, partition int) (Sequence[T], error) {
	src, err := d.Dataset.Compute(ctx, partition)
	if err != nil {
		return nil, err
	}
	switch d.mode {
	case ModeExists:
		return &existsSeq[T]{src: src, pred: d.pred, ds: d.Dataset, partition: partition}, nil
	default:
		return &forallSeq[T]{src: src, pred: d.pred, ds: d.Dataset, partition: partition}, nil
	}
}

type forallSeq[T any] struct {
	src       Sequence[T]
	pred      Predicate[T]
	ds        Dataset[T]
	partition int
}

func (s *forallSeq[T]) Next() (T, bool, error) {
	elem, ok, err := s.src.Next()
	if err != nil || !ok {
		return elem, ok, err
	}
	if !s.pred(elem) {
		var zero T
		return zero, false, &Error{
			Mode:        ModeForAll,
			DatasetType: s.ds.TypeName(),
			DatasetID:   s.ds.ID(),
			Partition:   s.partition,
			Element:     elem,
			HasElement:  true,
		}
	}
	return elem, true, nil
}

type existsSeq[T any] struct {
	src       Sequence[T]
	pred      Predicate[T]
	ds        Dataset[T]
	partition int
	found     bool
}

func (s *existsSeq[T]) Next() (T, bool, error) {
	elem, ok, err := s.src.Next()
	if err != nil {
		return elem, false, err
	}
	if ok {
		if !s.found && s.pred(elem) {
			s.found = true
		}
		return elem, true, nil
	}
	// The check can only run once the whole partition has been seen.
	if !s.found {
		var zero T
		return zero, false, &Error{
			Mode:        ModeExists,
			DatasetType: s.ds.TypeName(),
			DatasetID:   s.ds.ID(),
			Partition:   s.partition,
		}
	}
	return elem, false, nil
}
