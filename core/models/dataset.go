package models

// DependencyKind tags a lineage edge
type DependencyKind string

const (
	// DependencyNarrow means each output partition depends on a bounded set of
	// parent partitions; narrow-connected datasets fuse into one stage
	DependencyNarrow DependencyKind = "narrow"

	// DependencyWide means the edge crosses a shuffle boundary; its parent
	// belongs to a different stage
	DependencyWide DependencyKind = "wide"
)

// Dependency is one directed edge from a dataset to a parent dataset
type Dependency struct {
	Kind   DependencyKind
	Parent *Dataset
}

// Dataset is a node in the lineage graph: one immutable, partitioned
// collection produced by a step of the computation
type Dataset struct {
	ID     int64
	Type   string // type tag, e.g. "MappedDataset"
	Origin string // human-readable origin description (call site)
	Deps   []Dependency
}
