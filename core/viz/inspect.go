package viz

import (
	"fmt"
	"strings"

	"dataflow-debugger/core/store"
)

// Listing returns a human-readable enumeration of all registered datasets,
// one line per dataset, ordered by id.
func Listing(s *store.Store) string {
	datasets := s.Datasets()
	var b strings.Builder
	fmt.Fprintf(&b, "%d registered datasets\n", len(datasets))
	for _, ds := range datasets {
		if ds.Origin != "" {
			fmt.Fprintf(&b, "  %d: %s (%s)\n", ds.ID, ds.Type, ds.Origin)
		} else {
			fmt.Fprintf(&b, "  %d: %s\n", ds.ID, ds.Type)
		}
	}
	return b.String()
}
