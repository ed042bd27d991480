package pointsto

import (
	"fmt"
	"io"

	"golang.org/x/exp/slices"

	"github.com/kalmera/pointsto/ir"
)

type Result struct {
	// Sets is the finalised points-to relation.
	Sets PointsToSets

	// Program is the rule sequence the relation was computed from.
	Program *ProgramStructure
}

// PointsTo returns the points-to set of the variable itself.
func (r Result) PointsTo(v ir.Value) PointeeSet {
	return r.Sets.Lookup(v, -1)
}

// PointsToAt returns the points-to set of the given field projection of v.
func (r Result) PointsToAt(v ir.Value, off int64) PointeeSet {
	return r.Sets.Lookup(v, off)
}

// Dump writes the relation to w in a stable order.
func (r Result) Dump(w io.Writer) error {
	keys := make([]Pointer, 0, len(r.Sets))
	for key := range r.Sets {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, lessPointer)

	for _, key := range keys {
		if _, err := fmt.Fprintf(w, "%v -> %v\n", key, r.Sets[key].Sorted()); err != nil {
			return err
		}
	}
	return nil
}
