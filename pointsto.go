package pointsto

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/kalmera/pointsto/ir"
)

// Pointer is a key of the points-to relation: a value plus a byte offset
// into the object it denotes. Offset -1 stands for the variable itself,
// offsets >= 0 select a field or element of the object.
type Pointer struct {
	Value ir.Value
	Off   int64
}

// Pointee is the right-hand side of the relation. It shares the Pointer
// representation; the two are distinguished purely by position.
type Pointee = Pointer

func ptr(v ir.Value, off int64) Pointer { return Pointer{Value: v, Off: off} }

func (p Pointer) String() string {
	s := valueString(p.Value)
	if p.Off >= 0 {
		s += " + " + itoa(p.Off)
	}
	return s
}

// PointeeSet is an unordered, duplicate-free set of pointees.
type PointeeSet map[Pointee]struct{}

func (s PointeeSet) insert(p Pointee) bool {
	if _, found := s[p]; found {
		return false
	}
	s[p] = struct{}{}
	return true
}

func (s PointeeSet) Contains(p Pointee) bool {
	_, found := s[p]
	return found
}

// Sorted returns the pointees in a stable order for printing and testing.
func (s PointeeSet) Sorted() []Pointee {
	r := make([]Pointee, 0, len(s))
	for p := range s {
		r = append(r, p)
	}
	slices.SortFunc(r, lessPointer)
	return r
}

func (s PointeeSet) items() []Pointee {
	r := make([]Pointee, 0, len(s))
	for p := range s {
		r = append(r, p)
	}
	return r
}

// PointsToSets is the mutable relation computed by the solver. It grows
// monotonically during the fixpoint and is read-only afterwards.
type PointsToSets map[Pointer]PointeeSet

// get returns the set stored under p, default-constructing an empty set on
// first access.
func (s PointsToSets) get(p Pointer) PointeeSet {
	set, found := s[p]
	if !found {
		set = PointeeSet{}
		s[p] = set
	}
	return set
}

var emptySet = PointeeSet{}

// Lookup returns the points-to set recorded for (v, off). A miss returns a
// shared empty set and logs one warning naming the value; it is never
// fatal. The returned set is valid for the lifetime of the store.
func (s PointsToSets) Lookup(v ir.Value, off int64) PointeeSet {
	if set, found := s[ptr(v, off)]; found {
		return set
	}
	log.Warnf("[PointsTo] no points-to set has been found: %s", valueString(v))
	return emptySet
}
