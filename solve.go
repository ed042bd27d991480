package pointsto

import (
	log "github.com/sirupsen/logrus"

	"github.com/kalmera/pointsto/ir"
)

// applyRules dispatches one rule code to its transfer function and reports
// whether the store grew.
func applyRules(s PointsToSets, dl *ir.DataLayout, rc RuleCode) bool {
	lval, rval := rc.Lvalue, rc.Rvalue

	switch rc.Kind {
	case VarAsgnAlloc, VarAsgnNull, VarAsgnRefVar:
		return s.get(ptr(lval, -1)).insert(ptr(rval, 0))

	case VarAsgnVar:
		L := s.get(ptr(lval, -1))
		changed := false
		for _, q := range s.get(ptr(rval, -1)).items() {
			changed = L.insert(q) || changed
		}
		return changed

	case VarAsgnGEP:
		return applyGEPRule(s, dl, lval, rval)

	case VarAsgnDrefVar:
		return loadThrough(s, ptr(lval, -1), rval)

	case DrefVarAsgnNull, DrefVarAsgnRefVar:
		changed := false
		for _, p := range s.get(ptr(lval, -1)).items() {
			changed = s.get(p).insert(ptr(rval, 0)) || changed
		}
		return changed

	case DrefVarAsgnVar:
		R := s.get(ptr(rval, -1)).items()
		changed := false
		for _, p := range s.get(ptr(lval, -1)).items() {
			X := s.get(p)
			for _, q := range R {
				changed = X.insert(q) || changed
			}
		}
		return changed

	case DrefVarAsgnDrefVar:
		changed := false
		for _, p := range s.get(ptr(lval, -1)).items() {
			// The dereferenced write lands on the offset recorded on the
			// intermediate pointee, not on the variable itself.
			changed = loadThrough(s, p, rval) || changed
		}
		return changed

	case Dealloc:
		// Freed objects stay in the store; the analysis is monotone.
		return false

	default:
		log.Panicf("applyRules: unknown rule kind %d", rc.Kind)
		return false
	}
}

// loadThrough applies dst ∪= ⋃ { pts(p) | p ∈ pts(rval, -1) }.
func loadThrough(s PointsToSets, dst Pointer, rval ir.Value) bool {
	L := s.get(dst)
	changed := false
	for _, p := range s.get(ptr(rval, -1)).items() {
		for _, q := range s.get(p).items() {
			changed = L.insert(q) || changed
		}
	}
	return changed
}

// accumulateConstantOffset walks the type iterator of g and sums the byte
// offsets contributed by its constant indices. Non-constant indices
// contribute zero. isArray is set when a sequential step with a non-zero
// index occurs.
func accumulateConstantOffset(g *ir.GEP, dl *ir.DataLayout) (off int64, isArray bool) {
	cur := g.Base.Type()

	for _, idx := range g.Indices {
		ci, isConst := ir.ElimConstExpr(idx).(*ir.ConstInt)

		switch t := cur.(type) {
		case *ir.StructType:
			if !isConst || ci.V < 0 || int(ci.V) >= len(t.Fields) {
				return off, isArray
			}
			off += dl.StructLayout(t).Offsets[ci.V]
			cur = t.Fields[ci.V]
		case *ir.PointerType:
			if isConst && ci.V != 0 {
				off += ci.V * dl.StoreSize(t.Elem)
				isArray = true
			}
			cur = t.Elem
		case *ir.ArrayType:
			if isConst && ci.V != 0 {
				off += ci.V * dl.StoreSize(t.Elem)
				isArray = true
			}
			cur = t.Elem
		default:
			return off, isArray
		}
	}

	return off, isArray
}

// checkOffset rejects sums that fall outside the object Rval denotes, when
// its allocated size is known.
func checkOffset(dl *ir.DataLayout, rval ir.Value, sum int64) bool {
	switch v := rval.(type) {
	case *ir.Global:
		if v.Init != nil && sum >= dl.AllocSize(v.Init.Type()) {
			return false
		}
	case *ir.Alloca:
		if !v.IsArrayAllocation() && sum >= dl.AllocSize(v.Elem) {
			return false
		}
	}
	return true
}

// applyGEPRule is the field- and element-sensitive transfer for
// lval = gep(rval).
func applyGEPRule(s PointsToSets, dl *ir.DataLayout, lval, rval ir.Value) bool {
	g := ir.ElimConstExpr(rval).(*ir.GEP)
	L := s.get(ptr(lval, -1))
	oldSize := len(L)

	op := ir.ElimConstExpr(g.Base)
	off, isArray := accumulateConstantOffset(g, dl)

	clamp := func(sum int64) int64 {
		if sum < 0 {
			log.Debugf("applyGEPRule: negative offset %d on %s, cropping to 0",
				sum, valueString(op))
			sum = 0
		}
		if isArray && sum > 64 {
			sum = 64
		}
		return sum
	}

	if ir.HasExtraReference(op) {
		L.insert(ptr(op, clamp(off)))
	} else {
		for _, I := range s.get(ptr(op, -1)).items() {
			// Already-present pairs are skipped to keep recursive
			// structures from generating unbounded offset chains.
			if L.Contains(I) {
				continue
			}

			rv := I.Value
			if off != 0 && offsetlessValue(rv) {
				continue
			}

			sum := I.Off + off

			if !checkOffset(dl, rv, sum) {
				continue
			}

			sameCount := 0
			for q := range L {
				if q.Value == rv {
					if sameCount++; sameCount >= 5 {
						break
					}
				}
			}
			if sameCount >= 3 {
				log.Debugf("applyGEPRule: dropping gep over %s, multiplicity %d",
					valueString(rv), sameCount)
				continue
			}

			L.insert(ptr(rv, clamp(sum)))
		}
	}

	return len(L) != oldSize
}

// offsetlessValue reports whether offsets are meaningless over v: pointees
// for functions and null always stay at offset 0.
func offsetlessValue(v ir.Value) bool {
	switch v.(type) {
	case *ir.Function, *ir.ConstNull:
		return true
	}
	return false
}

// fixpoint iterates the rule sequence until a full pass produces no growth.
// Termination follows from monotonicity over a finite universe.
func fixpoint(p *ProgramStructure, s PointsToSets) PointsToSets {
	dl := p.Module().DataLayout()

	for {
		change := false
		for _, rc := range p.Rules {
			if applyRules(s, dl, rc) {
				change = true
			}
		}
		if !change {
			return s
		}
	}
}

// pruneByType removes every key whose underlying value is a function.
// Pruning pointee values by type as well is tempting but wrong: it ignores
// bitcasts and deletes far too much.
func pruneByType(s PointsToSets) PointsToSets {
	for key := range s {
		if _, isFun := key.Value.(*ir.Function); isFun {
			delete(s, key)
		}
	}
	return s
}

// ComputePointsToSets runs the fixpoint over p and finalises s.
func ComputePointsToSets(p *ProgramStructure, s PointsToSets) PointsToSets {
	return pruneByType(fixpoint(p, s))
}
