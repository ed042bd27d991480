package pointsto

import (
	log "github.com/sirupsen/logrus"

	"github.com/kalmera/pointsto/internal/multimap"
	"github.com/kalmera/pointsto/ir"
)

// callMaps resolves call and return instructions to rule codes. Two
// multimaps, both keyed by return type: fm holds candidate callees, cm
// holds call sites whose return value may flow from a matching return.
type callMaps struct {
	fm *multimap.MultiMap[ir.Type, *ir.Function]
	cm *multimap.MultiMap[ir.Type, *ir.Call]

	varargWarnings int
}

func buildCallMaps(m *ir.Module) *callMaps {
	cms := &callMaps{
		fm: multimap.New[ir.Type, *ir.Function](),
		cm: multimap.New[ir.Type, *ir.Call](),
	}

	for _, f := range m.Funcs {
		if !f.IsDeclaration() {
			cms.fm.Add(f.Signature().Ret, f)
		}

		for _, i := range f.Instrs {
			switch i := i.(type) {
			case *ir.Call:
				if !ir.IsInlineAssembly(i) && !ir.CallToMemoryManStuff(i) {
					cms.cm.Add(ir.CalleePrototype(i).Ret, i)
				}
			case *ir.Store:
				// A memory-manager function whose address is taken never
				// shows up as a defined function; record it here so
				// indirect calls can still resolve to it.
				r := i.Val
				if ir.HasExtraReference(r) && ir.MemoryManStuff(r) {
					fn := r.(*ir.Function)
					cms.fm.Add(fn.Signature().Ret, fn)
				}
			}
		}
	}

	return cms
}

// argPassRuleCode selects the assignment form that moves the actual r into
// the formal l (or a return value into a call site).
func argPassRuleCode(l, r ir.Value) RuleCode {
	if _, isNull := r.(*ir.ConstNull); isNull {
		return RuleCode{Kind: VarAsgnNull, Lvalue: l, Rvalue: r}
	}
	if ir.HasExtraReference(l) {
		if ir.HasExtraReference(r) {
			return RuleCode{Kind: VarAsgnVar, Lvalue: l, Rvalue: r}
		}
		return RuleCode{Kind: VarAsgnDrefVar, Lvalue: l, Rvalue: r}
	}
	if ir.HasExtraReference(r) {
		return RuleCode{Kind: VarAsgnRefVar, Lvalue: l, Rvalue: r}
	}
	return RuleCode{Kind: VarAsgnVar, Lvalue: l, Rvalue: r}
}

// compatibleTypes over-approximates assignability: casting lets any pointer
// be passed where another pointer is expected, so all pointer types
// conflate. Everything else must be identical.
func compatibleTypes(t1, t2 ir.Type) bool {
	if ir.IsPointerType(t1) && ir.IsPointerType(t2) {
		return true
	}
	return t1 == t2
}

func compatibleFunTypes(f1, f2 *ir.FuncType) bool {
	if !f1.Variadic && !f2.Variadic && len(f1.Params) != len(f2.Params) {
		return false
	}

	if !compatibleTypes(f1.Ret, f2.Ret) {
		return false
	}

	for i := 0; i < len(f1.Params) && i < len(f2.Params); i++ {
		if !compatibleTypes(f1.Params[i], f2.Params[i]) {
			return false
		}
	}

	return true
}

// collectCallRuleCodesFor emits the rules for call site c bound to callee f.
func (cms *callMaps) collectCallRuleCodesFor(c *ir.Call, f *ir.Function, out *[]RuleCode) {
	if ir.IsInlineAssembly(c) {
		panic("collectCallRuleCodes: inline assembly is not supported")
	}

	if ir.MemoryManStuff(f) && !ir.IsMemoryAllocation(f) {
		return
	}

	if ir.IsMemoryAllocation(f) {
		*out = append(*out, RuleCode{Kind: VarAsgnAlloc, Lvalue: c, Rvalue: c})
		return
	}

	i := 0
	for ; i < len(f.Params) && i < len(c.Args); i++ {
		if ir.IsPointerValue(f.Params[i]) {
			*out = append(*out, argPassRuleCode(f.Params[i], ir.ElimConstExpr(c.Args[i])))
		}
	}

	if i < len(c.Args) {
		if cms.varargWarnings < 3 {
			log.Warnf("collectCallRuleCodes: skipped some vararg arguments in '%s(%d, %d)'",
				f.Name(), i, len(c.Args))
		}
		cms.varargWarnings++
	}
}

// collectCallRuleCodes resolves c to its callees. A direct call binds to
// its target; an indirect call binds to every candidate whose function
// type is compatible with the callee prototype.
func (cms *callMaps) collectCallRuleCodes(c *ir.Call, out *[]RuleCode) {
	if f := c.CalledFunction(); f != nil {
		cms.collectCallRuleCodesFor(c, f, out)
		return
	}

	funTy := ir.CalleePrototype(c)
	for _, fun := range cms.fm.Get(funTy.Ret) {
		if compatibleFunTypes(funTy, fun.Signature()) {
			cms.collectCallRuleCodesFor(c, fun, out)
		}
	}
}

// collectReturnRuleCodes flows a pointer-typed return value into every call
// site that can observe it.
func (cms *callMaps) collectReturnRuleCodes(r *ir.Ret, out *[]RuleCode) {
	retVal := r.Val
	if retVal == nil || !ir.IsPointerValue(retVal) {
		return
	}

	f := r.Parent
	funTy := f.Signature()

	for _, ci := range cms.cm.Get(funTy.Ret) {
		if g := ci.CalledFunction(); g != nil {
			if f == g {
				*out = append(*out, argPassRuleCode(ci, retVal))
			}
		} else if compatibleFunTypes(funTy, ir.CalleePrototype(ci)) {
			*out = append(*out, argPassRuleCode(ci, retVal))
		}
	}
}
