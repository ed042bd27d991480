package pointsto

import (
	log "github.com/sirupsen/logrus"

	"github.com/kalmera/pointsto/ir"
)

// ProgramStructure is the flat, append-only rule-code sequence extracted
// from a module. Order follows source order; the fixpoint result does not
// depend on it, but determinism of intermediate states does.
type ProgramStructure struct {
	mod   *ir.Module
	Rules []RuleCode
}

func (p *ProgramStructure) Module() *ir.Module { return p.mod }

// NewProgramStructure translates m into rule codes: global pointer
// initializers first, then every instruction of every function in source
// order. Call and return instructions are resolved through the call maps;
// everything else goes through the pointer-manipulation translator.
func NewProgramStructure(m *ir.Module) *ProgramStructure {
	p := &ProgramStructure{mod: m}

	for _, g := range m.Globals {
		if ir.IsGlobalPointerInitialization(g) {
			globalRuleCodes(g, g.Init, &p.Rules)
		}
	}

	cms := buildCallMaps(m)

	for _, f := range m.Funcs {
		for _, i := range f.Instrs {
			if ir.IsPointerManipulation(i) {
				instructionRuleCodes(i, &p.Rules)
			} else if c, ok := i.(*ir.Call); ok {
				if !ir.IsInlineAssembly(c) {
					cms.collectCallRuleCodes(c, &p.Rules)
				}
			} else if r, ok := i.(*ir.Ret); ok {
				cms.collectReturnRuleCodes(r, &p.Rules)
			}
		}
	}

	return p
}

// DumpRules logs the extracted rule sequence on the debug channel.
func (p *ProgramStructure) DumpRules() {
	for _, rc := range p.Rules {
		log.Debugf("rule: %v", rc)
	}
}

// copyRuleCode picks the assignment form for a value copy l = r, where r
// has already been stripped of constant expressions.
func copyRuleCode(l, r ir.Value) RuleCode {
	if _, isNull := r.(*ir.ConstNull); isNull {
		return RuleCode{Kind: VarAsgnNull, Lvalue: l, Rvalue: r}
	}
	if ir.HasExtraReference(r) {
		return RuleCode{Kind: VarAsgnRefVar, Lvalue: l, Rvalue: r}
	}
	return RuleCode{Kind: VarAsgnVar, Lvalue: l, Rvalue: r}
}

// instructionRuleCodes translates one pointer manipulation.
func instructionRuleCodes(i ir.Instruction, out *[]RuleCode) {
	switch i := i.(type) {
	case *ir.Store:
		val := ir.ElimConstExpr(i.Val)
		addr := ir.ElimConstExpr(i.Addr)

		if _, isNull := val.(*ir.ConstNull); isNull {
			if ir.HasExtraReference(addr) {
				*out = append(*out, RuleCode{Kind: VarAsgnNull, Lvalue: addr, Rvalue: val})
			} else {
				*out = append(*out, RuleCode{Kind: DrefVarAsgnNull, Lvalue: addr, Rvalue: val})
			}
			return
		}

		if ir.HasExtraReference(addr) {
			if ir.HasExtraReference(val) {
				*out = append(*out, RuleCode{Kind: VarAsgnRefVar, Lvalue: addr, Rvalue: val})
			} else {
				*out = append(*out, RuleCode{Kind: VarAsgnVar, Lvalue: addr, Rvalue: val})
			}
		} else {
			if ir.HasExtraReference(val) {
				*out = append(*out, RuleCode{Kind: DrefVarAsgnRefVar, Lvalue: addr, Rvalue: val})
			} else {
				*out = append(*out, RuleCode{Kind: DrefVarAsgnVar, Lvalue: addr, Rvalue: val})
			}
		}

	case *ir.Load:
		addr := ir.ElimConstExpr(i.Addr)
		if ir.HasExtraReference(addr) {
			*out = append(*out, RuleCode{Kind: VarAsgnVar, Lvalue: i, Rvalue: addr})
		} else {
			*out = append(*out, RuleCode{Kind: VarAsgnDrefVar, Lvalue: i, Rvalue: addr})
		}

	case *ir.GEP:
		*out = append(*out, RuleCode{Kind: VarAsgnGEP, Lvalue: i, Rvalue: i})

	case *ir.BitCast:
		*out = append(*out, copyRuleCode(i, ir.ElimConstExpr(i.X)))

	case *ir.Phi:
		for _, e := range i.Edges {
			*out = append(*out, copyRuleCode(i, ir.ElimConstExpr(e)))
		}

	default:
		log.Panicf("instructionRuleCodes: unhandled pointer manipulation %T", i)
	}
}

// globalRuleCodes translates a global pointer initializer. Aggregate
// initializers are walked member-wise; each pointer member contributes a
// rule keyed on the global itself.
func globalRuleCodes(g *ir.Global, init ir.Value, out *[]RuleCode) {
	switch v := ir.ElimConstExpr(init).(type) {
	case *ir.ConstNull:
		*out = append(*out, RuleCode{Kind: VarAsgnNull, Lvalue: g, Rvalue: v})
	case *ir.Global, *ir.Function:
		*out = append(*out, RuleCode{Kind: VarAsgnRefVar, Lvalue: g, Rvalue: v})
	case *ir.GEP:
		*out = append(*out, RuleCode{Kind: VarAsgnGEP, Lvalue: g, Rvalue: v})
	case *ir.Aggregate:
		for _, e := range v.Elems {
			globalRuleCodes(g, e, out)
		}
	}
}
