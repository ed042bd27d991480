package pointsto

import (
	"fmt"

	"github.com/kalmera/pointsto/ir"
)

// RuleKind enumerates the closed algebra of abstract pointer assignments.
// The solver has exactly one transfer function per kind.
type RuleKind int

const (
	VarAsgnAlloc RuleKind = iota
	VarAsgnNull
	VarAsgnVar
	VarAsgnGEP
	VarAsgnRefVar
	VarAsgnDrefVar
	DrefVarAsgnNull
	DrefVarAsgnVar
	DrefVarAsgnRefVar
	DrefVarAsgnDrefVar
	Dealloc
)

var ruleFormats = map[RuleKind]string{
	VarAsgnAlloc:       "%s = alloc %s",
	VarAsgnNull:        "%s = null",
	VarAsgnVar:         "%s = %s",
	VarAsgnGEP:         "%s = gep %s",
	VarAsgnRefVar:      "%s = &%s",
	VarAsgnDrefVar:     "%s = *%s",
	DrefVarAsgnNull:    "*%s = null",
	DrefVarAsgnVar:     "*%s = %s",
	DrefVarAsgnRefVar:  "*%s = &%s",
	DrefVarAsgnDrefVar: "*%s = *%s",
}

// RuleCode is one abstract assignment: a kind tag plus the one or two
// values it mentions. For VarAsgnGEP the rvalue reaches the original GEP
// instruction so the solver can accumulate its constant offset.
type RuleCode struct {
	Kind   RuleKind
	Lvalue ir.Value
	Rvalue ir.Value
}

func (rc RuleCode) String() string {
	if rc.Kind == Dealloc {
		return "dealloc " + valueString(rc.Rvalue)
	}
	return fmt.Sprintf(ruleFormats[rc.Kind],
		valueString(rc.Lvalue), valueString(rc.Rvalue))
}
