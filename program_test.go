package pointsto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalmera/pointsto/ir"
)

func kinds(rules []RuleCode) []RuleKind {
	ks := make([]RuleKind, len(rules))
	for i, rc := range rules {
		ks[i] = rc.Kind
	}
	return ks
}

func TestInstructionRuleCodes(t *testing.T) {
	m := ir.NewModule()
	ctx := m.Context()
	i8 := ctx.Int(8)
	i8p := ctx.Pointer(i8)

	g := m.NewGlobal("g", i8, nil)

	f := m.NewFunction("f", ctx.Func(ctx.Void(), []ir.Type{i8p}, false), "x")
	slot := m.Alloca(f, "slot", i8p)
	reg := m.BitCast(f, "reg", f.Params[0], i8p)

	tests := []struct {
		name  string
		build func() ir.Instruction
		want  []RuleKind
	}{
		{"StoreGlobalToSlot", func() ir.Instruction {
			return m.Store(f, g, slot)
		}, []RuleKind{VarAsgnRefVar}},

		{"StoreRegToSlot", func() ir.Instruction {
			return m.Store(f, reg, slot)
		}, []RuleKind{VarAsgnVar}},

		{"StoreGlobalThroughReg", func() ir.Instruction {
			return m.Store(f, g, reg)
		}, []RuleKind{DrefVarAsgnRefVar}},

		{"StoreRegThroughReg", func() ir.Instruction {
			return m.Store(f, f.Params[0], reg)
		}, []RuleKind{DrefVarAsgnVar}},

		{"StoreNullToSlot", func() ir.Instruction {
			return m.Store(f, m.Null(i8p), slot)
		}, []RuleKind{VarAsgnNull}},

		{"StoreNullThroughReg", func() ir.Instruction {
			return m.Store(f, m.Null(i8p), reg)
		}, []RuleKind{DrefVarAsgnNull}},

		{"LoadFromSlot", func() ir.Instruction {
			return m.Load(f, "l1", slot)
		}, []RuleKind{VarAsgnVar}},

		{"LoadThroughReg", func() ir.Instruction {
			ptrSlot := m.Alloca(f, "ps", ctx.Pointer(i8p))
			addr := m.Load(f, "a1", ptrSlot)
			return m.Load(f, "l2", addr)
		}, []RuleKind{VarAsgnDrefVar}},

		{"Phi", func() ir.Instruction {
			return m.Phi(f, "p", i8p, g, reg, m.Null(i8p))
		}, []RuleKind{VarAsgnRefVar, VarAsgnVar, VarAsgnNull}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out []RuleCode
			i := tc.build()
			require.True(t, ir.IsPointerManipulation(i))
			instructionRuleCodes(i, &out)
			assert.Equal(t, tc.want, kinds(out))
		})
	}
}

func TestGlobalInitializerRules(t *testing.T) {
	m := ir.NewModule()
	ctx := m.Context()
	i8 := ctx.Int(8)
	i8p := ctx.Pointer(i8)

	a := m.NewGlobal("a", ctx.Array(4, i8), nil)
	fun := m.NewFunction("fun", ctx.Func(ctx.Void(), nil, false))

	m.NewGlobal("pnull", i8p, m.Null(i8p))
	m.NewGlobal("pa", i8p, a)
	m.NewGlobal("pgep", i8p, m.ConstGEP(a, 0, 2))

	st := ctx.Struct(ctx.Int(32), i8p, ctx.Pointer(fun.Signature()))
	m.NewGlobal("agg", st,
		m.NewAggregate(st, m.Int(32, 1), a, fun))

	p := NewProgramStructure(m)

	assert.Equal(t,
		[]RuleKind{VarAsgnNull, VarAsgnRefVar, VarAsgnGEP, VarAsgnRefVar, VarAsgnRefVar},
		kinds(p.Rules))

	// The aggregate's members are keyed on the global itself.
	last := p.Rules[len(p.Rules)-1]
	assert.Equal(t, "agg", last.Lvalue.Name())
	assert.Same(t, fun, last.Rvalue)
}

func TestGlobalConstGEPInit(t *testing.T) {
	m := ir.NewModule()
	ctx := m.Context()
	i8 := ctx.Int(8)

	a := m.NewGlobal("a", ctx.Array(8, i8), nil)
	pg := m.NewGlobal("pg", ctx.Pointer(i8), m.ConstGEP(a, 0, 2))

	res := Analyze(AnalysisConfig{Module: m})

	set := res.PointsTo(pg)
	require.Len(t, set, 1)
	assert.True(t, set.Contains(ptr(a, 2)),
		"constant gep initializer projects two bytes into @a, got %v", set.Sorted())
}
