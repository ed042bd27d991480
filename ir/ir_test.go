package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalmera/pointsto/ir"
)

func TestTypeInterning(t *testing.T) {
	ctx := ir.NewContext()

	i8 := ctx.Int(8)
	require.Same(t, i8, ctx.Int(8))
	require.Same(t, ctx.Pointer(i8), ctx.Pointer(ctx.Int(8)))
	require.Same(t,
		ctx.Struct(i8, ctx.Pointer(i8)),
		ctx.Struct(ctx.Int(8), ctx.Pointer(i8)))
	require.Same(t,
		ctx.Func(ctx.Pointer(i8), []ir.Type{ctx.Pointer(i8)}, false),
		ctx.Func(ctx.Pointer(i8), []ir.Type{ctx.Pointer(i8)}, false))

	assert.NotSame(t, ctx.Int(8), ctx.Int(16))
	assert.NotSame(t,
		ctx.Func(ctx.Void(), nil, false),
		ctx.Func(ctx.Void(), nil, true))
}

func TestTypeStrings(t *testing.T) {
	ctx := ir.NewContext()
	i8 := ctx.Int(8)

	assert.Equal(t, "i8*", ctx.Pointer(i8).String())
	assert.Equal(t, "{i32, i8*}", ctx.Struct(ctx.Int(32), ctx.Pointer(i8)).String())
	assert.Equal(t, "[100 x i8*]", ctx.Array(100, ctx.Pointer(i8)).String())
	assert.Equal(t, "i8* (i8*, ...)",
		ctx.Func(ctx.Pointer(i8), []ir.Type{ctx.Pointer(i8)}, true).String())
}

func TestDataLayout(t *testing.T) {
	ctx := ir.NewContext()
	dl := ir.NewDataLayout()

	t.Run("Sizes", func(t *testing.T) {
		assert.Equal(t, int64(1), dl.StoreSize(ctx.Int(1)))
		assert.Equal(t, int64(4), dl.StoreSize(ctx.Int(32)))
		assert.Equal(t, int64(8), dl.StoreSize(ctx.Pointer(ctx.Int(8))))
		assert.Equal(t, int64(40), dl.StoreSize(ctx.Array(10, ctx.Int(32))))
	})

	t.Run("StructOffsets", func(t *testing.T) {
		st := ctx.Struct(ctx.Int(32), ctx.Pointer(ctx.Int(8)))
		sl := dl.StructLayout(st)
		assert.Equal(t, []int64{0, 8}, sl.Offsets)
		assert.Equal(t, int64(16), sl.Size)
	})

	t.Run("Padding", func(t *testing.T) {
		st := ctx.Struct(ctx.Int(8), ctx.Int(32), ctx.Int(8))
		sl := dl.StructLayout(st)
		assert.Equal(t, []int64{0, 4, 8}, sl.Offsets)
		assert.Equal(t, int64(12), sl.Size)
	})
}

func TestPredicates(t *testing.T) {
	m := ir.NewModule()
	ctx := m.Context()
	i8 := ctx.Int(8)
	i8p := ctx.Pointer(i8)

	g := m.NewGlobal("g", i8, nil)
	f := m.NewFunction("f", ctx.Func(ctx.Void(), []ir.Type{i8p}, false), "x")
	a := m.Alloca(f, "a", i8p)
	l := m.Load(f, "l", a)

	t.Run("HasExtraReference", func(t *testing.T) {
		assert.True(t, ir.HasExtraReference(g))
		assert.True(t, ir.HasExtraReference(a))
		assert.True(t, ir.HasExtraReference(f))
		assert.False(t, ir.HasExtraReference(f.Params[0]))
		assert.False(t, ir.HasExtraReference(l))
	})

	t.Run("IsPointerValue", func(t *testing.T) {
		assert.True(t, ir.IsPointerValue(g), "a global denotes an address")
		assert.True(t, ir.IsPointerValue(l))
		assert.False(t, ir.IsPointerValue(m.Int(32, 1)))
	})

	t.Run("ElimConstExpr", func(t *testing.T) {
		wrapped := m.ConstBitCast(m.ConstBitCast(g, i8p), i8p)
		assert.Same(t, g, ir.ElimConstExpr(wrapped))
		assert.Same(t, l, ir.ElimConstExpr(l))
	})

	t.Run("MemoryManagement", func(t *testing.T) {
		malloc := m.DeclareFunction("malloc", ctx.Func(i8p, []ir.Type{ctx.Int(64)}, false))
		free := m.DeclareFunction("free", ctx.Func(ctx.Void(), []ir.Type{i8p}, false))

		assert.True(t, ir.IsMemoryAllocation(malloc))
		assert.False(t, ir.IsMemoryAllocation(free))
		assert.True(t, ir.MemoryManStuff(malloc))
		assert.True(t, ir.MemoryManStuff(free))
		assert.False(t, ir.MemoryManStuff(f))
	})

	t.Run("PointerManipulation", func(t *testing.T) {
		st := m.Store(f, g, a)
		assert.True(t, ir.IsPointerManipulation(st))
		assert.True(t, ir.IsPointerManipulation(l))

		intSlot := m.Alloca(f, "n", ctx.Int(32))
		intStore := m.Store(f, m.Int(32, 7), intSlot)
		assert.False(t, ir.IsPointerManipulation(intStore))
	})

	t.Run("GlobalPointerInitialization", func(t *testing.T) {
		gi := m.NewGlobal("gi", i8p, g)
		assert.True(t, ir.IsGlobalPointerInitialization(gi))

		plain := m.NewGlobal("plain", i8, nil)
		assert.False(t, ir.IsGlobalPointerInitialization(plain))

		st := ctx.Struct(ctx.Int(32), i8p)
		agg := m.NewGlobal("agg", st, m.NewAggregate(st, m.Int(32, 1), g))
		assert.True(t, ir.IsGlobalPointerInitialization(agg))
	})
}
