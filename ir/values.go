package ir

import "fmt"

// Value is the identity of an IR value. Equality is reference identity;
// values are hashable and usable as map keys.
type Value interface {
	Name() string
	Type() Type
}

// Instruction is implemented by everything that can appear in a function
// body. Value-producing instructions additionally implement Value.
type Instruction interface {
	isInstruction()
}

type itag struct{}

func (itag) isInstruction() {}

// Global names a module-level storage location. Its type is a pointer to
// the stored element; the value itself denotes the location.
type Global struct {
	name string
	typ  *PointerType

	// Init is the optional initializer. Its type is the element type.
	Init Value
}

func (g *Global) Name() string { return g.name }
func (g *Global) Type() Type   { return g.typ }
func (g *Global) Elem() Type   { return g.typ.Elem }

func (g *Global) String() string { return "@" + g.name }

// Function is a function symbol. Like a global it denotes a location; its
// type is a pointer to its signature.
type Function struct {
	name string
	sig  *FuncType
	typ  *PointerType

	Params []*Param
	Instrs []Instruction

	defined bool
}

func (f *Function) Name() string        { return f.name }
func (f *Function) Type() Type          { return f.typ }
func (f *Function) Signature() *FuncType { return f.sig }
func (f *Function) IsDeclaration() bool { return !f.defined }

func (f *Function) String() string { return "@" + f.name }

type Param struct {
	name string
	typ  Type
}

func (p *Param) Name() string { return p.name }
func (p *Param) Type() Type   { return p.typ }

// ConstNull is the null pointer constant of a given pointer type.
type ConstNull struct {
	typ *PointerType
}

func (c *ConstNull) Name() string { return "null" }
func (c *ConstNull) Type() Type   { return c.typ }

type ConstInt struct {
	typ *IntType
	V   int64
}

func (c *ConstInt) Name() string { return fmt.Sprint(c.V) }
func (c *ConstInt) Type() Type   { return c.typ }

// ConstExpr wraps a value in a constant-expression shell, e.g. a constant
// bitcast of a global. ElimConstExpr strips the shells.
type ConstExpr struct {
	typ Type
	X   Value
}

func (c *ConstExpr) Name() string { return c.X.Name() }
func (c *ConstExpr) Type() Type   { return c.typ }

// Aggregate is a struct or array initializer.
type Aggregate struct {
	typ   Type
	Elems []Value
}

func (a *Aggregate) Name() string { return "aggregate" }
func (a *Aggregate) Type() Type   { return a.typ }

// register is embedded by value-producing instructions.
type register struct {
	itag
	name string
	typ  Type
}

func (r *register) Name() string { return r.name }
func (r *register) Type() Type   { return r.typ }

// Alloca reserves stack storage for one (or, with a Count operand, several)
// objects of the element type. The value denotes the slot.
type Alloca struct {
	register
	Elem  Type
	Count Value
}

func (a *Alloca) IsArrayAllocation() bool { return a.Count != nil }

type Load struct {
	register
	Addr Value
}

type Store struct {
	itag
	Val  Value
	Addr Value
}

type GEP struct {
	register
	Base    Value
	Indices []Value
}

type BitCast struct {
	register
	X Value
}

type Phi struct {
	register
	Edges []Value
}

// Call invokes Callee with Args. Sig is the callee prototype; it is set for
// direct and indirect calls alike. Asm marks inline machine code.
type Call struct {
	register
	Callee Value
	Sig    *FuncType
	Args   []Value
	Asm    bool
}

// CalledFunction returns the statically known callee, or nil for an
// indirect call.
func (c *Call) CalledFunction() *Function {
	f, _ := ElimConstExpr(c.Callee).(*Function)
	return f
}

type Ret struct {
	itag
	Val    Value
	Parent *Function
}
