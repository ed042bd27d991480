package ir

import "fmt"

// Module is a linked compilation unit: globals plus functions, sharing one
// type context and data layout.
type Module struct {
	ctx   *Context
	dl    *DataLayout
	nulls map[*PointerType]*ConstNull

	Globals []*Global
	Funcs   []*Function
}

func NewModule() *Module {
	return &Module{
		ctx:   NewContext(),
		dl:    NewDataLayout(),
		nulls: make(map[*PointerType]*ConstNull),
	}
}

func (m *Module) Context() *Context       { return m.ctx }
func (m *Module) DataLayout() *DataLayout { return m.dl }

func (m *Module) NewGlobal(name string, elem Type, init Value) *Global {
	g := &Global{name: name, typ: m.ctx.Pointer(elem), Init: init}
	m.Globals = append(m.Globals, g)
	return g
}

func (m *Module) newFunction(name string, sig *FuncType, defined bool, paramNames []string) *Function {
	f := &Function{
		name:    name,
		sig:     sig,
		typ:     m.ctx.Pointer(sig),
		defined: defined,
	}

	for i, pt := range sig.Params {
		pname := fmt.Sprintf("arg%d", i)
		if i < len(paramNames) {
			pname = paramNames[i]
		}
		f.Params = append(f.Params, &Param{name: pname, typ: pt})
	}

	m.Funcs = append(m.Funcs, f)
	return f
}

// NewFunction adds a defined function to the module.
func (m *Module) NewFunction(name string, sig *FuncType, paramNames ...string) *Function {
	return m.newFunction(name, sig, true, paramNames)
}

// DeclareFunction adds a function declaration (no body) to the module.
func (m *Module) DeclareFunction(name string, sig *FuncType) *Function {
	return m.newFunction(name, sig, false, nil)
}

// Null returns the null pointer constant of the given pointer type. There
// is one distinct null value per pointer type.
func (m *Module) Null(t *PointerType) *ConstNull {
	if c, found := m.nulls[t]; found {
		return c
	}
	c := &ConstNull{typ: t}
	m.nulls[t] = c
	return c
}

// Int returns an integer constant.
func (m *Module) Int(bits, v int64) *ConstInt {
	return &ConstInt{typ: m.ctx.Int(bits), V: v}
}

// ConstBitCast wraps v in a constant bitcast to t.
func (m *Module) ConstBitCast(v Value, t Type) *ConstExpr {
	return &ConstExpr{typ: t, X: v}
}

// ConstGEP builds a constant getelementptr expression. It is a free-standing
// GEP value; it may be used as a global initializer or operand.
func (m *Module) ConstGEP(base Value, indices ...int64) *GEP {
	ops := make([]Value, len(indices))
	for i, ix := range indices {
		ops[i] = m.Int(64, ix)
	}
	g := &GEP{Base: base, Indices: ops}
	g.typ = m.gepResultType(base, ops)
	return g
}

// NewAggregate builds a struct or array initializer of type t.
func (m *Module) NewAggregate(t Type, elems ...Value) *Aggregate {
	return &Aggregate{typ: t, Elems: elems}
}

func (m *Module) gepResultType(base Value, indices []Value) Type {
	cur := base.Type()
	for i, ix := range indices {
		switch t := cur.(type) {
		case *PointerType:
			cur = t.Elem
		case *ArrayType:
			cur = t.Elem
		case *StructType:
			ci, ok := ElimConstExpr(ix).(*ConstInt)
			if !ok || ci.V < 0 || int(ci.V) >= len(t.Fields) {
				panic(fmt.Errorf("gep: bad struct index %v at position %d", ix, i))
			}
			cur = t.Fields[ci.V]
		default:
			panic(fmt.Errorf("gep: cannot index into %v", cur))
		}
	}
	return m.ctx.Pointer(cur)
}

// Function body builders. Each appends an instruction in source order and
// returns the produced value, if any.

func (f *Function) append(i Instruction) { f.Instrs = append(f.Instrs, i) }

func (m *Module) Alloca(f *Function, name string, elem Type) *Alloca {
	a := &Alloca{Elem: elem}
	a.name, a.typ = name, m.ctx.Pointer(elem)
	f.append(a)
	return a
}

// AllocaN reserves storage for a dynamic number of elements.
func (m *Module) AllocaN(f *Function, name string, elem Type, count Value) *Alloca {
	a := m.Alloca(f, name, elem)
	a.Count = count
	return a
}

func (m *Module) Load(f *Function, name string, addr Value) *Load {
	pt, ok := addr.Type().(*PointerType)
	if !ok {
		panic(fmt.Errorf("load: address %v is not a pointer", addr))
	}
	l := &Load{Addr: addr}
	l.name, l.typ = name, pt.Elem
	f.append(l)
	return l
}

func (m *Module) Store(f *Function, val, addr Value) *Store {
	s := &Store{Val: val, Addr: addr}
	f.append(s)
	return s
}

func (m *Module) GEPInstr(f *Function, name string, base Value, indices ...int64) *GEP {
	g := m.ConstGEP(base, indices...)
	g.name = name
	f.append(g)
	return g
}

func (m *Module) BitCast(f *Function, name string, x Value, t Type) *BitCast {
	b := &BitCast{X: x}
	b.name, b.typ = name, t
	f.append(b)
	return b
}

func (m *Module) Phi(f *Function, name string, t Type, edges ...Value) *Phi {
	p := &Phi{Edges: edges}
	p.name, p.typ = name, t
	f.append(p)
	return p
}

// Call emits a direct call to callee.
func (m *Module) Call(f *Function, name string, callee *Function, args ...Value) *Call {
	return m.CallIndirect(f, name, callee, callee.Signature(), args...)
}

// CallIndirect emits a call through an arbitrary callee value with the
// given prototype.
func (m *Module) CallIndirect(f *Function, name string, callee Value, sig *FuncType, args ...Value) *Call {
	c := &Call{Callee: callee, Sig: sig, Args: args}
	c.name, c.typ = name, sig.Ret
	f.append(c)
	return c
}

func (m *Module) Ret(f *Function, val Value) *Ret {
	r := &Ret{Val: val, Parent: f}
	f.append(r)
	return r
}
