package ir

import (
	"fmt"
	"strings"
)

// Types are interned through a Context: two structurally equal types built
// from the same Context are represented by the same pointer, so type
// equality is pointer equality everywhere in the analysis.
type Type interface {
	fmt.Stringer
	isType()
}

type ttag struct{}

func (ttag) isType() {}

type VoidType struct{ ttag }

func (VoidType) String() string { return "void" }

type IntType struct {
	ttag
	Bits int64
}

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

type PointerType struct {
	ttag
	Elem Type
}

func (t *PointerType) String() string { return t.Elem.String() + "*" }

type StructType struct {
	ttag
	Fields []Type
}

func (t *StructType) String() string {
	inner := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		inner[i] = f.String()
	}
	return "{" + strings.Join(inner, ", ") + "}"
}

type ArrayType struct {
	ttag
	Len  int64
	Elem Type
}

func (t *ArrayType) String() string {
	return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
}

type FuncType struct {
	ttag
	Ret      Type
	Params   []Type
	Variadic bool
}

func (t *FuncType) String() string {
	inner := make([]string, len(t.Params))
	for i, p := range t.Params {
		inner[i] = p.String()
	}
	if t.Variadic {
		inner = append(inner, "...")
	}
	return fmt.Sprintf("%s (%s)", t.Ret, strings.Join(inner, ", "))
}

// Context owns the canonical representation of every type used by a module.
type Context struct {
	types map[string]Type
	void  *VoidType
}

func NewContext() *Context {
	return &Context{types: make(map[string]Type), void: &VoidType{}}
}

func (c *Context) intern(t Type) Type {
	key := t.String()
	if old, found := c.types[key]; found {
		return old
	}
	c.types[key] = t
	return t
}

func (c *Context) Void() *VoidType { return c.void }

func (c *Context) Int(bits int64) *IntType {
	return c.intern(&IntType{Bits: bits}).(*IntType)
}

func (c *Context) Pointer(elem Type) *PointerType {
	return c.intern(&PointerType{Elem: elem}).(*PointerType)
}

func (c *Context) Struct(fields ...Type) *StructType {
	return c.intern(&StructType{Fields: fields}).(*StructType)
}

func (c *Context) Array(n int64, elem Type) *ArrayType {
	return c.intern(&ArrayType{Len: n, Elem: elem}).(*ArrayType)
}

func (c *Context) Func(ret Type, params []Type, variadic bool) *FuncType {
	return c.intern(&FuncType{Ret: ret, Params: params, Variadic: variadic}).(*FuncType)
}

// IsPointerType reports whether t is a pointer type.
func IsPointerType(t Type) bool {
	_, ok := t.(*PointerType)
	return ok
}
