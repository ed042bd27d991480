package ir

// Classification predicates over IR values and instructions. These are the
// queries the points-to analysis asks of its input; they are kept here so
// the analysis itself never inspects instruction internals beyond operands.

// IsPointerValue reports whether v carries a pointer at runtime.
func IsPointerValue(v Value) bool {
	return v != nil && IsPointerType(v.Type())
}

// HasExtraReference reports whether v names a storage location (a global, a
// stack slot, or a function symbol) rather than carrying a pointer value.
func HasExtraReference(v Value) bool {
	switch v.(type) {
	case *Global, *Alloca, *Function:
		return true
	}
	return false
}

// ElimConstExpr strips constant-expression shells from v.
func ElimConstExpr(v Value) Value {
	for {
		ce, ok := v.(*ConstExpr)
		if !ok {
			return v
		}
		v = ce.X
	}
}

// IsMemoryAllocation reports whether v is an allocator function.
func IsMemoryAllocation(v Value) bool {
	f, ok := v.(*Function)
	if !ok {
		return false
	}
	switch f.Name() {
	case "malloc", "calloc", "realloc":
		return true
	}
	return false
}

// MemoryManStuff reports whether v is any memory-management function.
func MemoryManStuff(v Value) bool {
	if IsMemoryAllocation(v) {
		return true
	}
	f, ok := v.(*Function)
	return ok && f.Name() == "free"
}

// CallToMemoryManStuff reports whether c directly calls a memory-management
// function.
func CallToMemoryManStuff(c *Call) bool {
	f := c.CalledFunction()
	return f != nil && MemoryManStuff(f)
}

// IsInlineAssembly reports whether c is an inline machine-code block.
func IsInlineAssembly(c *Call) bool { return c.Asm }

// CalleePrototype returns the function type of the call target.
func CalleePrototype(c *Call) *FuncType { return c.Sig }

// IsPointerManipulation reports whether i moves a pointer between
// locations. Calls and returns are excluded; they are resolved through the
// call maps.
func IsPointerManipulation(i Instruction) bool {
	switch i := i.(type) {
	case *Store:
		return IsPointerValue(ElimConstExpr(i.Val))
	case *Load:
		return IsPointerValue(i)
	case *GEP:
		return true
	case *BitCast:
		return IsPointerValue(i) && IsPointerValue(ElimConstExpr(i.X))
	case *Phi:
		return IsPointerValue(i)
	}
	return false
}

// IsGlobalPointerInitialization reports whether g has an initializer the
// analysis must translate: a pointer stored into g or into one of its
// aggregate members.
func IsGlobalPointerInitialization(g *Global) bool {
	return g.Init != nil && pointerRelevantInit(g.Init)
}

func pointerRelevantInit(init Value) bool {
	switch init := ElimConstExpr(init).(type) {
	case *ConstNull, *Global, *Function, *GEP:
		return true
	case *Aggregate:
		for _, e := range init.Elems {
			if pointerRelevantInit(e) {
				return true
			}
		}
	}
	return false
}
