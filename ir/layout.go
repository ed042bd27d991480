package ir

// DataLayout answers size and struct-layout queries for a module.
// The layout follows the usual C rules on a 64-bit target: natural
// alignment capped at 8 bytes, struct fields padded to their alignment and
// the struct padded to the alignment of its widest field.
type DataLayout struct {
	PointerSize int64

	structs map[*StructType]*StructLayout
}

type StructLayout struct {
	Size    int64
	Offsets []int64
}

func NewDataLayout() *DataLayout {
	return &DataLayout{
		PointerSize: 8,
		structs:     make(map[*StructType]*StructLayout),
	}
}

// StructLayout returns the field offsets of st. Layouts are memoized per
// struct type; types are interned, so the map key is canonical.
func (dl *DataLayout) StructLayout(st *StructType) *StructLayout {
	if sl, found := dl.structs[st]; found {
		return sl
	}

	sl := &StructLayout{Offsets: make([]int64, len(st.Fields))}
	var off, maxAlign int64 = 0, 1
	for i, f := range st.Fields {
		a := dl.Alignment(f)
		if a > maxAlign {
			maxAlign = a
		}
		off = roundUp(off, a)
		sl.Offsets[i] = off
		off += dl.AllocSize(f)
	}
	sl.Size = roundUp(off, maxAlign)

	dl.structs[st] = sl
	return sl
}

// StoreSize returns the number of bytes written when a value of type t is
// stored to memory.
func (dl *DataLayout) StoreSize(t Type) int64 {
	switch t := t.(type) {
	case *IntType:
		return (t.Bits + 7) / 8
	case *PointerType:
		return dl.PointerSize
	case *ArrayType:
		return t.Len * dl.AllocSize(t.Elem)
	case *StructType:
		return dl.StructLayout(t).Size
	default:
		return 0
	}
}

// AllocSize returns the number of bytes an object of type t occupies,
// including alignment padding.
func (dl *DataLayout) AllocSize(t Type) int64 {
	return roundUp(dl.StoreSize(t), dl.Alignment(t))
}

func (dl *DataLayout) Alignment(t Type) int64 {
	switch t := t.(type) {
	case *IntType:
		a := (t.Bits + 7) / 8
		if a > 8 {
			return 8
		}
		if a == 0 {
			return 1
		}
		return a
	case *PointerType:
		return dl.PointerSize
	case *ArrayType:
		return dl.Alignment(t.Elem)
	case *StructType:
		var max int64 = 1
		for _, f := range t.Fields {
			if a := dl.Alignment(f); a > max {
				max = a
			}
		}
		return max
	default:
		return 1
	}
}

func roundUp(x, align int64) int64 {
	return (x + align - 1) / align * align
}
