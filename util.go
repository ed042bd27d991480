package pointsto

import (
	"strconv"

	"github.com/kalmera/pointsto/ir"
)

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

// lessPointer orders pointers by printed value name, then offset.
func lessPointer(a, b Pointer) bool {
	an, bn := valueString(a.Value), valueString(b.Value)
	if an != bn {
		return an < bn
	}
	return a.Off < b.Off
}

// valueString formats a value the way IR dumps do: globals and functions
// with an @ sigil, null constants as "null", everything else as a local
// register.
func valueString(v ir.Value) string {
	switch v.(type) {
	case *ir.Global, *ir.Function:
		return "@" + v.Name()
	case *ir.ConstNull:
		return "null"
	default:
		return "%" + v.Name()
	}
}
