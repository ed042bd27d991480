package irload

import (
	"fmt"
	"strings"

	"github.com/kalmera/pointsto/ir"
)

// ParseType parses a type written in the usual IR notation: "i32", "i8*",
// "{i32, i8*}", "[100 x i8*]", "i8* (i8*, ...)". Function types do not
// nest on the return side.
func ParseType(ctx *ir.Context, s string) (ir.Type, error) {
	p := &typeParser{ctx: ctx, src: s}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("irload: trailing input %q in type %q", p.src[p.pos:], s)
	}
	return t, nil
}

type typeParser struct {
	ctx *ir.Context
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) eat(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) parse() (ir.Type, error) {
	t, err := p.prim()
	if err != nil {
		return nil, err
	}
	t = p.stars(t)

	if p.eat('(') {
		params, variadic, err := p.params()
		if err != nil {
			return nil, err
		}
		t = p.stars(p.ctx.Func(t, params, variadic))
	}

	return t, nil
}

func (p *typeParser) stars(t ir.Type) ir.Type {
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '*' {
			p.pos++
			t = p.ctx.Pointer(t)
			continue
		}
		return t
	}
}

func (p *typeParser) prim() (ir.Type, error) {
	p.skipSpace()
	rest := p.src[p.pos:]

	switch {
	case strings.HasPrefix(rest, "void"):
		p.pos += len("void")
		return p.ctx.Void(), nil

	case strings.HasPrefix(rest, "i"):
		p.pos++
		bits, err := p.number()
		if err != nil {
			return nil, fmt.Errorf("irload: bad integer type in %q", p.src)
		}
		return p.ctx.Int(bits), nil

	case strings.HasPrefix(rest, "{"):
		p.pos++
		var fields []ir.Type
		if !p.eat('}') {
			for {
				f, err := p.parse()
				if err != nil {
					return nil, err
				}
				fields = append(fields, f)
				if p.eat(',') {
					continue
				}
				if p.eat('}') {
					break
				}
				return nil, fmt.Errorf("irload: malformed struct type in %q", p.src)
			}
		}
		return p.ctx.Struct(fields...), nil

	case strings.HasPrefix(rest, "["):
		p.pos++
		n, err := p.number()
		if err != nil {
			return nil, fmt.Errorf("irload: bad array length in %q", p.src)
		}
		if !p.eat('x') {
			return nil, fmt.Errorf("irload: expected 'x' in array type %q", p.src)
		}
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if !p.eat(']') {
			return nil, fmt.Errorf("irload: unterminated array type in %q", p.src)
		}
		return p.ctx.Array(n, elem), nil
	}

	return nil, fmt.Errorf("irload: cannot parse type %q", p.src)
}

func (p *typeParser) params() ([]ir.Type, bool, error) {
	if p.eat(')') {
		return nil, false, nil
	}

	var params []ir.Type
	variadic := false
	for {
		p.skipSpace()
		if strings.HasPrefix(p.src[p.pos:], "...") {
			p.pos += 3
			variadic = true
			if !p.eat(')') {
				return nil, false, fmt.Errorf("irload: '...' must end the parameter list in %q", p.src)
			}
			return params, variadic, nil
		}

		t, err := p.parse()
		if err != nil {
			return nil, false, err
		}
		params = append(params, t)

		if p.eat(',') {
			continue
		}
		if p.eat(')') {
			return params, variadic, nil
		}
		return nil, false, fmt.Errorf("irload: malformed parameter list in %q", p.src)
	}
}

func (p *typeParser) number() (int64, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("irload: expected a number at offset %d", start)
	}

	var n int64
	for _, c := range p.src[start:p.pos] {
		n = n*10 + int64(c-'0')
	}
	return n, nil
}
