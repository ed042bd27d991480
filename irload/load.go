// Package irload reads IR modules from their YAML description. It is the
// input surface for the command-line driver and for fixture-driven tests;
// programs may equally construct modules through the ir builder API.
package irload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kalmera/pointsto/ir"
)

type yamlModule struct {
	Globals   []yamlGlobal   `yaml:"globals"`
	Functions []yamlFunction `yaml:"functions"`
}

type yamlGlobal struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Init string `yaml:"init"`
}

type yamlFunction struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Params  []string    `yaml:"params"`
	Declare bool        `yaml:"declare"`
	Body    []yamlInstr `yaml:"body"`
}

type yamlInstr struct {
	Op      string   `yaml:"op"`
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Val     string   `yaml:"val"`
	Addr    string   `yaml:"addr"`
	Base    string   `yaml:"base"`
	X       string   `yaml:"x"`
	Count   string   `yaml:"count"`
	Indices []int64  `yaml:"indices"`
	Callee  string   `yaml:"callee"`
	Sig     string   `yaml:"sig"`
	Args    []string `yaml:"args"`
	Edges   []string `yaml:"edges"`
	Asm     bool     `yaml:"asm"`
}

// LoadModuleFromFile reads and assembles the module described by the YAML
// file at path.
func LoadModuleFromFile(path string) (*ir.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadModule(src)
}

// LoadModule assembles a module from its YAML source.
func LoadModule(src []byte) (*ir.Module, error) {
	var ym yamlModule
	if err := yaml.Unmarshal(src, &ym); err != nil {
		return nil, fmt.Errorf("irload: %w", err)
	}

	l := &loader{
		mod:     ir.NewModule(),
		globals: make(map[string]ir.Value),
	}
	if err := l.build(&ym); err != nil {
		return nil, err
	}
	return l.mod, nil
}

type loader struct {
	mod *ir.Module

	// globals maps @-names to globals and functions.
	globals map[string]ir.Value
}

func (l *loader) build(ym *yamlModule) error {
	ctx := l.mod.Context()

	// Symbols first so initializers and bodies can refer to anything
	// declared anywhere in the file.
	for _, yg := range ym.Globals {
		elem, err := ParseType(ctx, yg.Type)
		if err != nil {
			return err
		}
		g := l.mod.NewGlobal(yg.Name, elem, nil)
		l.globals[yg.Name] = g
	}

	funcs := make([]*ir.Function, len(ym.Functions))
	for i, yf := range ym.Functions {
		t, err := ParseType(ctx, yf.Type)
		if err != nil {
			return err
		}
		sig, ok := t.(*ir.FuncType)
		if !ok {
			return fmt.Errorf("irload: function %s has non-function type %q", yf.Name, yf.Type)
		}

		var f *ir.Function
		if yf.Declare {
			f = l.mod.DeclareFunction(yf.Name, sig)
		} else {
			f = l.mod.NewFunction(yf.Name, sig, yf.Params...)
		}
		funcs[i] = f
		l.globals[yf.Name] = f
	}

	for _, yg := range ym.Globals {
		if yg.Init == "" {
			continue
		}
		g := l.globals[yg.Name].(*ir.Global)
		init, err := l.operand(nil, yg.Init, g.Elem())
		if err != nil {
			return fmt.Errorf("irload: initializer of @%s: %w", yg.Name, err)
		}
		g.Init = init
	}

	for i, yf := range ym.Functions {
		if yf.Declare {
			continue
		}
		if err := l.body(funcs[i], yf.Body); err != nil {
			return fmt.Errorf("irload: in function @%s: %w", yf.Name, err)
		}
	}

	return nil
}

// scope resolves %-names inside one function body.
type scope map[string]ir.Value

// operand resolves a textual operand. expected is only consulted for
// "null", which needs a pointer type from context.
func (l *loader) operand(sc scope, s string, expected ir.Type) (ir.Value, error) {
	switch {
	case s == "null":
		pt, ok := expected.(*ir.PointerType)
		if !ok {
			return nil, fmt.Errorf("cannot type null operand (expected %v)", expected)
		}
		return l.mod.Null(pt), nil

	case len(s) > 1 && s[0] == '@':
		v, found := l.globals[s[1:]]
		if !found {
			return nil, fmt.Errorf("unknown global %s", s)
		}
		return v, nil

	case len(s) > 1 && s[0] == '%':
		v, found := sc[s[1:]]
		if !found {
			return nil, fmt.Errorf("unknown local %s", s)
		}
		return v, nil
	}

	return nil, fmt.Errorf("cannot resolve operand %q", s)
}

func (l *loader) body(f *ir.Function, body []yamlInstr) error {
	ctx := l.mod.Context()

	sc := scope{}
	for _, p := range f.Params {
		sc[p.Name()] = p
	}

	define := func(name string, v ir.Value) error {
		if name == "" {
			return fmt.Errorf("instruction needs a name")
		}
		if _, dup := sc[name]; dup {
			return fmt.Errorf("duplicate register %%%s", name)
		}
		sc[name] = v
		return nil
	}

	for _, yi := range body {
		switch yi.Op {
		case "alloca":
			elem, err := ParseType(ctx, yi.Type)
			if err != nil {
				return err
			}
			a := l.mod.Alloca(f, yi.Name, elem)
			if yi.Count != "" {
				count, err := l.operand(sc, yi.Count, nil)
				if err != nil {
					return err
				}
				a.Count = count
			}
			if err := define(yi.Name, a); err != nil {
				return err
			}

		case "load":
			addr, err := l.operand(sc, yi.Addr, nil)
			if err != nil {
				return err
			}
			if err := define(yi.Name, l.mod.Load(f, yi.Name, addr)); err != nil {
				return err
			}

		case "store":
			addr, err := l.operand(sc, yi.Addr, nil)
			if err != nil {
				return err
			}
			pt, ok := addr.Type().(*ir.PointerType)
			if !ok {
				return fmt.Errorf("store address %s is not a pointer", yi.Addr)
			}
			val, err := l.operand(sc, yi.Val, pt.Elem)
			if err != nil {
				return err
			}
			l.mod.Store(f, val, addr)

		case "gep":
			base, err := l.operand(sc, yi.Base, nil)
			if err != nil {
				return err
			}
			if err := define(yi.Name, l.mod.GEPInstr(f, yi.Name, base, yi.Indices...)); err != nil {
				return err
			}

		case "bitcast":
			t, err := ParseType(ctx, yi.Type)
			if err != nil {
				return err
			}
			x, err := l.operand(sc, yi.X, nil)
			if err != nil {
				return err
			}
			if err := define(yi.Name, l.mod.BitCast(f, yi.Name, x, t)); err != nil {
				return err
			}

		case "phi":
			t, err := ParseType(ctx, yi.Type)
			if err != nil {
				return err
			}
			edges := make([]ir.Value, len(yi.Edges))
			for i, e := range yi.Edges {
				if edges[i], err = l.operand(sc, e, t); err != nil {
					return err
				}
			}
			if err := define(yi.Name, l.mod.Phi(f, yi.Name, t, edges...)); err != nil {
				return err
			}

		case "call":
			callee, err := l.operand(sc, yi.Callee, nil)
			if err != nil {
				return err
			}

			var sig *ir.FuncType
			if yi.Sig != "" {
				t, err := ParseType(ctx, yi.Sig)
				if err != nil {
					return err
				}
				if sig, _ = t.(*ir.FuncType); sig == nil {
					return fmt.Errorf("call signature %q is not a function type", yi.Sig)
				}
			} else if cf, ok := callee.(*ir.Function); ok {
				sig = cf.Signature()
			} else {
				return fmt.Errorf("indirect call through %s needs a sig", yi.Callee)
			}

			args := make([]ir.Value, len(yi.Args))
			for i, a := range yi.Args {
				var expected ir.Type
				if i < len(sig.Params) {
					expected = sig.Params[i]
				}
				if args[i], err = l.operand(sc, a, expected); err != nil {
					return err
				}
			}

			c := l.mod.CallIndirect(f, yi.Name, callee, sig, args...)
			c.Asm = yi.Asm
			if yi.Name != "" {
				if err := define(yi.Name, c); err != nil {
					return err
				}
			}

		case "ret":
			var val ir.Value
			if yi.Val != "" {
				var err error
				if val, err = l.operand(sc, yi.Val, f.Signature().Ret); err != nil {
					return err
				}
			}
			l.mod.Ret(f, val)

		default:
			return fmt.Errorf("unknown op %q", yi.Op)
		}
	}

	return nil
}
