package ir

import (
	"fmt"
)

// boxType and tagAttr populate a minimal dialect exercising the extension points of the package.
type boxType struct {
	Width int
}

func (t boxType) String() string    { return fmt.Sprintf("!test.box<width = %d>", t.Width) }
func (boxType) TypeDialect() string { return "test" }
func (t boxType) Verify() error {
	if t.Width < 1 {
		return Errorf(t.String(), "width must be positive")
	}
	return nil
}

type tagAttr struct {
	Name string
}

func (a tagAttr) String() string    { return fmt.Sprintf("#test.tag<name = %q>", a.Name) }
func (tagAttr) AttrDialect() string { return "test" }

func isBox(name string) Constraint {
	return OfType[boxType](name, "a box")
}

func testDialect() *Dialect {
	return &Dialect{
		Name: "test",
		Ops: []*OpDefinition{
			{
				Name:       "test.const",
				Results:    []Constraint{AnyType("result")},
				Attributes: []string{"value"},
			},
			{
				Name:     "test.add",
				Operands: []Constraint{isBox("lhs"), isBox("rhs")},
				Results:  []Constraint{isBox("output")},
				Verify: func(op *Operation) error {
					if !TypesEqual(op.Operand(0).Type(), op.Operand(1).Type()) {
						return op.Errorf("operands must have the same type, but found %s and %s", op.Operand(0).Type(), op.Operand(1).Type())
					}
					if !TypesEqual(op.Operand(0).Type(), op.Result(0).Type()) {
						return op.Errorf("result type must match the operands")
					}
					return nil
				},
				InferResultTypes: func(operands []Type, _ []NamedAttribute) ([]Type, error) {
					if len(operands) != 2 {
						return nil, fmt.Errorf("expected 2 operands")
					}
					return []Type{operands[0]}, nil
				},
			},
		},
		ParseType: func(p *Parser, mnemonic string) (Type, error) {
			if mnemonic != "box" {
				return nil, p.Errorf("unknown type '!test.%s'", mnemonic)
			}
			var t boxType
			err := p.ParseParams(func(key string) (err error) {
				switch key {
				case "width":
					t.Width, err = p.ParseInt()
					return
				}
				return p.UnknownParam("!test.box", key)
			}, "width")
			return t, err
		},
		ParseAttribute: func(p *Parser, mnemonic string) (Attribute, error) {
			if mnemonic != "tag" {
				return nil, p.Errorf("unknown attribute '#test.%s'", mnemonic)
			}
			var a tagAttr
			err := p.ParseParams(func(key string) (err error) {
				if key != "name" {
					return p.UnknownParam("#test.tag", key)
				}
				a.Name, err = p.ParseString()
				return
			}, "name")
			return a, err
		},
	}
}
