package ir

import (
	"fmt"
	"strings"

	"github.com/tuneinsight/lattigo-ir/utils"
)

// Constraint restricts the type of an operand or a result of an operation.
// A nil Allows accepts any type.
type Constraint struct {
	Name        string
	Description string
	Allows      func(Type) bool
}

// AnyType returns a [Constraint] accepting any type.
func AnyType(name string) Constraint {
	return Constraint{Name: name, Description: "any type"}
}

// OfType returns a [Constraint] accepting the values whose type has the dynamic type T.
func OfType[T Type](name, description string) Constraint {
	return Constraint{
		Name:        name,
		Description: description,
		Allows: func(t Type) bool {
			_, ok := t.(T)
			return ok
		},
	}
}

// OneOf returns a [Constraint] accepting the types allowed by any of the given constraints.
func OneOf(name, description string, constraints ...Constraint) Constraint {
	return Constraint{
		Name:        name,
		Description: description,
		Allows: func(t Type) bool {
			for _, c := range constraints {
				if c.Allows == nil || c.Allows(t) {
					return true
				}
			}
			return false
		},
	}
}

func (c Constraint) check(op *Operation, kind string, i int, t Type) error {
	if c.Allows != nil && !c.Allows(t) {
		return op.Errorf("%s #%d (%s) must be %s, but found %s", kind, i, c.Name, c.Description, t)
	}
	return nil
}

// OpDefinition describes a registered operation: the constraints on its operands,
// results and attributes, its verifier and, optionally, its result type inference.
//
// The generic checks (arity, type constraints, presence and well-formedness of the
// attributes) are always run before Verify, which can therefore assume them.
type OpDefinition struct {
	Name string

	Operands         []Constraint
	VariadicOperands bool // the last operand constraint applies to any number of trailing operands

	Results         []Constraint
	VariadicResults bool

	// Attributes lists the names of the required attributes.
	Attributes []string

	Verify func(op *Operation) error

	// InferResultTypes derives the result types from the operand types and the attributes.
	// It is used by the builders when no result type is given.
	InferResultTypes func(operands []Type, attrs []NamedAttribute) ([]Type, error)
}

func checkArity(op *Operation, kind string, constraints []Constraint, variadic bool, types []Type) error {
	n := len(constraints)
	switch {
	case variadic && len(types) < n-1:
		return op.Errorf("expects at least %d %ss, but found %d", n-1, kind, len(types))
	case !variadic && len(types) != n:
		return op.Errorf("expects %d %ss, but found %d", n, kind, len(types))
	}
	for i, t := range types {
		c := constraints[utils.Min(i, n-1)]
		if err := c.check(op, kind, i, t); err != nil {
			return err
		}
	}
	return nil
}

// Dialect is a named collection of operations, types and attributes.
// ParseType and ParseAttribute are called by the [Parser] with the mnemonic
// of a !dialect.mnemonic type (resp. #dialect.mnemonic attribute), the parser being
// positioned right after the mnemonic.
type Dialect struct {
	Name           string
	Ops            []*OpDefinition
	ParseType      func(p *Parser, mnemonic string) (Type, error)
	ParseAttribute func(p *Parser, mnemonic string) (Attribute, error)
}

// Context holds the registered dialects and the uniqued types and attributes.
// A Context is required to build, verify and parse programs.
type Context struct {
	dialects map[string]*Dialect
	ops      map[string]*OpDefinition
	uniquer  *uniquer
}

// NewContext returns a new [Context] with the given dialects and the func dialect registered.
func NewContext(dialects ...*Dialect) (ctx *Context) {
	ctx = &Context{
		dialects: map[string]*Dialect{},
		ops:      map[string]*OpDefinition{},
		uniquer:  newUniquer(),
	}
	ctx.Register(FuncDialect())
	for _, d := range dialects {
		ctx.Register(d)
	}
	return
}

// Register adds the dialect to the context. Registering a dialect twice is a no-op.
func (ctx *Context) Register(d *Dialect) {
	if _, ok := ctx.dialects[d.Name]; ok {
		return
	}
	ctx.dialects[d.Name] = d
	for _, def := range d.Ops {
		if !strings.HasPrefix(def.Name, d.Name+".") {
			panic(fmt.Errorf("cannot Register: operation %s is not in the namespace of dialect %s", def.Name, d.Name))
		}
		ctx.ops[def.Name] = def
	}
}

// LookupDialect returns the dialect registered under name.
func (ctx *Context) LookupDialect(name string) (*Dialect, bool) {
	d, ok := ctx.dialects[name]
	return d, ok
}

// LookupOp returns the definition of the operation registered under name.
func (ctx *Context) LookupOp(name string) (*OpDefinition, bool) {
	def, ok := ctx.ops[name]
	return def, ok
}

// RegisteredOps returns the sorted names of the registered operations.
func (ctx *Context) RegisteredOps() []string {
	return utils.GetSortedKeys(ctx.ops)
}

// VerifyOperation runs the generic checks and the verifier of the operation definition.
func (ctx *Context) VerifyOperation(op *Operation) error {

	def, ok := ctx.ops[op.name]
	if !ok {
		return op.Errorf("is not registered in this context")
	}

	if err := checkArity(op, "operand", def.Operands, def.VariadicOperands, Types(op.operands)); err != nil {
		return err
	}

	if err := checkArity(op, "result", def.Results, def.VariadicResults, Types(op.results)); err != nil {
		return err
	}

	for _, r := range op.results {
		if err := VerifyType(r.typ); err != nil {
			return fmt.Errorf("%w (in result type of '%s')", err, op.name)
		}
	}

	for _, name := range def.Attributes {
		if op.Attr(name) == nil {
			return op.Errorf("requires attribute '%s'", name)
		}
	}

	for i, a := range op.attrs {
		if i > 0 && op.attrs[i-1].Name == a.Name {
			return op.Errorf("has duplicate attribute '%s'", a.Name)
		}
		if err := VerifyAttribute(a.Value); err != nil {
			return fmt.Errorf("%w (in attribute '%s' of '%s')", err, a.Name, op.name)
		}
	}

	if def.Verify != nil {
		return def.Verify(op)
	}

	return nil
}

// AttrAs returns the attribute name of op with dynamic type T.
func AttrAs[T Attribute](op *Operation, name string) (attr T, ok bool) {
	attr, ok = op.Attr(name).(T)
	return
}

// TypeAs returns the type of v if it has the dynamic type T.
func TypeAs[T Type](v *Value) (t T, ok bool) {
	t, ok = v.Type().(T)
	return
}
