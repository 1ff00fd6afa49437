package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Value is an SSA value: either the result of an [Operation] or an argument of a [Block].
type Value struct {
	typ   Type
	owner *Operation
	block *Block
	index int
}

// Type returns the type of the value.
func (v *Value) Type() Type {
	return v.typ
}

// DefiningOp returns the operation producing the value, or nil for block arguments.
func (v *Value) DefiningOp() *Operation {
	return v.owner
}

// IsBlockArgument returns true if the value is an argument of a block.
func (v *Value) IsBlockArgument() bool {
	return v.owner == nil
}

// Index returns the position of the value among the results of its
// defining operation or among the arguments of its block.
func (v *Value) Index() int {
	return v.index
}

// Types returns the types of the given values.
func Types(values []*Value) (types []Type) {
	types = make([]Type, len(values))
	for i, v := range values {
		types[i] = v.typ
	}
	return
}

// Operation is a generic operation identified by its fully qualified name
// (dialect.mnemonic). Operations are created and verified through a [Builder]
// or a [Rewriter]; their operands, results and attributes are not modified afterwards
// except by the [Rewriter] when substituting replaced values.
type Operation struct {
	name     string
	operands []*Value
	results  []*Value
	attrs    []NamedAttribute
	block    *Block
}

// Name returns the fully qualified name of the operation.
func (op *Operation) Name() string {
	return op.name
}

// Dialect returns the dialect prefix of the operation name.
func (op *Operation) Dialect() string {
	if i := strings.IndexByte(op.name, '.'); i >= 0 {
		return op.name[:i]
	}
	return op.name
}

// Operands returns the operands of the operation. The slice must not be modified.
func (op *Operation) Operands() []*Value {
	return op.operands
}

// Operand returns the i-th operand.
func (op *Operation) Operand(i int) *Value {
	return op.operands[i]
}

// NumOperands returns the number of operands.
func (op *Operation) NumOperands() int {
	return len(op.operands)
}

// Results returns the results of the operation. The slice must not be modified.
func (op *Operation) Results() []*Value {
	return op.results
}

// Result returns the i-th result.
func (op *Operation) Result(i int) *Value {
	return op.results[i]
}

// NumResults returns the number of results.
func (op *Operation) NumResults() int {
	return len(op.results)
}

// Attributes returns the attributes of the operation sorted by name.
func (op *Operation) Attributes() []NamedAttribute {
	return op.attrs
}

// Attr returns the attribute of the given name, or nil if absent.
func (op *Operation) Attr(name string) Attribute {
	for _, a := range op.attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return nil
}

// Block returns the block containing the operation.
func (op *Operation) Block() *Block {
	return op.block
}

// Func returns the function containing the operation, or nil if detached.
func (op *Operation) Func() *Func {
	if op.block == nil {
		return nil
	}
	return op.block.fn
}

// Errorf returns a new [Diagnostic] attached to the operation.
func (op *Operation) Errorf(format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Op: op.name, Message: fmt.Sprintf(format, args...)}
}

func newOperation(name string, operands []*Value, resultTypes []Type, attrs []NamedAttribute) (op *Operation) {
	op = &Operation{
		name:     name,
		operands: append([]*Value{}, operands...),
		attrs:    append([]NamedAttribute{}, attrs...),
	}
	sort.SliceStable(op.attrs, func(i, j int) bool {
		return op.attrs[i].Name < op.attrs[j].Name
	})
	op.results = make([]*Value, len(resultTypes))
	for i, t := range resultTypes {
		op.results[i] = &Value{typ: t, owner: op, index: i}
	}
	return
}

// Block is an ordered list of operations with typed arguments.
type Block struct {
	args []*Value
	ops  []*Operation
	fn   *Func
}

// Arguments returns the arguments of the block. The slice must not be modified.
func (b *Block) Arguments() []*Value {
	return b.args
}

// Argument returns the i-th argument of the block.
func (b *Block) Argument(i int) *Value {
	return b.args[i]
}

// Operations returns a snapshot of the operations of the block, in order.
// Operations inserted or erased while iterating over the snapshot do not affect it.
func (b *Block) Operations() []*Operation {
	return append([]*Operation{}, b.ops...)
}

// Len returns the number of operations in the block.
func (b *Block) Len() int {
	return len(b.ops)
}

// Func returns the function owning the block.
func (b *Block) Func() *Func {
	return b.fn
}

func (b *Block) indexOf(op *Operation) int {
	for i, o := range b.ops {
		if o == op {
			return i
		}
	}
	return -1
}

func (b *Block) insert(at int, ops ...*Operation) {
	if at < 0 || at > len(b.ops) {
		at = len(b.ops)
	}
	for _, op := range ops {
		op.block = b
	}
	b.ops = append(b.ops[:at], append(append([]*Operation{}, ops...), b.ops[at:]...)...)
}

func (b *Block) erase(op *Operation) {
	if i := b.indexOf(op); i >= 0 {
		b.ops = append(b.ops[:i], b.ops[i+1:]...)
		op.block = nil
	}
}

// Func is a named function with a single body block. Its inputs are the
// arguments of the body; its results are the operands of the terminating
// func.return operation.
type Func struct {
	name    string
	results []Type
	body    *Block
	module  *Module
}

// NewFunc returns a new function with an empty body.
func NewFunc(name string, inputs, results []Type) (f *Func) {
	f = &Func{
		name:    name,
		results: append([]Type{}, results...),
	}
	f.body = &Block{fn: f}
	for _, t := range inputs {
		f.body.args = append(f.body.args, &Value{typ: t, block: f.body, index: len(f.body.args)})
	}
	return
}

// Name returns the symbol name of the function.
func (f *Func) Name() string {
	return f.name
}

// Body returns the body block of the function.
func (f *Func) Body() *Block {
	return f.body
}

// Arguments returns the arguments of the function.
func (f *Func) Arguments() []*Value {
	return f.body.args
}

// ResultTypes returns the result types of the function.
func (f *Func) ResultTypes() []Type {
	return f.results
}

// Type returns the signature of the function.
func (f *Func) Type() FunctionType {
	return FunctionType{Inputs: Types(f.body.args), Results: f.results}
}

// Module returns the module owning the function, or nil.
func (f *Func) Module() *Module {
	return f.module
}

// InsertArgument inserts a new argument of type t at position at and returns it.
func (f *Func) InsertArgument(at int, t Type) *Value {
	if at < 0 || at > len(f.body.args) {
		at = len(f.body.args)
	}
	v := &Value{typ: t, block: f.body}
	f.body.args = append(f.body.args[:at], append([]*Value{v}, f.body.args[at:]...)...)
	for i, a := range f.body.args {
		a.index = i
	}
	return v
}

// Walk calls visit on every operation of the function, in order.
// Iteration stops at the first error, which is returned.
func (f *Func) Walk(visit func(op *Operation) error) error {
	for _, op := range f.body.Operations() {
		if err := visit(op); err != nil {
			return err
		}
	}
	return nil
}

// replaceAllUsesWith substitutes every use of from by to in the function.
func (f *Func) replaceAllUsesWith(from, to *Value) {
	for _, op := range f.body.ops {
		for i, v := range op.operands {
			if v == from {
				op.operands[i] = to
			}
		}
	}
}

// HasUses returns true if v is used as an operand in the function.
func (f *Func) HasUses(v *Value) bool {
	for _, op := range f.body.ops {
		for _, o := range op.operands {
			if o == v {
				return true
			}
		}
	}
	return false
}

// Module is an ordered list of functions with unique names.
type Module struct {
	funcs []*Func
}

// NewModule returns a new empty module.
func NewModule() *Module {
	return &Module{}
}

// AddFunc appends f to the module.
func (m *Module) AddFunc(f *Func) error {
	if m.Lookup(f.name) != nil {
		return fmt.Errorf("ir.Module: redefinition of function @%s", f.name)
	}
	f.module = m
	m.funcs = append(m.funcs, f)
	return nil
}

// Funcs returns the functions of the module. The slice must not be modified.
func (m *Module) Funcs() []*Func {
	return m.funcs
}

// Lookup returns the function of the given name, or nil.
func (m *Module) Lookup(name string) *Func {
	for _, f := range m.funcs {
		if f.name == name {
			return f
		}
	}
	return nil
}
