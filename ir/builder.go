package ir

import (
	"fmt"
)

// Builder creates operations at an insertion point. Every operation is
// verified when it is created: an operation that fails verification is
// never inserted and the diagnostic is returned to the caller.
type Builder struct {
	ctx   *Context
	block *Block
	pos   int
}

// OpCreator creates verified operations. It is implemented by [Builder] and [Rewriter],
// so that helpers emitting operations serve both construction and rewriting.
type OpCreator interface {
	Create(name string, operands []*Value, resultTypes []Type, attrs ...NamedAttribute) (*Operation, error)
	CreateValue(name string, operands []*Value, resultType Type, attrs ...NamedAttribute) (*Value, error)
}

// NewBuilder returns a new [Builder] without insertion point.
func NewBuilder(ctx *Context) *Builder {
	return &Builder{ctx: ctx, pos: -1}
}

// Context returns the context of the builder.
func (b *Builder) Context() *Context {
	return b.ctx
}

// SetInsertionPointToEnd makes the builder append operations at the end of blk.
func (b *Builder) SetInsertionPointToEnd(blk *Block) {
	b.block = blk
	b.pos = -1
}

// SetInsertionPointBefore makes the builder insert operations right before op.
func (b *Builder) SetInsertionPointBefore(op *Operation) {
	b.block = op.block
	b.pos = op.block.indexOf(op)
}

// Create builds, verifies and inserts a new operation. If resultTypes is nil and
// the operation defines a result type inference, the result types are inferred
// from the operands and the attributes.
func (b *Builder) Create(name string, operands []*Value, resultTypes []Type, attrs ...NamedAttribute) (*Operation, error) {
	if b.block == nil {
		return nil, fmt.Errorf("ir.Builder: cannot create '%s': no insertion point", name)
	}
	op, err := b.ctx.build(b.block, name, operands, resultTypes, attrs)
	if err != nil {
		return nil, err
	}
	b.block.insert(b.pos, op)
	if b.pos >= 0 {
		b.pos++
	}
	return op, nil
}

// CreateValue is like [Builder.Create] for single result operations and returns the result.
func (b *Builder) CreateValue(name string, operands []*Value, resultType Type, attrs ...NamedAttribute) (*Value, error) {
	var resultTypes []Type
	if resultType != nil {
		resultTypes = []Type{resultType}
	}
	op, err := b.Create(name, operands, resultTypes, attrs...)
	if err != nil {
		return nil, err
	}
	if op.NumResults() != 1 {
		return nil, fmt.Errorf("ir.Builder: '%s' has %d results, expected 1", name, op.NumResults())
	}
	return op.Result(0), nil
}

// Return creates the func.return terminator.
func (b *Builder) Return(values ...*Value) error {
	_, err := b.Create(ReturnOp, values, []Type{})
	return err
}

// build creates and verifies a detached operation. blk is the block the operation
// is meant to be inserted in; verifiers may inspect it through [Operation.Func].
func (ctx *Context) build(blk *Block, name string, operands []*Value, resultTypes []Type, attrs []NamedAttribute) (*Operation, error) {

	def, ok := ctx.ops[name]
	if !ok {
		return nil, &Diagnostic{Op: name, Message: "is not registered in this context"}
	}

	for i, v := range operands {
		if v == nil {
			return nil, &Diagnostic{Op: name, Message: fmt.Sprintf("operand #%d is nil", i)}
		}
	}

	if resultTypes == nil && def.InferResultTypes != nil {
		inferred, err := def.InferResultTypes(Types(operands), attrs)
		if err != nil {
			return nil, fmt.Errorf("cannot infer result types of '%s': %w", name, err)
		}
		resultTypes = inferred
	}

	uniqued := make([]Type, len(resultTypes))
	for i, t := range resultTypes {
		if t == nil {
			return nil, &Diagnostic{Op: name, Message: fmt.Sprintf("result type #%d is nil", i)}
		}
		uniqued[i] = ctx.UniqueType(t)
	}

	op := newOperation(name, operands, uniqued, attrs)
	op.block = blk
	err := ctx.VerifyOperation(op)
	op.block = nil
	if err != nil {
		return nil, err
	}
	return op, nil
}

// LookupAttr returns the attribute of the given name in attrs, or nil.
func LookupAttr(attrs []NamedAttribute, name string) Attribute {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return nil
}
