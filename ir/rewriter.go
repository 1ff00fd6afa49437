package ir

import (
	"fmt"
)

// Rewriter stages the replacement of a single root operation.
//
// Operations created through the rewriter are verified immediately but are only
// inserted in the program by [Rewriter.Commit], which also substitutes the results
// of the root by their replacements and erases the root. [Rewriter.Discard] drops
// everything that was staged, so that a failed rewrite leaves the program untouched.
type Rewriter struct {
	ctx          *Context
	root         *Operation
	staged       []*Operation
	replacements []*Value
	replaced     bool
	done         bool
}

// NewRewriter returns a new [Rewriter] for root, which must be inserted in a block.
func NewRewriter(ctx *Context, root *Operation) *Rewriter {
	return &Rewriter{ctx: ctx, root: root}
}

// Root returns the operation being rewritten.
func (r *Rewriter) Root() *Operation {
	return r.root
}

// Context returns the context of the rewriter.
func (r *Rewriter) Context() *Context {
	return r.ctx
}

// Create builds and verifies a new operation and stages it for insertion before the root.
func (r *Rewriter) Create(name string, operands []*Value, resultTypes []Type, attrs ...NamedAttribute) (*Operation, error) {
	if r.done {
		return nil, fmt.Errorf("ir.Rewriter: cannot create '%s': rewrite of '%s' is closed", name, r.root.name)
	}
	op, err := r.ctx.build(r.root.block, name, operands, resultTypes, attrs)
	if err != nil {
		return nil, err
	}
	r.staged = append(r.staged, op)
	return op, nil
}

// CreateValue is like [Rewriter.Create] for single result operations and returns the result.
func (r *Rewriter) CreateValue(name string, operands []*Value, resultType Type, attrs ...NamedAttribute) (*Value, error) {
	var resultTypes []Type
	if resultType != nil {
		resultTypes = []Type{resultType}
	}
	op, err := r.Create(name, operands, resultTypes, attrs...)
	if err != nil {
		return nil, err
	}
	if op.NumResults() != 1 {
		return nil, fmt.Errorf("ir.Rewriter: '%s' has %d results, expected 1", name, op.NumResults())
	}
	return op.Result(0), nil
}

// ReplaceOp records the values replacing the results of the root.
func (r *Rewriter) ReplaceOp(values ...*Value) error {
	if len(values) != len(r.root.results) {
		return fmt.Errorf("ir.Rewriter: '%s' has %d results but %d replacement values were given", r.root.name, len(r.root.results), len(values))
	}
	r.replacements = append([]*Value{}, values...)
	r.replaced = true
	return nil
}

// ReplaceOpWithNew stages a new operation and records its results as the replacement of the root.
func (r *Rewriter) ReplaceOpWithNew(name string, operands []*Value, resultTypes []Type, attrs ...NamedAttribute) (*Operation, error) {
	op, err := r.Create(name, operands, resultTypes, attrs...)
	if err != nil {
		return nil, err
	}
	if err = r.ReplaceOp(op.results...); err != nil {
		return nil, err
	}
	return op, nil
}

// Staged returns the operations staged so far.
func (r *Rewriter) Staged() []*Operation {
	return append([]*Operation{}, r.staged...)
}

// Commit inserts the staged operations before the root, substitutes the results of
// the root and erases it.
func (r *Rewriter) Commit() error {
	if r.done {
		return fmt.Errorf("ir.Rewriter: rewrite of '%s' is already closed", r.root.name)
	}
	if !r.replaced {
		return fmt.Errorf("ir.Rewriter: cannot commit: no replacement recorded for '%s'", r.root.name)
	}
	blk := r.root.block
	if blk == nil {
		return fmt.Errorf("ir.Rewriter: cannot commit: '%s' is not in a block", r.root.name)
	}
	blk.insert(blk.indexOf(r.root), r.staged...)
	for i, res := range r.root.results {
		blk.fn.replaceAllUsesWith(res, r.replacements[i])
	}
	blk.erase(r.root)
	r.done = true
	return nil
}

// Discard drops the staged operations. The program is left unmodified.
func (r *Rewriter) Discard() {
	r.staged = nil
	r.replacements = nil
	r.done = true
}
