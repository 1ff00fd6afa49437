// Package tensor implements the tensor primitives, restricted to the broadcast
// of a scalar into a statically shaped tensor.
package tensor

import (
	"github.com/tuneinsight/lattigo-ir/ir"
)

// DialectName is the namespace of the dialect.
const DialectName = "tensor"

// SplatOp broadcasts a scalar into every element of a tensor.
const SplatOp = "tensor.splat"

// Dialect returns the tensor dialect.
func Dialect() *ir.Dialect {
	return &ir.Dialect{
		Name: DialectName,
		Ops: []*ir.OpDefinition{
			{
				Name: SplatOp,
				Operands: []ir.Constraint{{
					Name:        "input",
					Description: "an integer, a float or an index",
					Allows: func(t ir.Type) bool {
						_, isTensor := t.(ir.TensorType)
						return !isTensor
					},
				}},
				Results: []ir.Constraint{ir.OfType[ir.TensorType]("aggregate", "a tensor")},
				Verify:  verifySplat,
			},
		},
	}
}

func verifySplat(op *ir.Operation) error {
	in := op.Operand(0).Type()
	out := op.Result(0).Type().(ir.TensorType)
	if !ir.TypesEqual(in, out.Element) {
		return op.Errorf("operand type %s must match the element type of the result %s", in, out)
	}
	return nil
}

// Splat creates a tensor.splat of v to a tensor of the given shape.
func Splat(b ir.OpCreator, v *ir.Value, shape ...int64) (*ir.Value, error) {
	tt, err := ir.NewTensorType(shape, v.Type(), nil)
	if err != nil {
		return nil, err
	}
	return b.CreateValue(SplatOp, []*ir.Value{v}, tt)
}
