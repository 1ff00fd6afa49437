// Package arith implements the scalar and elementwise arithmetic primitives used
// to materialize constants and to cast values between bit widths.
package arith

import (
	"fmt"

	"github.com/tuneinsight/lattigo-ir/ir"
)

// DialectName is the namespace of the dialect.
const DialectName = "arith"

// Names of the operations of the dialect.
const (
	ConstantOp = "arith.constant"
	ExtSIOp    = "arith.extsi"
	ExtFOp     = "arith.extf"
	TruncIOp   = "arith.trunci"
)

var (
	isIntLike = ir.Constraint{
		Description: "an integer or a tensor of integers",
		Allows: func(t ir.Type) bool {
			return ir.IsInteger(ir.ElementTypeOrSelf(t))
		},
	}
	isFloatLike = ir.Constraint{
		Description: "a float or a tensor of floats",
		Allows: func(t ir.Type) bool {
			return ir.IsFloat(ir.ElementTypeOrSelf(t))
		},
	}
	isScalar = ir.Constraint{
		Name:        "result",
		Description: "an integer, a float or an index",
		Allows: func(t ir.Type) bool {
			_, isIndex := t.(ir.IndexType)
			return isIndex || ir.IsIntOrFloat(t)
		},
	}
)

func named(c ir.Constraint, name string) ir.Constraint {
	c.Name = name
	return c
}

// Dialect returns the arith dialect.
func Dialect() *ir.Dialect {
	return &ir.Dialect{
		Name: DialectName,
		Ops: []*ir.OpDefinition{
			{
				Name:             ConstantOp,
				Results:          []ir.Constraint{isScalar},
				Attributes:       []string{"value"},
				Verify:           verifyConstant,
				InferResultTypes: inferConstant,
			},
			{
				Name:     ExtSIOp,
				Operands: []ir.Constraint{named(isIntLike, "in")},
				Results:  []ir.Constraint{named(isIntLike, "out")},
				Verify:   verifyWidthChange(true),
			},
			{
				Name:     ExtFOp,
				Operands: []ir.Constraint{named(isFloatLike, "in")},
				Results:  []ir.Constraint{named(isFloatLike, "out")},
				Verify:   verifyWidthChange(true),
			},
			{
				Name:     TruncIOp,
				Operands: []ir.Constraint{named(isIntLike, "in")},
				Results:  []ir.Constraint{named(isIntLike, "out")},
				Verify:   verifyWidthChange(false),
			},
		},
	}
}

func verifyConstant(op *ir.Operation) error {

	want := op.Result(0).Type()

	var got ir.Type
	switch v := op.Attr("value").(type) {
	case ir.IntegerAttr:
		got = v.Type
	case ir.FloatAttr:
		got = v.Type
	default:
		return op.Errorf("value must be an integer or a float attribute, but found %s", v)
	}

	if got == nil || !ir.TypesEqual(got, want) {
		return op.Errorf("value type %v does not match the result type %s", got, want)
	}

	return nil
}

func inferConstant(_ []ir.Type, attrs []ir.NamedAttribute) ([]ir.Type, error) {
	switch v := ir.LookupAttr(attrs, "value").(type) {
	case ir.IntegerAttr:
		if v.Type != nil {
			return []ir.Type{v.Type}, nil
		}
	case ir.FloatAttr:
		return []ir.Type{v.Type}, nil
	}
	return nil, fmt.Errorf("value must be a typed integer or float attribute")
}

// shape returns the shape of a tensor, or nil for a scalar.
func shape(t ir.Type) ([]int64, bool) {
	if tt, ok := t.(ir.TensorType); ok {
		return tt.Shape, true
	}
	return nil, false
}

// verifyWidthChange checks that the input and the output have the same shape and that
// the element width strictly increases (extend) or strictly decreases (truncate).
func verifyWidthChange(extend bool) func(op *ir.Operation) error {
	return func(op *ir.Operation) error {

		in, out := op.Operand(0).Type(), op.Result(0).Type()

		inShape, inTensor := shape(in)
		outShape, outTensor := shape(out)

		if inTensor != outTensor || fmt.Sprint(inShape) != fmt.Sprint(outShape) {
			return op.Errorf("input %s and output %s must have the same shape", in, out)
		}

		inWidth, _ := ir.BitWidth(ir.ElementTypeOrSelf(in))
		outWidth, _ := ir.BitWidth(ir.ElementTypeOrSelf(out))

		switch {
		case extend && outWidth <= inWidth:
			return op.Errorf("result type %s must be wider than operand type %s", out, in)
		case !extend && outWidth >= inWidth:
			return op.Errorf("result type %s must be shorter than operand type %s", out, in)
		}

		return nil
	}
}

// Constant creates an arith.constant of the given typed value.
func Constant(b ir.OpCreator, value ir.Attribute) (*ir.Value, error) {
	return b.CreateValue(ConstantOp, nil, nil, ir.Named("value", value))
}

// Cast creates the cast operation name (extsi, extf or trunci) of v to the
// given element type. The shape of v is kept.
func Cast(b ir.OpCreator, name string, v *ir.Value, element ir.Type) (*ir.Value, error) {
	out := element
	if tt, ok := v.Type().(ir.TensorType); ok {
		out = tt.WithElementType(element)
	}
	return b.CreateValue(name, []*ir.Value{v}, out)
}
