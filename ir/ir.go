// Package ir implements a typed, dialect-extensible intermediate representation for
// homomorphic encryption programs. It provides types, attributes, values, operations,
// functions and modules, together with construction-time verification, a staged
// rewriter for pattern-driven lowerings and a textual format that round-trips.
//
// Types and attributes are immutable value structs with exported fields. Their identity
// is structural: two values are the same type (resp. attribute) if [TypesEqual]
// (resp. [AttributesEqual]) reports so, regardless of how they were constructed.
package ir

import (
	"fmt"
	"math/big"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Type is the interface implemented by all the types of the IR.
// String must return the canonical textual form of the type, which
// [Parser.ParseType] maps back to a structurally equal value.
type Type interface {
	fmt.Stringer
	// TypeDialect returns the namespace under which the type is registered.
	TypeDialect() string
}

// Attribute is the interface implemented by all the attributes of the IR.
// String must return the canonical textual form of the attribute.
type Attribute interface {
	fmt.Stringer
	// AttrDialect returns the namespace under which the attribute is registered.
	AttrDialect() string
}

// Verifiable is implemented by types and attributes carrying invariants
// that must hold for the value to be well-formed.
type Verifiable interface {
	Verify() error
}

// TensorEncoding is implemented by attributes that can annotate a tensor type.
// VerifyEncoding checks the encoding against the shape and element type of the
// tensor it is attached to.
type TensorEncoding interface {
	Attribute
	VerifyEncoding(shape []int64, elementType Type) error
}

var equalOptions = cmp.Options{
	cmp.Comparer(func(x, y *big.Int) bool {
		if x == nil || y == nil {
			return x == y
		}
		return x.Cmp(y) == 0
	}),
	cmpopts.EquateEmpty(),
}

// TypesEqual reports whether x and y are structurally equal.
func TypesEqual(x, y Type) bool {
	return cmp.Equal(x, y, equalOptions)
}

// AttributesEqual reports whether x and y are structurally equal.
func AttributesEqual(x, y Attribute) bool {
	return cmp.Equal(x, y, equalOptions)
}

// Diff returns a human readable report of the structural differences between x and y,
// or the empty string if they are equal.
func Diff(x, y interface{}) string {
	return cmp.Diff(x, y, equalOptions)
}

// VerifyType checks the invariants of t if it carries any.
func VerifyType(t Type) error {
	if t == nil {
		return fmt.Errorf("ir.VerifyType: nil type")
	}
	if v, ok := t.(Verifiable); ok {
		return v.Verify()
	}
	return nil
}

// VerifyAttribute checks the invariants of a if it carries any.
func VerifyAttribute(a Attribute) error {
	if a == nil {
		return fmt.Errorf("ir.VerifyAttribute: nil attribute")
	}
	if v, ok := a.(Verifiable); ok {
		return v.Verify()
	}
	return nil
}
