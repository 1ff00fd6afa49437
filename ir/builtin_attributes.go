package ir

import (
	"math/big"
	"strconv"
	"strings"
)

// IntegerAttr is an arbitrary precision integer constant, optionally typed.
// It prints as "17 : i32" when typed and "17" otherwise.
type IntegerAttr struct {
	Value *big.Int
	Type  Type
}

// NewIntegerAttr returns an [IntegerAttr] of value v and type t.
func NewIntegerAttr(v int64, t Type) IntegerAttr {
	return IntegerAttr{Value: big.NewInt(v), Type: t}
}

func (a IntegerAttr) String() string {
	if a.Type == nil {
		return a.Value.String()
	}
	return a.Value.String() + " : " + a.Type.String()
}

func (IntegerAttr) AttrDialect() string { return BuiltinDialect }

// Verify checks that the value is set and that it is representable in
// its type when the type is an integer type.
func (a IntegerAttr) Verify() error {
	if a.Value == nil {
		return Errorf("integer attribute", "missing value")
	}
	if a.Type == nil {
		return nil
	}
	switch t := a.Type.(type) {
	case IntegerType:
		if a.Value.Sign() < 0 && t.Signedness == Unsigned {
			return Errorf(a.String(), "negative value for an unsigned integer type")
		}
		// signless values may use the full width, signed ones keep a sign bit
		bitLen := a.Value.BitLen()
		switch {
		case a.Value.Sign() < 0:
			bitLen = new(big.Int).Not(a.Value).BitLen() + 1
		case t.Signedness == Signed:
			bitLen++
		}
		if bitLen > t.Width {
			return Errorf(a.String(), "value does not fit in %d bits", t.Width)
		}
	case IndexType:
	default:
		return Errorf(a.String(), "integer attribute must have an integer or index type, but found %s", a.Type)
	}
	return nil
}

// Int64 returns the value of the attribute as an int64.
func (a IntegerAttr) Int64() int64 {
	return a.Value.Int64()
}

// FloatAttr is a floating point constant of a given [FloatType].
type FloatAttr struct {
	Value float64
	Type  FloatType
}

func (a FloatAttr) String() string {
	return strconv.FormatFloat(a.Value, 'e', -1, 64) + " : " + a.Type.String()
}

func (FloatAttr) AttrDialect() string { return BuiltinDialect }

// Verify checks the float type.
func (a FloatAttr) Verify() error {
	return a.Type.Verify()
}

// StringAttr is a string constant.
type StringAttr string

func (a StringAttr) String() string {
	return strconv.Quote(string(a))
}

func (StringAttr) AttrDialect() string { return BuiltinDialect }

// TypeAttr wraps a type to be used as an attribute.
type TypeAttr struct {
	Value Type
}

func (a TypeAttr) String() string {
	return a.Value.String()
}

func (TypeAttr) AttrDialect() string { return BuiltinDialect }

// Verify checks the wrapped type.
func (a TypeAttr) Verify() error {
	return VerifyType(a.Value)
}

// ArrayAttr is an ordered list of attributes.
type ArrayAttr []Attribute

func (a ArrayAttr) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, e := range a {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteString("]")
	return sb.String()
}

func (ArrayAttr) AttrDialect() string { return BuiltinDialect }

// Verify checks every element of the array.
func (a ArrayAttr) Verify() error {
	for _, e := range a {
		if err := VerifyAttribute(e); err != nil {
			return err
		}
	}
	return nil
}

// UnitAttr is an attribute whose presence alone carries meaning.
type UnitAttr struct{}

func (UnitAttr) String() string      { return "unit" }
func (UnitAttr) AttrDialect() string { return BuiltinDialect }

// NamedAttribute associates an attribute to a name in an operation's attribute dictionary.
type NamedAttribute struct {
	Name  string
	Value Attribute
}

// Named returns a new [NamedAttribute].
func Named(name string, value Attribute) NamedAttribute {
	return NamedAttribute{Name: name, Value: value}
}
