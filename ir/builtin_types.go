package ir

import (
	"fmt"
	"strings"
)

// BuiltinDialect is the namespace of the types, attributes and operations provided by this package.
const BuiltinDialect = "builtin"

// Signedness is the signedness semantics of an [IntegerType].
type Signedness int

const (
	// Signless integers carry no sign semantics, which is decided by the operations using them.
	Signless = Signedness(iota)
	Signed
	Unsigned
)

// IntegerType is a fixed width integer type: i16 (signless), si16 (signed) or ui16 (unsigned).
type IntegerType struct {
	Width      int
	Signedness Signedness
}

// I returns the signless integer type of the given width.
func I(width int) IntegerType {
	return IntegerType{Width: width}
}

func (t IntegerType) String() string {
	switch t.Signedness {
	case Signed:
		return fmt.Sprintf("si%d", t.Width)
	case Unsigned:
		return fmt.Sprintf("ui%d", t.Width)
	default:
		return fmt.Sprintf("i%d", t.Width)
	}
}

func (IntegerType) TypeDialect() string { return BuiltinDialect }

// IsSignless returns true if the integer carries no sign semantics.
func (t IntegerType) IsSignless() bool {
	return t.Signedness == Signless
}

// Verify checks that the width is positive.
func (t IntegerType) Verify() error {
	if t.Width < 1 {
		return Errorf(t.String(), "integer width must be positive")
	}
	return nil
}

// FloatType is an IEEE-754 binary floating point type (f16, f32, f64, f80 or f128).
type FloatType struct {
	Width int
}

// F returns the floating point type of the given width.
func F(width int) FloatType {
	return FloatType{Width: width}
}

func (t FloatType) String() string {
	return fmt.Sprintf("f%d", t.Width)
}

func (FloatType) TypeDialect() string { return BuiltinDialect }

// Verify checks that the width is one of the supported formats.
func (t FloatType) Verify() error {
	switch t.Width {
	case 16, 32, 64, 80, 128:
		return nil
	}
	return Errorf(t.String(), "unsupported floating point width %d", t.Width)
}

// IndexType is the machine word sized integer used for indexing.
type IndexType struct{}

func (IndexType) String() string      { return "index" }
func (IndexType) TypeDialect() string { return BuiltinDialect }

// TensorType is a statically shaped multi-dimensional aggregate of elements of
// a non-tensor type, optionally annotated with an encoding attribute.
type TensorType struct {
	Shape    []int64
	Element  Type
	Encoding Attribute
}

// NewTensorType returns a new verified [TensorType].
// The shape is copied.
func NewTensorType(shape []int64, element Type, encoding Attribute) (TensorType, error) {
	t := TensorType{
		Shape:    append([]int64{}, shape...),
		Element:  element,
		Encoding: encoding,
	}
	if err := t.Verify(); err != nil {
		return TensorType{}, err
	}
	return t, nil
}

func (t TensorType) String() string {
	var sb strings.Builder
	sb.WriteString("tensor<")
	for _, d := range t.Shape {
		fmt.Fprintf(&sb, "%dx", d)
	}
	if t.Element != nil {
		sb.WriteString(t.Element.String())
	}
	if t.Encoding != nil {
		sb.WriteString(", ")
		sb.WriteString(t.Encoding.String())
	}
	sb.WriteString(">")
	return sb.String()
}

func (TensorType) TypeDialect() string { return BuiltinDialect }

// Rank returns the number of dimensions of the tensor.
func (t TensorType) Rank() int {
	return len(t.Shape)
}

// NumElements returns the total number of elements of the tensor.
func (t TensorType) NumElements() (n int64) {
	n = 1
	for _, d := range t.Shape {
		n *= d
	}
	return
}

// Verify checks the shape and element type of the tensor, and
// the encoding against them if one is attached.
func (t TensorType) Verify() error {
	if t.Element == nil {
		return Errorf(t.String(), "tensor element type is missing")
	}
	if _, ok := t.Element.(TensorType); ok {
		return Errorf(t.String(), "tensor element type cannot be a tensor")
	}
	for _, d := range t.Shape {
		if d < 0 {
			return Errorf(t.String(), "tensor dimensions must be non-negative, but found %d", d)
		}
	}
	if err := VerifyType(t.Element); err != nil {
		return err
	}
	if t.Encoding != nil {
		enc, ok := t.Encoding.(TensorEncoding)
		if !ok {
			return Errorf(t.String(), "attribute %s cannot be used as a tensor encoding", t.Encoding)
		}
		if err := enc.VerifyEncoding(t.Shape, t.Element); err != nil {
			return err
		}
	}
	return nil
}

// FunctionType is the signature of a function or an operation.
type FunctionType struct {
	Inputs  []Type
	Results []Type
}

func (t FunctionType) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	writeTypeList(&sb, t.Inputs)
	sb.WriteString(") -> ")
	if len(t.Results) == 1 {
		if _, isFunc := t.Results[0].(FunctionType); !isFunc {
			sb.WriteString(t.Results[0].String())
			return sb.String()
		}
	}
	sb.WriteString("(")
	writeTypeList(&sb, t.Results)
	sb.WriteString(")")
	return sb.String()
}

func (FunctionType) TypeDialect() string { return BuiltinDialect }

func writeTypeList(sb *strings.Builder, types []Type) {
	for i, t := range types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
}

// BitWidth returns the bit width of an integer or floating point type.
// The second return value is false for any other type.
func BitWidth(t Type) (int, bool) {
	switch t := t.(type) {
	case IntegerType:
		return t.Width, true
	case FloatType:
		return t.Width, true
	}
	return 0, false
}

// ElementTypeOrSelf returns the element type of t if t is a tensor, and t otherwise.
func ElementTypeOrSelf(t Type) Type {
	if tt, ok := t.(TensorType); ok {
		return tt.Element
	}
	return t
}

// IsInteger returns true if t is an [IntegerType] of any signedness.
func IsInteger(t Type) bool {
	_, ok := t.(IntegerType)
	return ok
}

// IsFloat returns true if t is a [FloatType].
func IsFloat(t Type) bool {
	_, ok := t.(FloatType)
	return ok
}

// IsIntOrFloat returns true if t is an [IntegerType] or a [FloatType].
func IsIntOrFloat(t Type) bool {
	return IsInteger(t) || IsFloat(t)
}

// WithElementType returns a copy of t whose element type is replaced by element.
// The encoding is dropped since it was verified against the former element type.
func (t TensorType) WithElementType(element Type) TensorType {
	return TensorType{
		Shape:   append([]int64{}, t.Shape...),
		Element: element,
	}
}
