package lwe

import (
	"fmt"

	"github.com/tuneinsight/lattigo-ir/ir"
)

// Names of the operations of the dialect.
const (
	RLWEEncodeOp                = "lwe.rlwe_encode"
	RLWEDecodeOp                = "lwe.rlwe_decode"
	RLWEEncryptOp               = "lwe.rlwe_encrypt"
	RLWEDecryptOp               = "lwe.rlwe_decrypt"
	TrivialEncryptOp            = "lwe.trivial_encrypt"
	ReinterpretUnderlyingTypeOp = "lwe.reinterpret_underlying_type"
	RAddOp                      = "lwe.radd"
	RSubOp                      = "lwe.rsub"
	RNegateOp                   = "lwe.rnegate"
	RMulOp                      = "lwe.rmul"
)

var (
	isRLWECiphertext = func(name string) ir.Constraint {
		return ir.OfType[RLWECiphertextType](name, "an RLWE ciphertext")
	}
	isRLWEPlaintext = func(name string) ir.Constraint {
		return ir.OfType[RLWEPlaintextType](name, "an RLWE plaintext")
	}
	isRLWEKey = func(name string) ir.Constraint {
		return ir.OneOf(name, "an RLWE public or secret key",
			ir.OfType[RLWEPublicKeyType]("", ""),
			ir.OfType[RLWESecretKeyType]("", ""))
	}
	isCleartext = func(name string) ir.Constraint {
		return ir.Constraint{
			Name:        name,
			Description: "an integer, a float or a tensor of integers or floats",
			Allows: func(t ir.Type) bool {
				return ir.IsIntOrFloat(ir.ElementTypeOrSelf(t))
			},
		}
	}
)

func opDefinitions() []*ir.OpDefinition {
	return []*ir.OpDefinition{
		{
			Name:       RLWEEncodeOp,
			Operands:   []ir.Constraint{isCleartext("input")},
			Results:    []ir.Constraint{isRLWEPlaintext("output")},
			Attributes: []string{"encoding", "ring"},
			Verify:     verifyRLWEEncode,
		},
		{
			Name:       RLWEDecodeOp,
			Operands:   []ir.Constraint{isRLWEPlaintext("input")},
			Results:    []ir.Constraint{isCleartext("output")},
			Attributes: []string{"encoding", "ring"},
			Verify:     verifyRLWEDecode,
		},
		{
			Name:     RLWEEncryptOp,
			Operands: []ir.Constraint{isRLWEPlaintext("input"), isRLWEKey("key")},
			Results:  []ir.Constraint{isRLWECiphertext("output")},
			Verify:   verifyRLWEEncrypt,
		},
		{
			Name:     RLWEDecryptOp,
			Operands: []ir.Constraint{isRLWECiphertext("input"), ir.OfType[RLWESecretKeyType]("secret_key", "an RLWE secret key")},
			Results:  []ir.Constraint{isRLWEPlaintext("output")},
			Verify:   verifyRLWEDecrypt,
		},
		{
			Name:       TrivialEncryptOp,
			Operands:   []ir.Constraint{ir.OfType[LWEPlaintextType]("input", "an LWE plaintext")},
			Results:    []ir.Constraint{ir.OfType[LWECiphertextType]("output", "an LWE ciphertext")},
			Attributes: []string{"params"},
			Verify:     verifyTrivialEncrypt,
		},
		{
			Name:     ReinterpretUnderlyingTypeOp,
			Operands: []ir.Constraint{isRLWECiphertext("input")},
			Results:  []ir.Constraint{isRLWECiphertext("output")},
			Verify:   verifyReinterpretUnderlyingType,
		},
		{
			Name:             RAddOp,
			Operands:         []ir.Constraint{isRLWECiphertext("lhs"), isRLWECiphertext("rhs")},
			Results:          []ir.Constraint{isRLWECiphertext("output")},
			Verify:           verifySameOperandsAndResultType,
			InferResultTypes: inferSameAsFirstOperand,
		},
		{
			Name:             RSubOp,
			Operands:         []ir.Constraint{isRLWECiphertext("lhs"), isRLWECiphertext("rhs")},
			Results:          []ir.Constraint{isRLWECiphertext("output")},
			Verify:           verifySameOperandsAndResultType,
			InferResultTypes: inferSameAsFirstOperand,
		},
		{
			Name:             RNegateOp,
			Operands:         []ir.Constraint{isRLWECiphertext("input")},
			Results:          []ir.Constraint{isRLWECiphertext("output")},
			Verify:           verifySameOperandsAndResultType,
			InferResultTypes: inferSameAsFirstOperand,
		},
		{
			Name:             RMulOp,
			Operands:         []ir.Constraint{isRLWECiphertext("lhs"), isRLWECiphertext("rhs")},
			Results:          []ir.Constraint{isRLWECiphertext("output")},
			Verify:           verifyRMul,
			InferResultTypes: inferRMul,
		},
	}
}

func verifyRLWEEncode(op *ir.Operation) error {

	encoding, ok := op.Attr("encoding").(Encoding)
	if !ok {
		return op.Errorf("attribute 'encoding' must be an lwe encoding, but found %s", op.Attr("encoding"))
	}

	ring, ok := ringAttr(op)
	if !ok {
		return op.Errorf("attribute 'ring' must be a #polynomial.ring, but found %s", op.Attr("ring"))
	}

	output := op.Result(0).Type().(RLWEPlaintextType)

	if !ir.AttributesEqual(encoding, output.Encoding) {
		return op.Errorf("encoding %s does not match the encoding of the output %s", encoding, output.Encoding)
	}

	if !ir.AttributesEqual(ring, output.Ring) {
		return op.Errorf("ring %s does not match the ring of the output %s", ring, output.Ring)
	}

	if input := op.Operand(0).Type(); !ir.TypesEqual(input, output.UnderlyingType) {
		return op.Errorf("the underlying type of the output (%s) must be the type of the input (%s)", output.UnderlyingType, input)
	}

	return nil
}

func verifyRLWEDecode(op *ir.Operation) error {

	input := op.Operand(0).Type().(RLWEPlaintextType)

	if !ir.AttributesEqual(op.Attr("encoding"), input.Encoding) {
		return op.Errorf("encoding %s does not match the encoding of the input %s", op.Attr("encoding"), input.Encoding)
	}

	if !ir.AttributesEqual(op.Attr("ring"), input.Ring) {
		return op.Errorf("ring %s does not match the ring of the input %s", op.Attr("ring"), input.Ring)
	}

	return nil
}

// verifyRLWEEncrypt checks that the key was generated for the parameters of the output ciphertext.
func verifyRLWEEncrypt(op *ir.Operation) error {

	var keyParams RLWEParamsAttr

	switch key := op.Operand(1).Type().(type) {
	case RLWEPublicKeyType:
		keyParams = key.RLWEParams
	case RLWESecretKeyType:
		keyParams = key.RLWEParams
	default:
		ir.Unreachable("'%s' op key of type %s is excluded by the operand constraints", op.Name(), key)
	}

	outputParams := op.Result(0).Type().(RLWECiphertextType).RLWEParams

	if !ir.AttributesEqual(keyParams, outputParams) {
		return op.Errorf("key params do not match the output ciphertext params: key params %s, output ciphertext params %s", keyParams, outputParams)
	}

	return nil
}

func verifyRLWEDecrypt(op *ir.Operation) error {

	input := op.Operand(0).Type().(RLWECiphertextType)
	key := op.Operand(1).Type().(RLWESecretKeyType)

	if !ir.AttributesEqual(key.RLWEParams, input.RLWEParams) {
		return op.Errorf("secret key params do not match the input ciphertext params: key params %s, input ciphertext params %s", key.RLWEParams, input.RLWEParams)
	}

	return nil
}

func verifyTrivialEncrypt(op *ir.Operation) error {

	params := op.Attr("params")
	outParams := op.Result(0).Type().(LWECiphertextType).LWEParams

	if !ir.AttributesEqual(params, outParams) {
		return op.Errorf("lwe_params attr must match on the op and the output type, but found op attr %s and output type attr %s", params, outParams)
	}

	return nil
}

func verifyReinterpretUnderlyingType(op *ir.Operation) error {

	input := op.Operand(0).Type().(RLWECiphertextType)
	output := op.Result(0).Type().(RLWECiphertextType)

	if !ir.AttributesEqual(input.Encoding, output.Encoding) || !ir.AttributesEqual(input.RLWEParams, output.RLWEParams) {
		return op.Errorf("the only allowed difference in the input and output are in the underlying_type field, but found input type %s and output type %s", input, output)
	}

	if ir.TypesEqual(input.UnderlyingType, output.UnderlyingType) {
		return op.Errorf("input and output have the same underlying type %s", input.UnderlyingType)
	}

	return nil
}

func verifySameOperandsAndResultType(op *ir.Operation) error {
	want := op.Result(0).Type()
	for i, v := range op.Operands() {
		if !ir.TypesEqual(v.Type(), want) {
			return op.Errorf("operand #%d has type %s, but the output has type %s", i, v.Type(), want)
		}
	}
	return nil
}

func inferSameAsFirstOperand(operands []ir.Type, _ []ir.NamedAttribute) ([]ir.Type, error) {
	if len(operands) == 0 {
		return nil, fmt.Errorf("expected at least one operand")
	}
	return []ir.Type{operands[0]}, nil
}

// verifyRMul checks the dimension algebra of ciphertext multiplication:
// equal operand dimensions, and an output of dimension x.dim + y.dim - 1.
func verifyRMul(op *ir.Operation) error {

	x := op.Operand(0).Type().(RLWECiphertextType)
	y := op.Operand(1).Type().(RLWECiphertextType)

	if x.RLWEParams.Dimension != y.RLWEParams.Dimension {
		return op.Errorf("input dimensions do not match: lhs has dimension %d, rhs has dimension %d", x.RLWEParams.Dimension, y.RLWEParams.Dimension)
	}

	if !ir.AttributesEqual(x.Encoding, y.Encoding) {
		return op.Errorf("input encodings do not match: lhs has encoding %s, rhs has encoding %s", x.Encoding, y.Encoding)
	}

	if !ir.AttributesEqual(x.RLWEParams.Ring, y.RLWEParams.Ring) {
		return op.Errorf("input rings do not match")
	}

	out := op.Result(0).Type().(RLWECiphertextType)

	if want := x.RLWEParams.Dimension + y.RLWEParams.Dimension - 1; out.RLWEParams.Dimension != want {
		return op.Errorf("output.dim == x.dim + y.dim - 1 does not hold: expected %d, but found %d", want, out.RLWEParams.Dimension)
	}

	if !ir.AttributesEqual(out.RLWEParams.Ring, x.RLWEParams.Ring) {
		return op.Errorf("output ring does not match the input ring")
	}

	return nil
}

// inferRMul derives the output of a ciphertext multiplication: the encoding, ring and
// underlying type of the left operand, with dimension x.dim + y.dim - 1.
func inferRMul(operands []ir.Type, _ []ir.NamedAttribute) ([]ir.Type, error) {

	if len(operands) != 2 {
		return nil, fmt.Errorf("expected 2 operands, but found %d", len(operands))
	}

	x, ok := operands[0].(RLWECiphertextType)
	if !ok {
		return nil, fmt.Errorf("lhs must be an RLWE ciphertext, but found %s", operands[0])
	}

	y, ok := operands[1].(RLWECiphertextType)
	if !ok {
		return nil, fmt.Errorf("rhs must be an RLWE ciphertext, but found %s", operands[1])
	}

	return []ir.Type{x.WithDimension(x.RLWEParams.Dimension + y.RLWEParams.Dimension - 1)}, nil
}
