// Package backend implements the operation vocabulary of the encryption backend targeted
// by the legalization of the lwe dialect. Every operation but decode takes the
// cryptographic context as first operand; ciphertexts, plaintexts and keys keep the
// types of the lwe dialect.
package backend

import (
	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/lwe"
)

// DialectName is the namespace of the dialect.
const DialectName = "backend"

// Names of the operations of the dialect.
const (
	EncryptOp                 = "backend.encrypt"
	DecryptOp                 = "backend.decrypt"
	MakePackedPlaintextOp     = "backend.make_packed_plaintext"
	MakeCKKSPackedPlaintextOp = "backend.make_ckks_packed_plaintext"
	AddOp                     = "backend.add"
	SubOp                     = "backend.sub"
	MulOp                     = "backend.mul"
	NegateOp                  = "backend.negate"
	DecodeOp                  = "backend.decode"
)

// CryptoContextType is the type of the opaque handle bundling the scheme parameters,
// the encoder and the evaluator of the backend.
type CryptoContextType struct{}

func (CryptoContextType) String() string      { return "!backend.crypto_context" }
func (CryptoContextType) TypeDialect() string { return DialectName }

var (
	isContext = ir.OfType[CryptoContextType]("context", "a !backend.crypto_context")
	isCt      = func(name string) ir.Constraint {
		return ir.OfType[lwe.RLWECiphertextType](name, "an RLWE ciphertext")
	}
	isPt = func(name string) ir.Constraint {
		return ir.OfType[lwe.RLWEPlaintextType](name, "an RLWE plaintext")
	}
)

// Dialect returns the backend dialect.
func Dialect() *ir.Dialect {
	return &ir.Dialect{
		Name: DialectName,
		Ops: []*ir.OpDefinition{
			{
				Name:     EncryptOp,
				Operands: []ir.Constraint{isContext, isPt("plaintext"), ir.OfType[lwe.RLWEPublicKeyType]("public_key", "an RLWE public key")},
				Results:  []ir.Constraint{isCt("output")},
				Verify:   verifyEncrypt,
			},
			{
				Name:     DecryptOp,
				Operands: []ir.Constraint{isContext, isCt("ciphertext"), ir.OfType[lwe.RLWESecretKeyType]("secret_key", "an RLWE secret key")},
				Results:  []ir.Constraint{isPt("output")},
				Verify:   verifyDecrypt,
			},
			{
				Name:     MakePackedPlaintextOp,
				Operands: []ir.Constraint{isContext, vectorOf("values", ir.I(64))},
				Results:  []ir.Constraint{isPt("output")},
				Verify:   verifyMakePlaintext,
			},
			{
				Name:     MakeCKKSPackedPlaintextOp,
				Operands: []ir.Constraint{isContext, vectorOf("values", ir.F(64))},
				Results:  []ir.Constraint{isPt("output")},
				Verify:   verifyMakePlaintext,
			},
			{
				Name:             AddOp,
				Operands:         []ir.Constraint{isContext, isCt("lhs"), isCt("rhs")},
				Results:          []ir.Constraint{isCt("output")},
				Verify:           verifySameCiphertexts,
				InferResultTypes: inferFirstCiphertext,
			},
			{
				Name:             SubOp,
				Operands:         []ir.Constraint{isContext, isCt("lhs"), isCt("rhs")},
				Results:          []ir.Constraint{isCt("output")},
				Verify:           verifySameCiphertexts,
				InferResultTypes: inferFirstCiphertext,
			},
			{
				Name:             MulOp,
				Operands:         []ir.Constraint{isContext, isCt("lhs"), isCt("rhs")},
				Results:          []ir.Constraint{isCt("output")},
				Verify:           verifyMul,
				InferResultTypes: inferMul,
			},
			{
				Name:             NegateOp,
				Operands:         []ir.Constraint{isContext, isCt("input")},
				Results:          []ir.Constraint{isCt("output")},
				Verify:           verifySameCiphertexts,
				InferResultTypes: inferFirstCiphertext,
			},
			{
				Name:     DecodeOp,
				Operands: []ir.Constraint{isPt("plaintext")},
				Results:  []ir.Constraint{ir.AnyType("output")},
				Verify:   verifyDecode,
			},
		},
		ParseType: func(p *ir.Parser, mnemonic string) (ir.Type, error) {
			if mnemonic != "crypto_context" {
				return nil, p.Errorf("unknown type '!backend.%s'", mnemonic)
			}
			return CryptoContextType{}, nil
		},
	}
}

// Dialects returns the backend dialect and the dialects its operations depend on.
func Dialects() []*ir.Dialect {
	return append(lwe.Dialects(), Dialect())
}

// vectorOf returns a constraint accepting the rank 1 tensors of the given element type,
// the only vectors the backend API accepts. The tensor encoding is not part of the
// packed values and is ignored.
func vectorOf(name string, element ir.Type) ir.Constraint {
	return ir.Constraint{
		Name:        name,
		Description: "a tensor<Nx" + element.String() + ">",
		Allows: func(t ir.Type) bool {
			tt, ok := t.(ir.TensorType)
			return ok && tt.Rank() == 1 && ir.TypesEqual(tt.Element, element)
		},
	}
}

func verifyEncrypt(op *ir.Operation) error {
	key := op.Operand(2).Type().(lwe.RLWEPublicKeyType)
	out := op.Result(0).Type().(lwe.RLWECiphertextType)
	if !ir.AttributesEqual(key.RLWEParams, out.RLWEParams) {
		return op.Errorf("key params do not match the output ciphertext params: key params %s, output ciphertext params %s", key.RLWEParams, out.RLWEParams)
	}
	return nil
}

func verifyDecrypt(op *ir.Operation) error {
	ct := op.Operand(1).Type().(lwe.RLWECiphertextType)
	key := op.Operand(2).Type().(lwe.RLWESecretKeyType)
	if !ir.AttributesEqual(key.RLWEParams, ct.RLWEParams) {
		return op.Errorf("secret key params do not match the input ciphertext params: key params %s, input ciphertext params %s", key.RLWEParams, ct.RLWEParams)
	}
	return nil
}

// verifyMakePlaintext checks that the values fit in the slots of the plaintext ring.
func verifyMakePlaintext(op *ir.Operation) error {
	values := op.Operand(1).Type().(ir.TensorType)
	out := op.Result(0).Type().(lwe.RLWEPlaintextType)
	if n := values.NumElements(); n > int64(out.Ring.Degree()) {
		return op.Errorf("cannot pack %d values in a plaintext of degree %d", n, out.Ring.Degree())
	}
	return nil
}

func verifySameCiphertexts(op *ir.Operation) error {
	want := op.Result(0).Type()
	for i, v := range op.Operands()[1:] {
		if !ir.TypesEqual(v.Type(), want) {
			return op.Errorf("operand #%d has type %s, but the output has type %s", i+1, v.Type(), want)
		}
	}
	return nil
}

func inferFirstCiphertext(operands []ir.Type, _ []ir.NamedAttribute) ([]ir.Type, error) {
	if len(operands) < 2 {
		return nil, ir.Errorf("backend", "expected a context and at least one ciphertext")
	}
	return []ir.Type{operands[1]}, nil
}

// verifyMul checks that the output has the dimension of the tensor product of the operands.
func verifyMul(op *ir.Operation) error {
	x := op.Operand(1).Type().(lwe.RLWECiphertextType)
	y := op.Operand(2).Type().(lwe.RLWECiphertextType)
	if x.RLWEParams.Dimension != y.RLWEParams.Dimension {
		return op.Errorf("input dimensions do not match: lhs has dimension %d, rhs has dimension %d", x.RLWEParams.Dimension, y.RLWEParams.Dimension)
	}
	want := x.WithDimension(x.RLWEParams.Dimension + y.RLWEParams.Dimension - 1)
	if out := op.Result(0).Type(); !ir.TypesEqual(out, want) {
		return op.Errorf("expected output type %s, but found %s", want, out)
	}
	return nil
}

func inferMul(operands []ir.Type, _ []ir.NamedAttribute) ([]ir.Type, error) {
	if len(operands) != 3 {
		return nil, ir.Errorf("backend", "expected a context and two ciphertexts")
	}
	x, okx := operands[1].(lwe.RLWECiphertextType)
	y, oky := operands[2].(lwe.RLWECiphertextType)
	if !okx || !oky {
		return nil, ir.Errorf("backend", "expected two RLWE ciphertexts, but found %s and %s", operands[1], operands[2])
	}
	return []ir.Type{x.WithDimension(x.RLWEParams.Dimension + y.RLWEParams.Dimension - 1)}, nil
}

func verifyDecode(op *ir.Operation) error {
	pt := op.Operand(0).Type().(lwe.RLWEPlaintextType)
	if out := op.Result(0).Type(); !ir.TypesEqual(out, pt.UnderlyingType) {
		return op.Errorf("output type %s must be the underlying type of the plaintext %s", out, pt.UnderlyingType)
	}
	return nil
}
