// Package lwe implements the LWE dialect: the types of (R)LWE ciphertexts, plaintexts
// and keys, the attributes carrying their cryptographic parameters and encodings, and
// the operations on them, together with the verifiers enforcing their invariants.
//
// All checks run when an operation is built or parsed. A check failure is returned as
// an [ir.Diagnostic]; states excluded by the operand constraints raise an [ir.InternalFault].
package lwe

import (
	"fmt"

	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/modarith"
	"github.com/tuneinsight/lattigo-ir/polynomial"
)

// DialectName is the namespace of the dialect.
const DialectName = "lwe"

// Dialect returns the lwe dialect.
func Dialect() *ir.Dialect {
	return &ir.Dialect{
		Name:           DialectName,
		Ops:            opDefinitions(),
		ParseType:      parseType,
		ParseAttribute: parseAttribute,
	}
}

// Dialects returns the lwe dialect and the dialects its types and attributes depend on.
func Dialects() []*ir.Dialect {
	return []*ir.Dialect{modarith.Dialect(), polynomial.Dialect(), Dialect()}
}

func ringAttr(op *ir.Operation) (polynomial.RingAttr, bool) {
	return ir.AttrAs[polynomial.RingAttr](op, "ring")
}

// NoiseBudget returns the number of bits of the coefficient modulus of the ciphertext ring
// that are not used by the cleartext, i.e. the room left for the encryption noise.
func NoiseBudget(t RLWECiphertextType) (float64, error) {
	enc, ok := t.Encoding.(Encoding)
	if !ok {
		return 0, fmt.Errorf("lwe.NoiseBudget: %s has no lwe encoding", t)
	}
	_, bitwidth := enc.Cleartext()
	return t.RLWEParams.Ring.LogCoefficientModulus() - float64(bitwidth), nil
}
