package lwe

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/modarith"
	"github.com/tuneinsight/lattigo-ir/polynomial"
)

func newContext() *ir.Context {
	return ir.NewContext(Dialects()...)
}

func testRing(t *testing.T, modulus int64, storage int, n int) polynomial.RingAttr {
	coeff, err := modarith.NewIntType(big.NewInt(modulus), ir.I(storage))
	require.NoError(t, err)
	ring, err := polynomial.NewRingAttr(coeff, polynomial.NewCyclotomic(n))
	require.NoError(t, err)
	return ring
}

func testCiphertext(t *testing.T, dimension int, underlying ir.Type) RLWECiphertextType {
	params, err := NewRLWEParamsAttr(dimension, testRing(t, 7917, 32, 16))
	require.NoError(t, err)
	ct, err := NewRLWECiphertextType(InverseCanonicalEmbeddingEncodingAttr{CleartextStart: 14, CleartextBitwidth: 3}, params, underlying)
	require.NoError(t, err)
	return ct
}

// newFunc returns a function of the given inputs and a builder appending to its body.
func newFunc(t *testing.T, ctx *ir.Context, inputs, results []ir.Type) (*ir.Module, *ir.Func, *ir.Builder) {
	f := ir.NewFunc("f", inputs, results)
	m := ir.NewModule()
	require.NoError(t, m.AddFunc(f))
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(f.Body())
	return m, f, b
}

func TestRMul(t *testing.T) {

	ctx := newContext()
	underlying := ir.I(16)

	t.Run("Inference", func(t *testing.T) {
		for d := 1; d < 5; d++ {
			x := testCiphertext(t, d, underlying)
			_, f, b := newFunc(t, ctx, []ir.Type{x, x}, nil)

			prod, err := b.CreateValue(RMulOp, f.Arguments(), nil)
			require.NoError(t, err)

			ct, ok := ir.TypeAs[RLWECiphertextType](prod)
			require.True(t, ok)
			require.Equal(t, 2*d-1, ct.RLWEParams.Dimension)
			require.True(t, ir.AttributesEqual(x.Encoding, ct.Encoding))
			require.True(t, ir.AttributesEqual(x.RLWEParams.Ring, ct.RLWEParams.Ring))
		}
	})

	t.Run("UnequalDimensions", func(t *testing.T) {
		x, y := testCiphertext(t, 2, underlying), testCiphertext(t, 3, underlying)
		_, f, b := newFunc(t, ctx, []ir.Type{x, y}, nil)

		_, err := b.CreateValue(RMulOp, f.Arguments(), nil)
		require.ErrorContains(t, err, "lhs has dimension 2, rhs has dimension 3")

		_, err = b.CreateValue(RMulOp, f.Arguments(), x.WithDimension(4))
		require.Error(t, err)
		require.Empty(t, f.Body().Operations())
	})

	t.Run("WrongResultDimension", func(t *testing.T) {
		x := testCiphertext(t, 2, underlying)
		_, f, b := newFunc(t, ctx, []ir.Type{x, x}, nil)

		_, err := b.CreateValue(RMulOp, f.Arguments(), x.WithDimension(2))
		require.ErrorContains(t, err, "expected 3, but found 2")

		d, ok := ir.AsDiagnostic(err)
		require.True(t, ok)
		require.Equal(t, RMulOp, d.Op)
	})
}

func TestSameTypeArithmetic(t *testing.T) {

	ctx := newContext()
	x := testCiphertext(t, 2, ir.I(16))
	y := testCiphertext(t, 2, ir.I(32))
	_, f, b := newFunc(t, ctx, []ir.Type{x, x, y}, nil)
	args := f.Arguments()

	for _, name := range []string{RAddOp, RSubOp} {
		sum, err := b.CreateValue(name, args[:2], nil)
		require.NoError(t, err, name)
		require.True(t, ir.TypesEqual(x, sum.Type()))

		_, err = b.CreateValue(name, []*ir.Value{args[0], args[2]}, nil)
		require.Error(t, err, name)
	}

	neg, err := b.CreateValue(RNegateOp, args[2:], nil)
	require.NoError(t, err)
	require.True(t, ir.TypesEqual(y, neg.Type()))
}

func TestTrivialEncrypt(t *testing.T) {

	ctx := newContext()
	encoding := BitFieldEncodingAttr{CleartextStart: 30, CleartextBitwidth: 3}
	pt := LWEPlaintextType{Encoding: encoding}
	ct := LWECiphertextType{Encoding: encoding, LWEParams: LWEParamsAttr{CMod: big.NewInt(7917), Dimension: 10}}

	_, f, b := newFunc(t, ctx, []ir.Type{pt}, nil)

	cmod, ok := new(big.Int).SetString("7917", 10)
	require.True(t, ok)

	_, err := b.CreateValue(TrivialEncryptOp, f.Arguments(), ct, ir.Named("params", LWEParamsAttr{CMod: cmod, Dimension: 10}))
	require.NoError(t, err)

	for _, params := range []LWEParamsAttr{
		{CMod: big.NewInt(7917), Dimension: 11},
		{CMod: big.NewInt(7919), Dimension: 10},
	} {
		_, err = b.CreateValue(TrivialEncryptOp, f.Arguments(), ct, ir.Named("params", params))
		require.ErrorContains(t, err, "lwe_params attr must match on the op and the output type")
	}

	_, err = b.CreateValue(TrivialEncryptOp, f.Arguments(), ct)
	require.ErrorContains(t, err, "requires attribute 'params'")
}

func TestReinterpretUnderlyingType(t *testing.T) {

	ctx := newContext()
	tensor, err := ir.NewTensorType([]int64{8}, ir.I(16), nil)
	require.NoError(t, err)

	x := testCiphertext(t, 2, tensor)
	_, f, b := newFunc(t, ctx, []ir.Type{x}, nil)

	_, err = b.CreateValue(ReinterpretUnderlyingTypeOp, f.Arguments(), testCiphertext(t, 2, ir.I(16)))
	require.NoError(t, err)

	_, err = b.CreateValue(ReinterpretUnderlyingTypeOp, f.Arguments(), x)
	require.ErrorContains(t, err, "same underlying type")

	// params differ: rejected whether or not the underlying types differ
	for _, underlying := range []ir.Type{tensor, ir.I(16)} {
		_, err = b.CreateValue(ReinterpretUnderlyingTypeOp, f.Arguments(), testCiphertext(t, 3, underlying))
		require.ErrorContains(t, err, "only allowed difference")
	}

	other := testCiphertext(t, 2, ir.I(16))
	other.Encoding = PolynomialEvaluationEncodingAttr{CleartextStart: 14, CleartextBitwidth: 3}
	_, err = b.CreateValue(ReinterpretUnderlyingTypeOp, f.Arguments(), other)
	require.ErrorContains(t, err, "only allowed difference")
}

func TestEncodeEncryptDecrypt(t *testing.T) {

	ctx := newContext()

	ring := testRing(t, 7917, 32, 16)
	encoding := InverseCanonicalEmbeddingEncodingAttr{CleartextStart: 14, CleartextBitwidth: 3}

	tensor, err := ir.NewTensorType([]int64{16}, ir.I(16), nil)
	require.NoError(t, err)

	pt, err := NewRLWEPlaintextType(encoding, ring, tensor)
	require.NoError(t, err)

	ct := testCiphertext(t, 2, tensor)
	params := ct.RLWEParams
	otherParams := params
	otherParams.Dimension = 3

	pk := RLWEPublicKeyType{RLWEParams: params}
	sk := RLWESecretKeyType{RLWEParams: params}
	otherPK := RLWEPublicKeyType{RLWEParams: otherParams}
	otherSK := RLWESecretKeyType{RLWEParams: otherParams}

	_, f, b := newFunc(t, ctx, []ir.Type{tensor, pk, sk, otherPK, otherSK, ct}, nil)
	args := f.Arguments()

	attrs := []ir.NamedAttribute{ir.Named("encoding", encoding), ir.Named("ring", ring)}

	t.Run("Encode", func(t *testing.T) {
		encoded, err := b.CreateValue(RLWEEncodeOp, args[:1], pt, attrs...)
		require.NoError(t, err)

		wrong := pt
		wrong.UnderlyingType = ir.I(16)
		_, err = b.CreateValue(RLWEEncodeOp, args[:1], wrong, attrs...)
		require.ErrorContains(t, err, "must be the type of the input")

		_, err = b.CreateValue(RLWEEncodeOp, args[:1], pt, ir.Named("encoding", encoding), ir.Named("ring", testRing(t, 17, 32, 8)))
		require.ErrorContains(t, err, "does not match the ring of the output")

		decoded, err := b.CreateValue(RLWEDecodeOp, []*ir.Value{encoded}, tensor, attrs...)
		require.NoError(t, err)
		require.True(t, ir.TypesEqual(tensor, decoded.Type()))
	})

	t.Run("Encrypt", func(t *testing.T) {
		encoded, err := b.CreateValue(RLWEEncodeOp, args[:1], pt, attrs...)
		require.NoError(t, err)

		for _, key := range []*ir.Value{args[1], args[2]} {
			_, err = b.CreateValue(RLWEEncryptOp, []*ir.Value{encoded, key}, ct)
			require.NoError(t, err)
		}

		for _, key := range []*ir.Value{args[3], args[4]} {
			_, err = b.CreateValue(RLWEEncryptOp, []*ir.Value{encoded, key}, ct)
			require.ErrorContains(t, err, "key params do not match the output ciphertext params")
		}

		_, err = b.CreateValue(RLWEEncryptOp, []*ir.Value{encoded, args[0]}, ct)
		require.ErrorContains(t, err, "must be an RLWE public or secret key")
	})

	t.Run("Decrypt", func(t *testing.T) {
		_, err := b.CreateValue(RLWEDecryptOp, []*ir.Value{args[5], args[2]}, pt)
		require.NoError(t, err)

		_, err = b.CreateValue(RLWEDecryptOp, []*ir.Value{args[5], args[4]}, pt)
		require.ErrorContains(t, err, "secret key params do not match")

		_, err = b.CreateValue(RLWEDecryptOp, []*ir.Value{args[5], args[1]}, pt)
		require.Error(t, err)
	})
}

func TestEncryptUnknownKey(t *testing.T) {

	// an operation sharing the encrypt verifier but without its operand constraints
	ctx := newContext()
	ctx.Register(&ir.Dialect{
		Name: "lwetest",
		Ops: []*ir.OpDefinition{{
			Name:     "lwetest.encrypt",
			Operands: []ir.Constraint{ir.AnyType("input"), ir.AnyType("key")},
			Results:  []ir.Constraint{ir.AnyType("output")},
			Verify:   verifyRLWEEncrypt,
		}},
	})

	ct := testCiphertext(t, 2, ir.I(16))
	_, f, b := newFunc(t, ctx, []ir.Type{ir.I(16), ir.I(32)}, nil)

	var fault interface{}
	func() {
		defer func() { fault = recover() }()
		_, _ = b.CreateValue("lwetest.encrypt", f.Arguments(), ct)
	}()

	require.IsType(t, ir.InternalFault{}, fault)
	require.Contains(t, fault.(ir.InternalFault).Message, "i32")
}

func TestBitFieldEncodings(t *testing.T) {

	t.Run("Bitwidth", func(t *testing.T) {
		for _, w := range []int{1, 8, 16, 32, 64} {
			for b := 0; b <= w+4; b++ {
				for _, enc := range []Encoding{
					BitFieldEncodingAttr{CleartextStart: 0, CleartextBitwidth: b},
					UnspecifiedBitFieldEncodingAttr{CleartextBitwidth: b},
				} {
					_, err := ir.NewTensorType([]int64{4}, ir.I(w), enc)
					if w >= b {
						require.NoError(t, err, "%s over i%d", enc, w)
					} else {
						require.ErrorContains(t, err, "too small to store the cleartext", "%s over i%d", enc, w)
					}
				}
			}
		}
	})

	t.Run("Start", func(t *testing.T) {
		for _, w := range []int{8, 16} {
			for start := -2; start <= w+2; start++ {
				enc := BitFieldEncodingAttr{CleartextStart: start, CleartextBitwidth: 1}
				_, err := ir.NewTensorType([]int64{4}, ir.I(w), enc)
				if start >= 0 && start < w {
					require.NoError(t, err, "start %d over i%d", start, w)
				} else {
					require.ErrorContains(t, err, fmt.Sprintf("legal range [0, %d]", w-1))
				}
			}
		}
	})

	t.Run("ElementType", func(t *testing.T) {
		enc := BitFieldEncodingAttr{CleartextStart: 0, CleartextBitwidth: 3}
		for _, elem := range []ir.Type{
			ir.IntegerType{Width: 16, Signedness: ir.Signed},
			ir.IntegerType{Width: 16, Signedness: ir.Unsigned},
			ir.F(32),
			ir.IndexType{},
		} {
			_, err := ir.NewTensorType([]int64{4}, elem, enc)
			require.ErrorContains(t, err, "signless integer element type", elem.String())
		}
	})

	t.Run("Negative", func(t *testing.T) {
		require.Error(t, ir.VerifyAttribute(BitFieldEncodingAttr{CleartextBitwidth: -1}))
	})
}

func TestPolynomialEncodings(t *testing.T) {

	// the coefficient modulus is stored on 32 bits
	elem, err := polynomial.NewPolynomialType(testRing(t, 65537, 32, 16))
	require.NoError(t, err)

	intRing, err := polynomial.NewRingAttr(ir.I(32), polynomial.NewCyclotomic(16))
	require.NoError(t, err)
	intElem, err := polynomial.NewPolynomialType(intRing)
	require.NoError(t, err)

	encodings := func(start, bitwidth int) []Encoding {
		return []Encoding{
			PolynomialCoefficientEncodingAttr{CleartextStart: start, CleartextBitwidth: bitwidth},
			PolynomialEvaluationEncodingAttr{CleartextStart: start, CleartextBitwidth: bitwidth},
			InverseCanonicalEmbeddingEncodingAttr{CleartextStart: start, CleartextBitwidth: bitwidth},
		}
	}

	for _, enc := range encodings(31, 32) {
		_, err = ir.NewTensorType([]int64{2}, elem, enc)
		require.NoError(t, err, enc.String())
	}

	for _, enc := range encodings(0, 33) {
		_, err = ir.NewTensorType([]int64{2}, elem, enc)
		require.ErrorContains(t, err, "too small to store the cleartext", enc.String())
	}

	for _, enc := range encodings(32, 3) {
		_, err = ir.NewTensorType([]int64{2}, elem, enc)
		require.ErrorContains(t, err, "legal range [0, 31]", enc.String())
	}

	for _, enc := range encodings(0, 3) {
		_, err = ir.NewTensorType([]int64{2}, intElem, enc)
		require.ErrorContains(t, err, "mod_arith coefficient type", enc.String())

		_, err = ir.NewTensorType([]int64{2}, ir.I(64), enc)
		require.ErrorContains(t, err, "polynomial element type", enc.String())
	}
}

func TestApplicationData(t *testing.T) {
	for _, overflow := range []ir.Attribute{PreserveOverflowAttr{}, NoOverflowAttr{}} {
		require.NoError(t, ir.VerifyAttribute(ApplicationDataAttr{MessageType: ir.I(16), Overflow: overflow}))
	}
	for _, overflow := range []ir.Attribute{ir.UnitAttr{}, ir.StringAttr("no_overflow"), nil} {
		require.Error(t, ir.VerifyAttribute(ApplicationDataAttr{MessageType: ir.I(16), Overflow: overflow}))
	}
}

func TestPlaintextSpace(t *testing.T) {

	crt := FullCRTPackingEncodingAttr{ScalingFactor: 0}

	t.Run("CRTPacking", func(t *testing.T) {
		require.NoError(t, ir.VerifyAttribute(PlaintextSpaceAttr{Ring: testRing(t, 17, 32, 8), Encoding: crt}))
		require.NoError(t, ir.VerifyAttribute(PlaintextSpaceAttr{Ring: testRing(t, 65537, 32, 4096), Encoding: crt}))

		err := ir.VerifyAttribute(PlaintextSpaceAttr{Ring: testRing(t, 19, 32, 8), Encoding: crt})
		require.ErrorContains(t, err, "mod = 19 n = 8")

		// other encodings do not constrain the modulus
		require.NoError(t, ir.VerifyAttribute(PlaintextSpaceAttr{Ring: testRing(t, 19, 32, 8), Encoding: CoefficientEncodingAttr{ScalingFactor: 2}}))
	})

	t.Run("PolynomialModulusShape", func(t *testing.T) {
		coeff, err := modarith.NewIntType(big.NewInt(17), ir.I(32))
		require.NoError(t, err)

		for _, terms := range [][]polynomial.Monomial{
			{{Coefficient: big.NewInt(1), Exponent: 0}, {Coefficient: big.NewInt(1), Exponent: 1}, {Coefficient: big.NewInt(1), Exponent: 8}},
			{{Coefficient: big.NewInt(-1), Exponent: 0}, {Coefficient: big.NewInt(1), Exponent: 8}},
			{{Coefficient: big.NewInt(1), Exponent: 0}, {Coefficient: big.NewInt(2), Exponent: 8}},
			{{Coefficient: big.NewInt(1), Exponent: 8}},
		} {
			poly, err := polynomial.NewIntPolynomial(terms...)
			require.NoError(t, err)
			ring, err := polynomial.NewRingAttr(coeff, poly)
			require.NoError(t, err)
			require.ErrorContains(t, ir.VerifyAttribute(PlaintextSpaceAttr{Ring: ring, Encoding: crt}), "x^n + 1", poly.String())
		}
	})

	t.Run("IntegerCoefficients", func(t *testing.T) {
		ring, err := polynomial.NewRingAttr(ir.I(32), polynomial.NewCyclotomic(8))
		require.NoError(t, err)
		require.NoError(t, ir.VerifyAttribute(PlaintextSpaceAttr{Ring: ring, Encoding: crt}))
	})

	t.Run("NotAnEncoding", func(t *testing.T) {
		require.Error(t, ir.VerifyAttribute(PlaintextSpaceAttr{Ring: testRing(t, 17, 32, 8), Encoding: NoOverflowAttr{}}))
	})
}

func testNewLWECiphertext(t *testing.T, size, slotIndex int) NewLWECiphertextType {
	return NewLWECiphertextType{
		ApplicationData: ApplicationDataAttr{MessageType: ir.I(16), Overflow: PreserveOverflowAttr{}},
		PlaintextSpace:  PlaintextSpaceAttr{Ring: testRing(t, 65537, 32, 16), Encoding: FullCRTPackingEncodingAttr{ScalingFactor: 0}},
		CiphertextSpace: CiphertextSpaceAttr{Ring: testRing(t, 1032193, 64, 16), EncryptionType: LSB, Size: size},
		Key:             KeyAttr{ID: "sk0", Size: 1, SlotIndex: slotIndex},
		ModulusChain: ModulusChainAttr{
			Elements: []ir.IntegerAttr{ir.NewIntegerAttr(1032193, ir.I(64)), ir.NewIntegerAttr(1073692673, ir.I(64))},
			Current:  1,
		},
	}
}

func TestNewLWECiphertext(t *testing.T) {

	for _, tc := range []struct {
		size, slot int
		ok         bool
	}{
		{2, 0, true},
		{3, 0, true},
		{2, 1, true},
		{2, 5, true},
		{3, 1, false},
		{1, 1, false},
	} {
		err := ir.VerifyType(testNewLWECiphertext(t, tc.size, tc.slot))
		if tc.ok {
			require.NoError(t, err, "size %d slot %d", tc.size, tc.slot)
		} else {
			require.ErrorContains(t, err, "nontrivial slot rotation must have size 2", "size %d slot %d", tc.size, tc.slot)
		}
	}

	ct := testNewLWECiphertext(t, 2, 0)
	ct.ModulusChain.Current = 2
	require.ErrorContains(t, ir.VerifyType(ct), "outside the legal range [0, 1]")
}

func TestRoundTrip(t *testing.T) {

	ctx := newContext()

	ring := testRing(t, 7917, 32, 16)
	params, err := NewRLWEParamsAttr(2, ring)
	require.NoError(t, err)

	tensor, err := ir.NewTensorType([]int64{4}, ir.I(16), BitFieldEncodingAttr{CleartextStart: 14, CleartextBitwidth: 3})
	require.NoError(t, err)

	ct := testNewLWECiphertext(t, 2, 1)

	attrs := []ir.Attribute{
		BitFieldEncodingAttr{CleartextStart: 14, CleartextBitwidth: 3},
		UnspecifiedBitFieldEncodingAttr{CleartextBitwidth: 3},
		PolynomialCoefficientEncodingAttr{CleartextStart: 0, CleartextBitwidth: 8},
		PolynomialEvaluationEncodingAttr{CleartextStart: 1, CleartextBitwidth: 8},
		InverseCanonicalEmbeddingEncodingAttr{CleartextStart: 2, CleartextBitwidth: 8},
		params,
		LWEParamsAttr{CMod: new(big.Int).Lsh(big.NewInt(1), 100), Dimension: 630},
		PreserveOverflowAttr{},
		NoOverflowAttr{},
		ct.ApplicationData,
		ApplicationDataAttr{MessageType: tensor, Overflow: NoOverflowAttr{}},
		FullCRTPackingEncodingAttr{ScalingFactor: 0},
		ConstantCoefficientEncodingAttr{ScalingFactor: 1},
		CoefficientEncodingAttr{ScalingFactor: 2},
		InverseCanonicalEncodingAttr{ScalingFactor: 45},
		ct.PlaintextSpace,
		ct.CiphertextSpace,
		CiphertextSpaceAttr{Ring: ring, EncryptionType: MSB, Size: 2},
		CiphertextSpaceAttr{Ring: ring, EncryptionType: Mix, Size: 3},
		ct.Key,
		ct.ModulusChain,
	}

	for _, a := range attrs {
		parsed, err := ir.ParseAttribute(ctx, a.String())
		require.NoError(t, err, a.String())
		require.True(t, ir.AttributesEqual(a, parsed), ir.Diff(a, parsed))
		require.Equal(t, a.String(), parsed.String())
	}

	pt, err := NewRLWEPlaintextType(PolynomialEvaluationEncodingAttr{CleartextStart: 1, CleartextBitwidth: 8}, ring, tensor)
	require.NoError(t, err)

	types := []ir.Type{
		RLWEPublicKeyType{RLWEParams: params},
		RLWESecretKeyType{RLWEParams: params},
		testCiphertext(t, 2, tensor),
		testCiphertext(t, 3, ir.I(16)),
		pt,
		LWECiphertextType{Encoding: UnspecifiedBitFieldEncodingAttr{CleartextBitwidth: 3}, LWEParams: LWEParamsAttr{CMod: big.NewInt(7917), Dimension: 10}},
		LWEPlaintextType{Encoding: BitFieldEncodingAttr{CleartextStart: 30, CleartextBitwidth: 3}},
		ct,
		NewLWEPlaintextType{ApplicationData: ct.ApplicationData, PlaintextSpace: ct.PlaintextSpace},
	}

	for _, typ := range types {
		parsed, err := ir.ParseType(ctx, typ.String())
		require.NoError(t, err, typ.String())
		require.True(t, ir.TypesEqual(typ, parsed), ir.Diff(typ, parsed))
		require.Equal(t, typ.String(), parsed.String())
	}

	t.Run("Rejected", func(t *testing.T) {
		for _, src := range []string{
			"#lwe.bit_field_encoding<cleartext_start = 1>",
			"#lwe.bit_field_encoding<cleartext_start = 1, cleartext_bitwidth = 3, cleartext_end = 4>",
			"#lwe.ciphertext_space<ring = " + ring.String() + ", encryption_type = middle, size = 2>",
			"#lwe.modulus_chain<elements = [\"q\"], current = 0>",
			"#lwe.modulus_chain<elements = [7917 : i64], current = 1>",
			"#lwe.application_data<message_type = i16, overflow = unit>",
			"#lwe.plaintext_space<ring = " + testRing(t, 19, 32, 8).String() + ", encoding = #lwe.full_crt_packing_encoding<scaling_factor = 0>>",
			"#lwe.rlwe_params<dimension = 0, ring = " + ring.String() + ">",
			"#lwe.rlwe_params<dimension = 2, ring = #lwe.no_overflow>",
			"#lwe.unknown<x = 1>",
		} {
			_, err := ir.ParseAttribute(ctx, src)
			require.Error(t, err, src)
		}

		for _, src := range []string{
			"!lwe.rlwe_public_key<>",
			"!lwe.lwe_plaintext<encoding = #lwe.no_overflow>",
			"!lwe.rlwe_ciphertext<encoding = #lwe.bit_field_encoding<cleartext_start = 0, cleartext_bitwidth = 3>, rlwe_params = " + params.String() + ">",
			"!lwe.unknown<x = 1>",
		} {
			_, err := ir.ParseType(ctx, src)
			require.Error(t, err, src)
		}
	})
}

func TestModuleFixedPoint(t *testing.T) {

	ctx := newContext()

	x := testCiphertext(t, 2, ir.I(16))
	sk := RLWESecretKeyType{RLWEParams: x.RLWEParams}
	pt, err := NewRLWEPlaintextType(x.Encoding.(Encoding), x.RLWEParams.Ring, ir.I(16))
	require.NoError(t, err)

	m, f, b := newFunc(t, ctx, []ir.Type{x, x, sk}, []ir.Type{ir.I(16)})
	args := f.Arguments()

	prod, err := b.CreateValue(RMulOp, args[:2], nil)
	require.NoError(t, err)
	sum, err := b.CreateValue(RAddOp, []*ir.Value{prod, prod}, nil)
	require.NoError(t, err)

	// decrypting a dimension 3 ciphertext requires a key of the same params
	_, err = b.CreateValue(RLWEDecryptOp, []*ir.Value{sum, args[2]}, pt)
	require.Error(t, err)

	diff, err := b.CreateValue(RSubOp, args[:2], nil)
	require.NoError(t, err)
	dec, err := b.CreateValue(RLWEDecryptOp, []*ir.Value{diff, args[2]}, pt)
	require.NoError(t, err)
	out, err := b.CreateValue(RLWEDecodeOp, []*ir.Value{dec}, ir.I(16), ir.Named("encoding", x.Encoding), ir.Named("ring", x.RLWEParams.Ring))
	require.NoError(t, err)
	require.NoError(t, b.Return(out))

	require.NoError(t, ir.Verify(ctx, m))

	src := m.String()
	parsed, err := ir.ParseModule(ctx, src)
	require.NoError(t, err)
	require.Equal(t, src, parsed.String())
	require.NoError(t, ir.Verify(ctx, parsed))
}

func TestNoiseBudget(t *testing.T) {

	ring := testRing(t, 65537, 64, 16)
	params, err := NewRLWEParamsAttr(2, ring)
	require.NoError(t, err)

	ct, err := NewRLWECiphertextType(InverseCanonicalEmbeddingEncodingAttr{CleartextStart: 0, CleartextBitwidth: 3}, params, ir.I(3))
	require.NoError(t, err)

	budget, err := NoiseBudget(ct)
	require.NoError(t, err)
	require.InDelta(t, 13.000022, budget, 1e-5)

	ct.Encoding = NoOverflowAttr{}
	_, err = NoiseBudget(ct)
	require.Error(t, err)
}
