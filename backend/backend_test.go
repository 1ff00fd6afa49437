package backend

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/lwe"
	"github.com/tuneinsight/lattigo-ir/modarith"
	"github.com/tuneinsight/lattigo-ir/polynomial"
)

func TestBackend(t *testing.T) {

	ctx := ir.NewContext(Dialects()...)

	coeff, err := modarith.NewIntType(big.NewInt(65537), ir.I(32))
	require.NoError(t, err)
	ring, err := polynomial.NewRingAttr(coeff, polynomial.NewCyclotomic(8))
	require.NoError(t, err)
	params, err := lwe.NewRLWEParamsAttr(2, ring)
	require.NoError(t, err)

	encoding := lwe.PolynomialEvaluationEncodingAttr{CleartextStart: 16, CleartextBitwidth: 16}

	pt, err := lwe.NewRLWEPlaintextType(encoding, ring, ir.I(16))
	require.NoError(t, err)
	ct, err := lwe.NewRLWECiphertextType(encoding, params, ir.I(16))
	require.NoError(t, err)

	i64x8, err := ir.NewTensorType([]int64{8}, ir.I(64), nil)
	require.NoError(t, err)
	i64x16, err := ir.NewTensorType([]int64{16}, ir.I(64), nil)
	require.NoError(t, err)
	f64x8, err := ir.NewTensorType([]int64{8}, ir.F(64), nil)
	require.NoError(t, err)
	i32x8, err := ir.NewTensorType([]int64{8}, ir.I(32), nil)
	require.NoError(t, err)

	pk := lwe.RLWEPublicKeyType{RLWEParams: params}
	sk := lwe.RLWESecretKeyType{RLWEParams: params}

	f := ir.NewFunc("f", []ir.Type{CryptoContextType{}, i64x8, f64x8, i32x8, i64x16, pk, sk}, nil)
	m := ir.NewModule()
	require.NoError(t, m.AddFunc(f))
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(f.Body())

	args := f.Arguments()
	cc := args[0]

	plain, err := b.CreateValue(MakePackedPlaintextOp, []*ir.Value{cc, args[1]}, pt)
	require.NoError(t, err)

	_, err = b.CreateValue(MakeCKKSPackedPlaintextOp, []*ir.Value{cc, args[2]}, pt)
	require.NoError(t, err)

	t.Run("VectorTypes", func(t *testing.T) {
		for _, v := range []*ir.Value{args[2], args[3]} {
			_, err := b.CreateValue(MakePackedPlaintextOp, []*ir.Value{cc, v}, pt)
			require.ErrorContains(t, err, "must be a tensor<Nxi64>")
		}
		_, err := b.CreateValue(MakeCKKSPackedPlaintextOp, []*ir.Value{cc, args[1]}, pt)
		require.ErrorContains(t, err, "must be a tensor<Nxf64>")

		_, err = b.CreateValue(MakePackedPlaintextOp, []*ir.Value{cc, args[4]}, pt)
		require.ErrorContains(t, err, "cannot pack 16 values in a plaintext of degree 8")

		_, err = b.CreateValue(MakePackedPlaintextOp, []*ir.Value{args[1], args[1]}, pt)
		require.ErrorContains(t, err, "!backend.crypto_context")
	})

	enc, err := b.CreateValue(EncryptOp, []*ir.Value{cc, plain, args[5]}, ct)
	require.NoError(t, err)

	t.Run("Encrypt", func(t *testing.T) {
		_, err := b.CreateValue(EncryptOp, []*ir.Value{cc, plain, args[6]}, ct)
		require.ErrorContains(t, err, "must be an RLWE public key")

		_, err = b.CreateValue(EncryptOp, []*ir.Value{cc, plain, args[5]}, ct.WithDimension(3))
		require.ErrorContains(t, err, "key params do not match")
	})

	t.Run("Arithmetic", func(t *testing.T) {
		sum, err := b.CreateValue(AddOp, []*ir.Value{cc, enc, enc}, nil)
		require.NoError(t, err)
		require.True(t, ir.TypesEqual(ct, sum.Type()))

		_, err = b.CreateValue(NegateOp, []*ir.Value{cc, sum}, nil)
		require.NoError(t, err)

		prod, err := b.CreateValue(MulOp, []*ir.Value{cc, enc, sum}, nil)
		require.NoError(t, err)
		require.Equal(t, 3, prod.Type().(lwe.RLWECiphertextType).RLWEParams.Dimension)

		_, err = b.CreateValue(SubOp, []*ir.Value{cc, enc, prod}, nil)
		require.ErrorContains(t, err, "operand #2")

		_, err = b.CreateValue(MulOp, []*ir.Value{cc, enc, prod}, nil)
		require.ErrorContains(t, err, "lhs has dimension 2, rhs has dimension 3")
	})

	t.Run("DecryptDecode", func(t *testing.T) {
		dec, err := b.CreateValue(DecryptOp, []*ir.Value{cc, enc, args[6]}, pt)
		require.NoError(t, err)

		out, err := b.CreateValue(DecodeOp, []*ir.Value{dec}, ir.I(16))
		require.NoError(t, err)
		require.True(t, ir.TypesEqual(ir.I(16), out.Type()))

		_, err = b.CreateValue(DecodeOp, []*ir.Value{dec}, ir.I(64))
		require.ErrorContains(t, err, "must be the underlying type")
	})

	t.Run("FixedPoint", func(t *testing.T) {
		require.NoError(t, b.Return())
		require.NoError(t, ir.Verify(ctx, m))

		parsed, err := ir.ParseModule(ctx, m.String())
		require.NoError(t, err)
		require.Equal(t, m.String(), parsed.String())
	})
}
