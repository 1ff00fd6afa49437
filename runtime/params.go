// Package runtime executes legalized programs on the lattigo backend: the exact scheme
// runs on BGV and the approximate scheme on CKKS.
package runtime

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/bgv"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// Scheme selects the homomorphic encryption scheme of a [CryptoContext].
type Scheme string

const (
	BGV  = Scheme("bgv")
	CKKS = Scheme("ckks")
)

// ParametersLiteral is a literal representation of the parameters of a [CryptoContext].
//
// Users must set LogN, LogQ and LogP, plus PlaintextModulus for [BGV] and
// LogDefaultScale for [CKKS]. Seed keys the [Source] of the context.
type ParametersLiteral struct {
	Scheme           Scheme
	LogN             int
	LogQ             []int
	LogP             []int
	PlaintextModulus uint64 `json:",omitempty"`
	LogDefaultScale  int    `json:",omitempty"`
	Seed             []byte `json:",omitempty"`
}

type encoder interface {
	Encode(values interface{}, pt *rlwe.Plaintext) (err error)
	Decode(pt *rlwe.Plaintext, values interface{}) (err error)
}

type evaluator interface {
	AddNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (opOut *rlwe.Ciphertext, err error)
	SubNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (opOut *rlwe.Ciphertext, err error)
	MulNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (opOut *rlwe.Ciphertext, err error)
}

// CryptoContext bundles the parameters, the encoder and the evaluator of a scheme.
// It is the value bound to the !backend.crypto_context argument of the executed functions.
type CryptoContext struct {
	Scheme Scheme

	params       rlwe.ParameterProvider
	encoder      encoder
	evaluator    evaluator
	newPlaintext func() *rlwe.Plaintext
	slots        int
	t            uint64
	seed         []byte
}

// NewCryptoContext instantiates the scheme of lit.
func NewCryptoContext(lit ParametersLiteral) (cc *CryptoContext, err error) {

	cc = &CryptoContext{Scheme: lit.Scheme, seed: lit.Seed}

	switch lit.Scheme {
	case BGV:

		var params bgv.Parameters
		if params, err = bgv.NewParametersFromLiteral(bgv.ParametersLiteral{
			LogN:             lit.LogN,
			LogQ:             lit.LogQ,
			LogP:             lit.LogP,
			PlaintextModulus: lit.PlaintextModulus,
		}); err != nil {
			return nil, fmt.Errorf("cannot NewCryptoContext: %w", err)
		}

		cc.params = params
		cc.encoder = bgv.NewEncoder(params)
		cc.evaluator = bgv.NewEvaluator(params, nil)
		cc.newPlaintext = func() *rlwe.Plaintext { return bgv.NewPlaintext(params, params.MaxLevel()) }
		cc.slots = params.MaxSlots()
		cc.t = params.PlaintextModulus()

	case CKKS:

		var params ckks.Parameters
		if params, err = ckks.NewParametersFromLiteral(ckks.ParametersLiteral{
			LogN:            lit.LogN,
			LogQ:            lit.LogQ,
			LogP:            lit.LogP,
			LogDefaultScale: lit.LogDefaultScale,
		}); err != nil {
			return nil, fmt.Errorf("cannot NewCryptoContext: %w", err)
		}

		cc.params = params
		cc.encoder = ckks.NewEncoder(params)
		cc.evaluator = ckks.NewEvaluator(params, nil)
		cc.newPlaintext = func() *rlwe.Plaintext { return ckks.NewPlaintext(params, params.MaxLevel()) }
		cc.slots = params.MaxSlots()

	default:
		return nil, fmt.Errorf("cannot NewCryptoContext: invalid scheme %q, expected %q or %q", lit.Scheme, BGV, CKKS)
	}

	return
}

// Slots returns the number of values a plaintext packs.
func (cc *CryptoContext) Slots() int {
	return cc.slots
}

// PlaintextModulus returns the plaintext modulus t of the [BGV] scheme, or 0 for [CKKS].
func (cc *CryptoContext) PlaintextModulus() uint64 {
	return cc.t
}

// KeyGen generates a new key pair.
func (cc *CryptoContext) KeyGen() (pk *rlwe.PublicKey, sk *rlwe.SecretKey) {
	sk, pk = rlwe.NewKeyGenerator(cc.params).GenKeyPairNew()
	return
}

// Source returns a new [Source] keyed by the seed of the parameters.
func (cc *CryptoContext) Source() (*Source, error) {
	return NewSource(cc.seed)
}

// pack encodes values on a new plaintext. Values exceeding the slot count must repeat
// the packed ones cyclically, which is the case of broadcast scalars.
func (cc *CryptoContext) pack(values interface{}) (pt *rlwe.Plaintext, err error) {

	switch v := values.(type) {
	case []int64:
		values, err = fold(v, cc.slots)
	case []float64:
		values, err = fold(v, cc.slots)
	default:
		return nil, fmt.Errorf("invalid values.(type): %T", values)
	}

	if err != nil {
		return
	}

	pt = cc.newPlaintext()
	if err = cc.encoder.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("cannot Encode: %w", err)
	}

	return
}

func fold[T int64 | float64](values []T, slots int) ([]T, error) {
	if len(values) <= slots {
		return values, nil
	}
	for i := slots; i < len(values); i++ {
		if values[i] != values[i%slots] {
			return nil, fmt.Errorf("cannot pack %d values in %d slots", len(values), slots)
		}
	}
	return values[:slots], nil
}
