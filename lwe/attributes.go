package lwe

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/modarith"
	"github.com/tuneinsight/lattigo-ir/polynomial"
)

// Encoding is implemented by the attributes describing how a cleartext is
// embedded in the bits of a plaintext. Encodings annotate tensor types and
// are verified against their element type.
type Encoding interface {
	ir.TensorEncoding
	// Cleartext returns the index of the first bit and the number of bits of the cleartext.
	Cleartext() (start, bitwidth int)
}

func verifyCleartextBitwidth(a ir.Attribute, bitwidth int) error {
	if bitwidth < 0 {
		return ir.Errorf(a.String(), "cleartext bitwidth must be non-negative, but found %d", bitwidth)
	}
	return nil
}

// BitFieldEncodingAttr places the cleartext in the bits [CleartextStart, CleartextStart + CleartextBitwidth)
// of a plaintext integer, the remaining bits being left for the noise.
type BitFieldEncodingAttr struct {
	CleartextStart    int
	CleartextBitwidth int
}

func (a BitFieldEncodingAttr) String() string {
	return fmt.Sprintf("#lwe.bit_field_encoding<cleartext_start = %d, cleartext_bitwidth = %d>", a.CleartextStart, a.CleartextBitwidth)
}

func (BitFieldEncodingAttr) AttrDialect() string { return DialectName }

func (a BitFieldEncodingAttr) Cleartext() (start, bitwidth int) {
	return a.CleartextStart, a.CleartextBitwidth
}

func (a BitFieldEncodingAttr) Verify() error {
	return verifyCleartextBitwidth(a, a.CleartextBitwidth)
}

// VerifyEncoding checks that the elements are signless integers wide enough to
// hold the cleartext and that the cleartext starts inside them.
func (a BitFieldEncodingAttr) VerifyEncoding(shape []int64, elementType ir.Type) error {

	plaintextBitwidth, err := signlessBitwidth(a, elementType, a.CleartextBitwidth)
	if err != nil {
		return err
	}

	if a.CleartextStart < 0 || a.CleartextStart >= plaintextBitwidth {
		return ir.Errorf(a.String(), "cleartext starting bit index (%d) is outside the legal range [0, %d]", a.CleartextStart, plaintextBitwidth-1)
	}

	return nil
}

// UnspecifiedBitFieldEncodingAttr is a bit field encoding whose position is left to a later lowering.
type UnspecifiedBitFieldEncodingAttr struct {
	CleartextBitwidth int
}

func (a UnspecifiedBitFieldEncodingAttr) String() string {
	return fmt.Sprintf("#lwe.unspecified_bit_field_encoding<cleartext_bitwidth = %d>", a.CleartextBitwidth)
}

func (UnspecifiedBitFieldEncodingAttr) AttrDialect() string { return DialectName }

func (a UnspecifiedBitFieldEncodingAttr) Cleartext() (start, bitwidth int) {
	return 0, a.CleartextBitwidth
}

func (a UnspecifiedBitFieldEncodingAttr) Verify() error {
	return verifyCleartextBitwidth(a, a.CleartextBitwidth)
}

// VerifyEncoding checks that the elements are signless integers wide enough to hold the cleartext.
func (a UnspecifiedBitFieldEncodingAttr) VerifyEncoding(shape []int64, elementType ir.Type) error {
	_, err := signlessBitwidth(a, elementType, a.CleartextBitwidth)
	return err
}

func signlessBitwidth(a ir.Attribute, elementType ir.Type, cleartextBitwidth int) (int, error) {

	it, ok := elementType.(ir.IntegerType)
	if !ok || !it.IsSignless() {
		return 0, ir.Errorf(a.String(), "tensors with a bit field encoding must have signless integer element type, but found %s", elementType)
	}

	if it.Width < cleartextBitwidth {
		return 0, ir.Errorf(a.String(), "the tensor element type's bitwidth %d is too small to store the cleartext, which has bitwidth %d", it.Width, cleartextBitwidth)
	}

	return it.Width, nil
}

// requirePolynomialElementTypeFits checks the elements of a tensor annotated by a polynomial
// based encoding: they must be polynomials with modular coefficients, and the coefficient
// modulus takes the place of the plaintext bitwidth in the cleartext checks.
func requirePolynomialElementTypeFits(elementType ir.Type, encodingName string, cleartextBitwidth, cleartextStart int) error {

	subject := "#lwe." + encodingName

	polyType, ok := elementType.(polynomial.PolynomialType)
	if !ok {
		return ir.Errorf(subject, "tensors with encoding %s must have polynomial element type, but found %s", encodingName, elementType)
	}

	coeffType, ok := polyType.Ring.CoefficientType.(modarith.IntType)
	if !ok {
		return ir.Errorf(subject, "the polynomials in the tensor must have a mod_arith coefficient type, but found %s", polyType.Ring.CoefficientType)
	}

	plaintextBitwidth := coeffType.ModulusBitWidth()

	if plaintextBitwidth < cleartextBitwidth {
		return ir.Errorf(subject, "the polynomials in the tensor have a coefficient modulus with bitwidth %d, which is too small to store the cleartext, which has bitwidth %d", plaintextBitwidth, cleartextBitwidth)
	}

	if cleartextStart < 0 || cleartextStart >= plaintextBitwidth {
		return ir.Errorf(subject, "cleartext starting bit index (%d) is outside the legal range [0, %d]", cleartextStart, plaintextBitwidth-1)
	}

	return nil
}

// PolynomialCoefficientEncodingAttr encodes the cleartext in the coefficients of a polynomial.
type PolynomialCoefficientEncodingAttr struct {
	CleartextStart    int
	CleartextBitwidth int
}

func (a PolynomialCoefficientEncodingAttr) String() string {
	return fmt.Sprintf("#lwe.polynomial_coefficient_encoding<cleartext_start = %d, cleartext_bitwidth = %d>", a.CleartextStart, a.CleartextBitwidth)
}

func (PolynomialCoefficientEncodingAttr) AttrDialect() string { return DialectName }

func (a PolynomialCoefficientEncodingAttr) Cleartext() (start, bitwidth int) {
	return a.CleartextStart, a.CleartextBitwidth
}

func (a PolynomialCoefficientEncodingAttr) Verify() error {
	return verifyCleartextBitwidth(a, a.CleartextBitwidth)
}

func (a PolynomialCoefficientEncodingAttr) VerifyEncoding(shape []int64, elementType ir.Type) error {
	return requirePolynomialElementTypeFits(elementType, "polynomial_coefficient_encoding", a.CleartextBitwidth, a.CleartextStart)
}

// PolynomialEvaluationEncodingAttr encodes the cleartext in the evaluations of a polynomial.
type PolynomialEvaluationEncodingAttr struct {
	CleartextStart    int
	CleartextBitwidth int
}

func (a PolynomialEvaluationEncodingAttr) String() string {
	return fmt.Sprintf("#lwe.polynomial_evaluation_encoding<cleartext_start = %d, cleartext_bitwidth = %d>", a.CleartextStart, a.CleartextBitwidth)
}

func (PolynomialEvaluationEncodingAttr) AttrDialect() string { return DialectName }

func (a PolynomialEvaluationEncodingAttr) Cleartext() (start, bitwidth int) {
	return a.CleartextStart, a.CleartextBitwidth
}

func (a PolynomialEvaluationEncodingAttr) Verify() error {
	return verifyCleartextBitwidth(a, a.CleartextBitwidth)
}

func (a PolynomialEvaluationEncodingAttr) VerifyEncoding(shape []int64, elementType ir.Type) error {
	return requirePolynomialElementTypeFits(elementType, "polynomial_evaluation_encoding", a.CleartextBitwidth, a.CleartextStart)
}

// InverseCanonicalEmbeddingEncodingAttr encodes real or complex cleartexts through the
// inverse of the canonical embedding, as done by approximate schemes.
type InverseCanonicalEmbeddingEncodingAttr struct {
	CleartextStart    int
	CleartextBitwidth int
}

func (a InverseCanonicalEmbeddingEncodingAttr) String() string {
	return fmt.Sprintf("#lwe.inverse_canonical_embedding_encoding<cleartext_start = %d, cleartext_bitwidth = %d>", a.CleartextStart, a.CleartextBitwidth)
}

func (InverseCanonicalEmbeddingEncodingAttr) AttrDialect() string { return DialectName }

func (a InverseCanonicalEmbeddingEncodingAttr) Cleartext() (start, bitwidth int) {
	return a.CleartextStart, a.CleartextBitwidth
}

func (a InverseCanonicalEmbeddingEncodingAttr) Verify() error {
	return verifyCleartextBitwidth(a, a.CleartextBitwidth)
}

func (a InverseCanonicalEmbeddingEncodingAttr) VerifyEncoding(shape []int64, elementType ir.Type) error {
	return requirePolynomialElementTypeFits(elementType, "inverse_canonical_embedding_encoding", a.CleartextBitwidth, a.CleartextStart)
}

// RLWEParamsAttr holds the parameters of an RLWE ciphertext: the number of ring elements
// composing it and the ring they belong to.
type RLWEParamsAttr struct {
	Dimension int
	Ring      polynomial.RingAttr
}

// NewRLWEParamsAttr returns a new verified [RLWEParamsAttr].
func NewRLWEParamsAttr(dimension int, ring polynomial.RingAttr) (a RLWEParamsAttr, err error) {
	a = RLWEParamsAttr{Dimension: dimension, Ring: ring}
	if err = a.Verify(); err != nil {
		return RLWEParamsAttr{}, err
	}
	return
}

func (a RLWEParamsAttr) String() string {
	return fmt.Sprintf("#lwe.rlwe_params<dimension = %d, ring = %s>", a.Dimension, a.Ring)
}

func (RLWEParamsAttr) AttrDialect() string { return DialectName }

// Verify checks that the dimension is positive and that the ring is well formed.
func (a RLWEParamsAttr) Verify() error {
	if a.Dimension < 1 {
		return ir.Errorf(a.String(), "dimension must be at least 1, but found %d", a.Dimension)
	}
	return a.Ring.Verify()
}

// LWEParamsAttr holds the parameters of an LWE ciphertext: its coefficient modulus
// and the length of its mask.
type LWEParamsAttr struct {
	CMod      *big.Int
	Dimension int
}

func (a LWEParamsAttr) String() string {
	return fmt.Sprintf("#lwe.lwe_params<cmod = %s, dimension = %d>", a.CMod, a.Dimension)
}

func (LWEParamsAttr) AttrDialect() string { return DialectName }

// Verify checks that the modulus is greater than one and that the dimension is positive.
func (a LWEParamsAttr) Verify() error {
	if a.CMod == nil || a.CMod.Cmp(big.NewInt(1)) <= 0 {
		return ir.Errorf(a.String(), "cmod must be greater than 1")
	}
	if a.Dimension < 1 {
		return ir.Errorf(a.String(), "dimension must be at least 1, but found %d", a.Dimension)
	}
	return nil
}

// PreserveOverflowAttr states that the overflow of the message space is kept in the plaintext.
type PreserveOverflowAttr struct{}

func (PreserveOverflowAttr) String() string      { return "#lwe.preserve_overflow" }
func (PreserveOverflowAttr) AttrDialect() string { return DialectName }

// NoOverflowAttr states that the message never overflows.
type NoOverflowAttr struct{}

func (NoOverflowAttr) String() string      { return "#lwe.no_overflow" }
func (NoOverflowAttr) AttrDialect() string { return DialectName }

// ApplicationDataAttr describes the message as seen by the application.
type ApplicationDataAttr struct {
	MessageType ir.Type
	Overflow    ir.Attribute
}

func (a ApplicationDataAttr) String() string {
	return fmt.Sprintf("#lwe.application_data<message_type = %v, overflow = %v>", a.MessageType, a.Overflow)
}

func (ApplicationDataAttr) AttrDialect() string { return DialectName }

// Verify checks that the overflow policy is either preserve_overflow or no_overflow.
func (a ApplicationDataAttr) Verify() error {
	if a.MessageType == nil {
		return ir.Errorf(a.String(), "message type is missing")
	}
	switch a.Overflow.(type) {
	case PreserveOverflowAttr, NoOverflowAttr:
		return nil
	}
	return ir.Errorf(a.String(), "overflow must be either preserve_overflow or no_overflow, but found %v", a.Overflow)
}

// PlaintextSpaceEncoding is implemented by the attributes describing how a message
// is mapped to a plaintext polynomial.
type PlaintextSpaceEncoding interface {
	ir.Attribute
	// Scale returns the log2 of the scaling factor applied to the message.
	Scale() int
}

// FullCRTPackingEncodingAttr packs the message in the CRT slots of the plaintext ring.
type FullCRTPackingEncodingAttr struct {
	ScalingFactor int
}

// ConstantCoefficientEncodingAttr places the message in the constant coefficient.
type ConstantCoefficientEncodingAttr struct {
	ScalingFactor int
}

// CoefficientEncodingAttr places the message in the coefficients.
type CoefficientEncodingAttr struct {
	ScalingFactor int
}

// InverseCanonicalEncodingAttr maps the message through the inverse canonical embedding.
type InverseCanonicalEncodingAttr struct {
	ScalingFactor int
}

func formatScaling(mnemonic string, s int) string {
	return fmt.Sprintf("#lwe.%s<scaling_factor = %d>", mnemonic, s)
}

func (a FullCRTPackingEncodingAttr) String() string {
	return formatScaling("full_crt_packing_encoding", a.ScalingFactor)
}
func (a ConstantCoefficientEncodingAttr) String() string {
	return formatScaling("constant_coefficient_encoding", a.ScalingFactor)
}
func (a CoefficientEncodingAttr) String() string {
	return formatScaling("coefficient_encoding", a.ScalingFactor)
}
func (a InverseCanonicalEncodingAttr) String() string {
	return formatScaling("inverse_canonical_encoding", a.ScalingFactor)
}

func (FullCRTPackingEncodingAttr) AttrDialect() string      { return DialectName }
func (ConstantCoefficientEncodingAttr) AttrDialect() string { return DialectName }
func (CoefficientEncodingAttr) AttrDialect() string         { return DialectName }
func (InverseCanonicalEncodingAttr) AttrDialect() string    { return DialectName }

func (a FullCRTPackingEncodingAttr) Scale() int      { return a.ScalingFactor }
func (a ConstantCoefficientEncodingAttr) Scale() int { return a.ScalingFactor }
func (a CoefficientEncodingAttr) Scale() int         { return a.ScalingFactor }
func (a InverseCanonicalEncodingAttr) Scale() int    { return a.ScalingFactor }

// PlaintextSpaceAttr describes the ring of the plaintexts and how messages are encoded in it.
type PlaintextSpaceAttr struct {
	Ring     polynomial.RingAttr
	Encoding ir.Attribute
}

func (a PlaintextSpaceAttr) String() string {
	return fmt.Sprintf("#lwe.plaintext_space<ring = %s, encoding = %v>", a.Ring, a.Encoding)
}

func (PlaintextSpaceAttr) AttrDialect() string { return DialectName }

// Verify checks the encoding. Full CRT packing requires a ring of the
// form x^n + 1 whose modulus, when modular, is 1 mod n.
func (a PlaintextSpaceAttr) Verify() error {

	if err := a.Ring.Verify(); err != nil {
		return err
	}

	if _, ok := a.Encoding.(PlaintextSpaceEncoding); !ok {
		return ir.Errorf(a.String(), "encoding must be a plaintext space encoding, but found %v", a.Encoding)
	}

	if _, ok := a.Encoding.(FullCRTPackingEncodingAttr); !ok {
		return nil
	}

	polyMod := a.Ring.PolynomialModulus

	n, ok := polyMod.Polynomial.IsCyclotomicPowerOfX()
	if !ok {
		return ir.Errorf(a.String(), "polynomial modulus must be of the form x^n + 1, but found %s", polyMod)
	}

	if coeff, ok := a.Ring.CoefficientType.(modarith.IntType); ok {
		if r := new(big.Int).Mod(coeff.Value(), big.NewInt(int64(n))); !isOne(r) {
			return ir.Errorf(a.String(), "modulus must be 1 mod n for full CRT packing, mod = %s n = %d", coeff.Value(), n)
		}
	}

	return nil
}

func isOne(x *big.Int) bool {
	return x.IsInt64() && x.Int64() == 1
}

// EncryptionType tells where the message sits in the ciphertext coefficients.
type EncryptionType int

const (
	// MSB places the message in the most significant bits.
	MSB = EncryptionType(iota)
	// LSB places the message in the least significant bits.
	LSB
	// Mix mixes both, as done by the approximate schemes.
	Mix
)

var encryptionTypeNames = []string{"msb", "lsb", "mix"}

func (e EncryptionType) String() string {
	if int(e) < 0 || int(e) >= len(encryptionTypeNames) {
		return fmt.Sprintf("EncryptionType(%d)", int(e))
	}
	return encryptionTypeNames[e]
}

// ParseEncryptionType returns the [EncryptionType] of the given name.
func ParseEncryptionType(s string) (EncryptionType, error) {
	for i, name := range encryptionTypeNames {
		if strings.EqualFold(s, name) {
			return EncryptionType(i), nil
		}
	}
	return 0, fmt.Errorf("invalid encryption type %q: must be one of %v", s, encryptionTypeNames)
}

// CiphertextSpaceAttr describes the ring of the ciphertexts, the encryption type and
// the number of ring elements of a ciphertext.
type CiphertextSpaceAttr struct {
	Ring           polynomial.RingAttr
	EncryptionType EncryptionType
	Size           int
}

func (a CiphertextSpaceAttr) String() string {
	return fmt.Sprintf("#lwe.ciphertext_space<ring = %s, encryption_type = %s, size = %d>", a.Ring, a.EncryptionType, a.Size)
}

func (CiphertextSpaceAttr) AttrDialect() string { return DialectName }

// Verify checks the ring, the encryption type and the size.
func (a CiphertextSpaceAttr) Verify() error {
	if a.EncryptionType < MSB || a.EncryptionType > Mix {
		return ir.Errorf(a.String(), "invalid encryption type")
	}
	if a.Size < 1 {
		return ir.Errorf(a.String(), "size must be at least 1, but found %d", a.Size)
	}
	return a.Ring.Verify()
}

// KeyAttr identifies the key a ciphertext is encrypted under. SlotIndex is non-zero
// for ciphertexts obtained by a slot rotation.
type KeyAttr struct {
	ID        string
	Size      int
	SlotIndex int
}

func (a KeyAttr) String() string {
	return fmt.Sprintf("#lwe.key<id = %q, size = %d, slot_index = %d>", a.ID, a.Size, a.SlotIndex)
}

func (KeyAttr) AttrDialect() string { return DialectName }

// Verify checks the size and the slot index.
func (a KeyAttr) Verify() error {
	if a.Size < 1 {
		return ir.Errorf(a.String(), "size must be at least 1, but found %d", a.Size)
	}
	if a.SlotIndex < 0 {
		return ir.Errorf(a.String(), "slot index must be non-negative, but found %d", a.SlotIndex)
	}
	return nil
}

// ModulusChainAttr is the chain of moduli of a leveled ciphertext and the index of the current one.
type ModulusChainAttr struct {
	Elements []ir.IntegerAttr
	Current  int
}

func (a ModulusChainAttr) String() string {
	elements := make(ir.ArrayAttr, len(a.Elements))
	for i, e := range a.Elements {
		elements[i] = e
	}
	return fmt.Sprintf("#lwe.modulus_chain<elements = %s, current = %d>", elements, a.Current)
}

func (ModulusChainAttr) AttrDialect() string { return DialectName }

// Verify checks that the elements are valid integers and that current indexes one of them.
func (a ModulusChainAttr) Verify() error {
	if len(a.Elements) == 0 {
		return ir.Errorf(a.String(), "modulus chain must not be empty")
	}
	for _, e := range a.Elements {
		if err := e.Verify(); err != nil {
			return err
		}
	}
	if a.Current < 0 || a.Current >= len(a.Elements) {
		return ir.Errorf(a.String(), "current index %d is outside the legal range [0, %d]", a.Current, len(a.Elements)-1)
	}
	return nil
}
