package lwe

import (
	"fmt"

	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/polynomial"
)

func verifyEncodingAttr(subject string, a ir.Attribute) error {
	if _, ok := a.(Encoding); !ok {
		return ir.Errorf(subject, "encoding must be an lwe encoding attribute, but found %v", a)
	}
	return ir.VerifyAttribute(a)
}

func verifyUnderlyingType(subject string, t ir.Type) error {
	if t == nil {
		return ir.Errorf(subject, "underlying type is missing")
	}
	return ir.VerifyType(t)
}

// RLWEPublicKeyType is the type of RLWE public keys.
type RLWEPublicKeyType struct {
	RLWEParams RLWEParamsAttr
}

func (t RLWEPublicKeyType) String() string {
	return fmt.Sprintf("!lwe.rlwe_public_key<rlwe_params = %s>", t.RLWEParams)
}

func (RLWEPublicKeyType) TypeDialect() string { return DialectName }

func (t RLWEPublicKeyType) Verify() error {
	return t.RLWEParams.Verify()
}

// RLWESecretKeyType is the type of RLWE secret keys.
type RLWESecretKeyType struct {
	RLWEParams RLWEParamsAttr
}

func (t RLWESecretKeyType) String() string {
	return fmt.Sprintf("!lwe.rlwe_secret_key<rlwe_params = %s>", t.RLWEParams)
}

func (RLWESecretKeyType) TypeDialect() string { return DialectName }

func (t RLWESecretKeyType) Verify() error {
	return t.RLWEParams.Verify()
}

// RLWECiphertextType is the type of RLWE ciphertexts.
// UnderlyingType records the type of the value before encryption; it has no
// cryptographic meaning and is the only field lwe.reinterpret_underlying_type may change.
type RLWECiphertextType struct {
	Encoding       ir.Attribute
	RLWEParams     RLWEParamsAttr
	UnderlyingType ir.Type
}

// NewRLWECiphertextType returns a new verified [RLWECiphertextType].
func NewRLWECiphertextType(encoding Encoding, params RLWEParamsAttr, underlying ir.Type) (t RLWECiphertextType, err error) {
	t = RLWECiphertextType{Encoding: encoding, RLWEParams: params, UnderlyingType: underlying}
	if err = t.Verify(); err != nil {
		return RLWECiphertextType{}, err
	}
	return
}

func (t RLWECiphertextType) String() string {
	return fmt.Sprintf("!lwe.rlwe_ciphertext<encoding = %v, rlwe_params = %s, underlying_type = %v>", t.Encoding, t.RLWEParams, t.UnderlyingType)
}

func (RLWECiphertextType) TypeDialect() string { return DialectName }

func (t RLWECiphertextType) Verify() error {
	if err := verifyEncodingAttr(t.String(), t.Encoding); err != nil {
		return err
	}
	if err := t.RLWEParams.Verify(); err != nil {
		return err
	}
	return verifyUnderlyingType(t.String(), t.UnderlyingType)
}

// WithDimension returns a copy of t with the given ciphertext dimension.
func (t RLWECiphertextType) WithDimension(dimension int) RLWECiphertextType {
	t.RLWEParams.Dimension = dimension
	return t
}

// RLWEPlaintextType is the type of encoded, unencrypted RLWE plaintexts.
type RLWEPlaintextType struct {
	Encoding       ir.Attribute
	Ring           polynomial.RingAttr
	UnderlyingType ir.Type
}

// NewRLWEPlaintextType returns a new verified [RLWEPlaintextType].
func NewRLWEPlaintextType(encoding Encoding, ring polynomial.RingAttr, underlying ir.Type) (t RLWEPlaintextType, err error) {
	t = RLWEPlaintextType{Encoding: encoding, Ring: ring, UnderlyingType: underlying}
	if err = t.Verify(); err != nil {
		return RLWEPlaintextType{}, err
	}
	return
}

func (t RLWEPlaintextType) String() string {
	return fmt.Sprintf("!lwe.rlwe_plaintext<encoding = %v, ring = %s, underlying_type = %v>", t.Encoding, t.Ring, t.UnderlyingType)
}

func (RLWEPlaintextType) TypeDialect() string { return DialectName }

func (t RLWEPlaintextType) Verify() error {
	if err := verifyEncodingAttr(t.String(), t.Encoding); err != nil {
		return err
	}
	if err := t.Ring.Verify(); err != nil {
		return err
	}
	return verifyUnderlyingType(t.String(), t.UnderlyingType)
}

// LWECiphertextType is the type of scalar LWE ciphertexts.
type LWECiphertextType struct {
	Encoding  ir.Attribute
	LWEParams LWEParamsAttr
}

func (t LWECiphertextType) String() string {
	return fmt.Sprintf("!lwe.lwe_ciphertext<encoding = %v, lwe_params = %s>", t.Encoding, t.LWEParams)
}

func (LWECiphertextType) TypeDialect() string { return DialectName }

func (t LWECiphertextType) Verify() error {
	if err := verifyEncodingAttr(t.String(), t.Encoding); err != nil {
		return err
	}
	return t.LWEParams.Verify()
}

// LWEPlaintextType is the type of scalar LWE plaintexts.
type LWEPlaintextType struct {
	Encoding ir.Attribute
}

func (t LWEPlaintextType) String() string {
	return fmt.Sprintf("!lwe.lwe_plaintext<encoding = %v>", t.Encoding)
}

func (LWEPlaintextType) TypeDialect() string { return DialectName }

func (t LWEPlaintextType) Verify() error {
	return verifyEncodingAttr(t.String(), t.Encoding)
}

// NewLWECiphertextType is the fully parameterized ciphertext type, describing the
// application message, the plaintext and ciphertext spaces, the key and the modulus chain.
type NewLWECiphertextType struct {
	ApplicationData ApplicationDataAttr
	PlaintextSpace  PlaintextSpaceAttr
	CiphertextSpace CiphertextSpaceAttr
	Key             KeyAttr
	ModulusChain    ModulusChainAttr
}

func (t NewLWECiphertextType) String() string {
	return fmt.Sprintf("!lwe.new_lwe_ciphertext<application_data = %s, plaintext_space = %s, ciphertext_space = %s, key = %s, modulus_chain = %s>",
		t.ApplicationData, t.PlaintextSpace, t.CiphertextSpace, t.Key, t.ModulusChain)
}

func (NewLWECiphertextType) TypeDialect() string { return DialectName }

// Verify checks the attributes, and that a ciphertext produced by a slot rotation has size 2.
func (t NewLWECiphertextType) Verify() error {
	for _, a := range []ir.Attribute{t.ApplicationData, t.PlaintextSpace, t.CiphertextSpace, t.Key, t.ModulusChain} {
		if err := ir.VerifyAttribute(a); err != nil {
			return err
		}
	}
	if t.Key.SlotIndex != 0 && t.CiphertextSpace.Size != 2 {
		return ir.Errorf(t.String(), "a ciphertext with nontrivial slot rotation must have size 2, but found size %d", t.CiphertextSpace.Size)
	}
	return nil
}

// NewLWEPlaintextType is the fully parameterized plaintext type.
type NewLWEPlaintextType struct {
	ApplicationData ApplicationDataAttr
	PlaintextSpace  PlaintextSpaceAttr
}

func (t NewLWEPlaintextType) String() string {
	return fmt.Sprintf("!lwe.new_lwe_plaintext<application_data = %s, plaintext_space = %s>", t.ApplicationData, t.PlaintextSpace)
}

func (NewLWEPlaintextType) TypeDialect() string { return DialectName }

func (t NewLWEPlaintextType) Verify() error {
	if err := t.ApplicationData.Verify(); err != nil {
		return err
	}
	return t.PlaintextSpace.Verify()
}
