package lwe

import (
	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/polynomial"
)

func parseAttrAs[T ir.Attribute](p *ir.Parser, what string) (v T, err error) {
	var a ir.Attribute
	if a, err = p.ParseAttribute(); err != nil {
		return
	}
	var ok bool
	if v, ok = a.(T); !ok {
		return v, p.Errorf("expected %s, but found %s", what, a)
	}
	return
}

func parseRing(p *ir.Parser) (polynomial.RingAttr, error) {
	return parseAttrAs[polynomial.RingAttr](p, "#polynomial.ring")
}

func parseRLWEParams(p *ir.Parser) (RLWEParamsAttr, error) {
	return parseAttrAs[RLWEParamsAttr](p, "#lwe.rlwe_params")
}

// parseCleartext parses the parameters of the cleartext encodings.
func parseCleartext(p *ir.Parser, owner string) (start, bitwidth int, err error) {
	err = p.ParseParams(func(key string) (err error) {
		switch key {
		case "cleartext_start":
			start, err = p.ParseInt()
		case "cleartext_bitwidth":
			bitwidth, err = p.ParseInt()
		default:
			err = p.UnknownParam(owner, key)
		}
		return
	}, "cleartext_start", "cleartext_bitwidth")
	return
}

func parseScalingFactor(p *ir.Parser, owner string) (scaling int, err error) {
	err = p.ParseParams(func(key string) (err error) {
		if key != "scaling_factor" {
			return p.UnknownParam(owner, key)
		}
		scaling, err = p.ParseInt()
		return
	}, "scaling_factor")
	return
}

func parseAttribute(p *ir.Parser, mnemonic string) (a ir.Attribute, err error) {

	owner := "#lwe." + mnemonic

	switch mnemonic {

	case "bit_field_encoding":
		var enc BitFieldEncodingAttr
		enc.CleartextStart, enc.CleartextBitwidth, err = parseCleartext(p, owner)
		return enc, err

	case "unspecified_bit_field_encoding":
		var enc UnspecifiedBitFieldEncodingAttr
		err = p.ParseParams(func(key string) (err error) {
			if key != "cleartext_bitwidth" {
				return p.UnknownParam(owner, key)
			}
			enc.CleartextBitwidth, err = p.ParseInt()
			return
		}, "cleartext_bitwidth")
		return enc, err

	case "polynomial_coefficient_encoding":
		var enc PolynomialCoefficientEncodingAttr
		enc.CleartextStart, enc.CleartextBitwidth, err = parseCleartext(p, owner)
		return enc, err

	case "polynomial_evaluation_encoding":
		var enc PolynomialEvaluationEncodingAttr
		enc.CleartextStart, enc.CleartextBitwidth, err = parseCleartext(p, owner)
		return enc, err

	case "inverse_canonical_embedding_encoding":
		var enc InverseCanonicalEmbeddingEncodingAttr
		enc.CleartextStart, enc.CleartextBitwidth, err = parseCleartext(p, owner)
		return enc, err

	case "rlwe_params":
		var params RLWEParamsAttr
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "dimension":
				params.Dimension, err = p.ParseInt()
			case "ring":
				params.Ring, err = parseRing(p)
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "dimension", "ring")
		return params, err

	case "lwe_params":
		var params LWEParamsAttr
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "cmod":
				params.CMod, err = p.ParseInteger()
			case "dimension":
				params.Dimension, err = p.ParseInt()
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "cmod", "dimension")
		return params, err

	case "preserve_overflow":
		return PreserveOverflowAttr{}, nil

	case "no_overflow":
		return NoOverflowAttr{}, nil

	case "application_data":
		var data ApplicationDataAttr
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "message_type":
				data.MessageType, err = p.ParseType()
			case "overflow":
				data.Overflow, err = p.ParseAttribute()
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "message_type", "overflow")
		return data, err

	case "full_crt_packing_encoding":
		var enc FullCRTPackingEncodingAttr
		enc.ScalingFactor, err = parseScalingFactor(p, owner)
		return enc, err

	case "constant_coefficient_encoding":
		var enc ConstantCoefficientEncodingAttr
		enc.ScalingFactor, err = parseScalingFactor(p, owner)
		return enc, err

	case "coefficient_encoding":
		var enc CoefficientEncodingAttr
		enc.ScalingFactor, err = parseScalingFactor(p, owner)
		return enc, err

	case "inverse_canonical_encoding":
		var enc InverseCanonicalEncodingAttr
		enc.ScalingFactor, err = parseScalingFactor(p, owner)
		return enc, err

	case "plaintext_space":
		var space PlaintextSpaceAttr
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "ring":
				space.Ring, err = parseRing(p)
			case "encoding":
				space.Encoding, err = p.ParseAttribute()
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "ring", "encoding")
		return space, err

	case "ciphertext_space":
		var space CiphertextSpaceAttr
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "ring":
				space.Ring, err = parseRing(p)
			case "encryption_type":
				var name string
				if name, err = p.ParseIdent(); err != nil {
					return
				}
				if space.EncryptionType, err = ParseEncryptionType(name); err != nil {
					return p.Errorf("%s", err)
				}
			case "size":
				space.Size, err = p.ParseInt()
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "ring", "encryption_type", "size")
		return space, err

	case "key":
		var key KeyAttr
		err = p.ParseParams(func(k string) (err error) {
			switch k {
			case "id":
				key.ID, err = p.ParseString()
			case "size":
				key.Size, err = p.ParseInt()
			case "slot_index":
				key.SlotIndex, err = p.ParseInt()
			default:
				err = p.UnknownParam(owner, k)
			}
			return
		}, "id", "size", "slot_index")
		return key, err

	case "modulus_chain":
		var chain ModulusChainAttr
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "elements":
				var elements ir.ArrayAttr
				if elements, err = parseAttrAs[ir.ArrayAttr](p, "an array of integers"); err != nil {
					return
				}
				chain.Elements = make([]ir.IntegerAttr, len(elements))
				for i, e := range elements {
					var ok bool
					if chain.Elements[i], ok = e.(ir.IntegerAttr); !ok {
						return p.Errorf("modulus chain element #%d must be an integer, but found %s", i, e)
					}
				}
			case "current":
				chain.Current, err = p.ParseInt()
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "elements", "current")
		return chain, err
	}

	return nil, p.Errorf("unknown attribute '%s'", owner)
}

func parseType(p *ir.Parser, mnemonic string) (t ir.Type, err error) {

	owner := "!lwe." + mnemonic

	switch mnemonic {

	case "rlwe_public_key", "rlwe_secret_key":
		var params RLWEParamsAttr
		err = p.ParseParams(func(key string) (err error) {
			if key != "rlwe_params" {
				return p.UnknownParam(owner, key)
			}
			params, err = parseRLWEParams(p)
			return
		}, "rlwe_params")
		if mnemonic == "rlwe_public_key" {
			return RLWEPublicKeyType{RLWEParams: params}, err
		}
		return RLWESecretKeyType{RLWEParams: params}, err

	case "rlwe_ciphertext":
		var ct RLWECiphertextType
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "encoding":
				ct.Encoding, err = p.ParseAttribute()
			case "rlwe_params":
				ct.RLWEParams, err = parseRLWEParams(p)
			case "underlying_type":
				ct.UnderlyingType, err = p.ParseType()
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "encoding", "rlwe_params", "underlying_type")
		return ct, err

	case "rlwe_plaintext":
		var pt RLWEPlaintextType
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "encoding":
				pt.Encoding, err = p.ParseAttribute()
			case "ring":
				pt.Ring, err = parseRing(p)
			case "underlying_type":
				pt.UnderlyingType, err = p.ParseType()
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "encoding", "ring", "underlying_type")
		return pt, err

	case "lwe_ciphertext":
		var ct LWECiphertextType
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "encoding":
				ct.Encoding, err = p.ParseAttribute()
			case "lwe_params":
				ct.LWEParams, err = parseAttrAs[LWEParamsAttr](p, "#lwe.lwe_params")
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "encoding", "lwe_params")
		return ct, err

	case "lwe_plaintext":
		var pt LWEPlaintextType
		err = p.ParseParams(func(key string) (err error) {
			if key != "encoding" {
				return p.UnknownParam(owner, key)
			}
			pt.Encoding, err = p.ParseAttribute()
			return
		}, "encoding")
		return pt, err

	case "new_lwe_ciphertext":
		var ct NewLWECiphertextType
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "application_data":
				ct.ApplicationData, err = parseAttrAs[ApplicationDataAttr](p, "#lwe.application_data")
			case "plaintext_space":
				ct.PlaintextSpace, err = parseAttrAs[PlaintextSpaceAttr](p, "#lwe.plaintext_space")
			case "ciphertext_space":
				ct.CiphertextSpace, err = parseAttrAs[CiphertextSpaceAttr](p, "#lwe.ciphertext_space")
			case "key":
				ct.Key, err = parseAttrAs[KeyAttr](p, "#lwe.key")
			case "modulus_chain":
				ct.ModulusChain, err = parseAttrAs[ModulusChainAttr](p, "#lwe.modulus_chain")
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "application_data", "plaintext_space", "ciphertext_space", "key", "modulus_chain")
		return ct, err

	case "new_lwe_plaintext":
		var pt NewLWEPlaintextType
		err = p.ParseParams(func(key string) (err error) {
			switch key {
			case "application_data":
				pt.ApplicationData, err = parseAttrAs[ApplicationDataAttr](p, "#lwe.application_data")
			case "plaintext_space":
				pt.PlaintextSpace, err = parseAttrAs[PlaintextSpaceAttr](p, "#lwe.plaintext_space")
			default:
				err = p.UnknownParam(owner, key)
			}
			return
		}, "application_data", "plaintext_space")
		return pt, err
	}

	return nil, p.Errorf("unknown type '%s'", owner)
}
