package polynomial

import (
	"fmt"
	"math/big"

	"github.com/ALTree/bigfloat"

	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/modarith"
)

// DialectName is the namespace of the dialect.
const DialectName = "polynomial"

// IntPolynomialAttr wraps an [IntPolynomial] as an attribute.
type IntPolynomialAttr struct {
	Polynomial IntPolynomial
}

func (a IntPolynomialAttr) String() string {
	return "#polynomial.int_polynomial<" + a.Polynomial.String() + ">"
}

func (IntPolynomialAttr) AttrDialect() string { return DialectName }

// RingAttr describes the ring CoefficientType[x] / (PolynomialModulus).
type RingAttr struct {
	CoefficientType   ir.Type
	PolynomialModulus IntPolynomialAttr
}

// NewRingAttr returns a new verified [RingAttr].
func NewRingAttr(coefficientType ir.Type, polynomialModulus IntPolynomial) (r RingAttr, err error) {
	r = RingAttr{CoefficientType: coefficientType, PolynomialModulus: IntPolynomialAttr{Polynomial: polynomialModulus}}
	if err = r.Verify(); err != nil {
		return RingAttr{}, err
	}
	return
}

func (r RingAttr) String() string {
	coeff := "<nil>"
	if r.CoefficientType != nil {
		coeff = r.CoefficientType.String()
	}
	return fmt.Sprintf("#polynomial.ring<coefficientType = %s, polynomialModulus = %s>", coeff, r.PolynomialModulus)
}

func (RingAttr) AttrDialect() string { return DialectName }

// Verify checks that the coefficient type is an integer or a modular integer and
// that the polynomial modulus is non-constant.
func (r RingAttr) Verify() error {
	switch r.CoefficientType.(type) {
	case ir.IntegerType, modarith.IntType:
	default:
		return ir.Errorf(r.String(), "coefficient type must be an integer or a mod_arith type, but found %v", r.CoefficientType)
	}
	if err := ir.VerifyType(r.CoefficientType); err != nil {
		return err
	}
	if r.Degree() < 1 {
		return ir.Errorf(r.String(), "polynomial modulus must have a positive degree")
	}
	return nil
}

// Degree returns the degree of the polynomial modulus, which is the number of coefficients of a ring element.
func (r RingAttr) Degree() int {
	return r.PolynomialModulus.Polynomial.Degree()
}

// CoefficientModulus returns the modulus of the coefficients: the modulus of a mod_arith
// coefficient type, or 2^w for a w-bit integer coefficient type.
func (r RingAttr) CoefficientModulus() *big.Int {
	switch t := r.CoefficientType.(type) {
	case modarith.IntType:
		return new(big.Int).Set(t.Value())
	case ir.IntegerType:
		return new(big.Int).Lsh(big.NewInt(1), uint(t.Width))
	}
	return nil
}

// LogCoefficientModulus returns log2 of the coefficient modulus.
func (r RingAttr) LogCoefficientModulus() float64 {
	q := r.CoefficientModulus()
	if q == nil || q.Sign() <= 0 {
		return 0
	}
	const prec = 128
	x := new(big.Float).SetPrec(prec).SetInt(q)
	two := new(big.Float).SetPrec(prec).SetInt64(2)
	log2, _ := new(big.Float).Quo(bigfloat.Log(x), bigfloat.Log(two)).Float64()
	return log2
}

// PolynomialType is the type of the elements of a polynomial ring.
type PolynomialType struct {
	Ring RingAttr
}

// NewPolynomialType returns a new verified [PolynomialType].
func NewPolynomialType(ring RingAttr) (PolynomialType, error) {
	if err := ring.Verify(); err != nil {
		return PolynomialType{}, err
	}
	return PolynomialType{Ring: ring}, nil
}

func (t PolynomialType) String() string {
	return "!polynomial.polynomial<ring = " + t.Ring.String() + ">"
}

func (PolynomialType) TypeDialect() string { return DialectName }

// Verify checks the ring.
func (t PolynomialType) Verify() error {
	return t.Ring.Verify()
}

// Dialect returns the polynomial dialect.
func Dialect() *ir.Dialect {
	return &ir.Dialect{
		Name:           DialectName,
		ParseType:      parseType,
		ParseAttribute: parseAttribute,
	}
}

func parseType(p *ir.Parser, mnemonic string) (ir.Type, error) {

	if mnemonic != "polynomial" {
		return nil, p.Errorf("unknown type '!polynomial.%s'", mnemonic)
	}

	var t PolynomialType

	err := p.ParseParams(func(key string) error {
		if key != "ring" {
			return p.UnknownParam("!polynomial.polynomial", key)
		}
		ring, err := parseRing(p)
		t.Ring = ring
		return err
	}, "ring")

	return t, err
}

func parseRing(p *ir.Parser) (RingAttr, error) {
	a, err := p.ParseAttribute()
	if err != nil {
		return RingAttr{}, err
	}
	r, ok := a.(RingAttr)
	if !ok {
		return RingAttr{}, p.Errorf("expected #polynomial.ring, but found %s", a)
	}
	return r, nil
}

func parseAttribute(p *ir.Parser, mnemonic string) (ir.Attribute, error) {

	switch mnemonic {
	case "int_polynomial":
		if err := p.Expect("<"); err != nil {
			return nil, err
		}
		poly, err := parseIntPolynomial(p)
		if err != nil {
			return nil, err
		}
		return IntPolynomialAttr{Polynomial: poly}, p.Expect(">")

	case "ring":
		var r RingAttr
		err := p.ParseParams(func(key string) (err error) {
			switch key {
			case "coefficientType":
				r.CoefficientType, err = p.ParseType()
			case "polynomialModulus":
				var a ir.Attribute
				if a, err = p.ParseAttribute(); err != nil {
					return
				}
				pm, ok := a.(IntPolynomialAttr)
				if !ok {
					return p.Errorf("expected #polynomial.int_polynomial, but found %s", a)
				}
				r.PolynomialModulus = pm
			default:
				err = p.UnknownParam("#polynomial.ring", key)
			}
			return
		}, "coefficientType", "polynomialModulus")
		return r, err
	}

	return nil, p.Errorf("unknown attribute '#polynomial.%s'", mnemonic)
}

// parseIntPolynomial parses a sum of terms c, cx or cx**e separated by '+' or '-'.
func parseIntPolynomial(p *ir.Parser) (IntPolynomial, error) {

	var terms []Monomial

	neg, err := p.Consume("-")
	if err != nil {
		return IntPolynomial{}, err
	}

	for {
		t := Monomial{Coefficient: big.NewInt(1)}

		var hasCoeff, hasX bool

		if p.AtInteger() {
			if t.Coefficient, err = p.ParseInteger(); err != nil {
				return IntPolynomial{}, err
			}
			hasCoeff = true
		}

		if hasX, err = p.ConsumeKeyword("x"); err != nil {
			return IntPolynomial{}, err
		}

		if hasX {
			t.Exponent = 1
			var pow bool
			if pow, err = p.Consume("**"); err != nil {
				return IntPolynomial{}, err
			}
			if pow {
				if t.Exponent, err = p.ParseInt(); err != nil {
					return IntPolynomial{}, err
				}
			}
		}

		if !hasCoeff && !hasX {
			return IntPolynomial{}, p.Errorf("expected polynomial term")
		}

		if neg {
			t.Coefficient.Neg(t.Coefficient)
		}

		terms = append(terms, t)

		var plus bool
		if plus, err = p.Consume("+"); err != nil {
			return IntPolynomial{}, err
		}
		if plus {
			neg = false
			continue
		}
		if neg, err = p.Consume("-"); err != nil {
			return IntPolynomial{}, err
		}
		if !neg {
			break
		}
	}

	poly, err := NewIntPolynomial(terms...)
	if err != nil {
		return IntPolynomial{}, p.Errorf("%s", err)
	}

	return poly, nil
}
