// Package polynomial implements the polynomial dialect: integer polynomials,
// polynomial rings and the type of the elements of a ring.
package polynomial

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Monomial is a single term Coefficient * x**Exponent.
type Monomial struct {
	Coefficient *big.Int
	Exponent    int
}

// IntPolynomial is a sparse univariate polynomial with integer coefficients.
// Terms are sorted by increasing exponent and have non-zero coefficients.
type IntPolynomial struct {
	Terms []Monomial
}

// NewIntPolynomial returns the polynomial sum of the given terms.
// Terms of equal exponent are merged and zero terms are dropped.
func NewIntPolynomial(terms ...Monomial) (p IntPolynomial, err error) {

	byExponent := map[int]*big.Int{}

	for _, t := range terms {
		if t.Exponent < 0 {
			return IntPolynomial{}, fmt.Errorf("polynomial.NewIntPolynomial: negative exponent %d", t.Exponent)
		}
		if t.Coefficient == nil {
			return IntPolynomial{}, fmt.Errorf("polynomial.NewIntPolynomial: missing coefficient for exponent %d", t.Exponent)
		}
		if c, ok := byExponent[t.Exponent]; ok {
			c.Add(c, t.Coefficient)
		} else {
			byExponent[t.Exponent] = new(big.Int).Set(t.Coefficient)
		}
	}

	for e, c := range byExponent {
		if c.Sign() != 0 {
			p.Terms = append(p.Terms, Monomial{Coefficient: c, Exponent: e})
		}
	}

	sort.Slice(p.Terms, func(i, j int) bool {
		return p.Terms[i].Exponent < p.Terms[j].Exponent
	})

	return
}

// NewCyclotomic returns x**n + 1.
func NewCyclotomic(n int) IntPolynomial {
	p, err := NewIntPolynomial(
		Monomial{Coefficient: big.NewInt(1), Exponent: 0},
		Monomial{Coefficient: big.NewInt(1), Exponent: n},
	)
	if err != nil {
		panic(err)
	}
	return p
}

// Degree returns the largest exponent of the polynomial, or 0 for the zero polynomial.
func (p IntPolynomial) Degree() int {
	if len(p.Terms) == 0 {
		return 0
	}
	return p.Terms[len(p.Terms)-1].Exponent
}

// String returns the polynomial in the form 1 + x**8.
func (p IntPolynomial) String() string {

	if len(p.Terms) == 0 {
		return "0"
	}

	var sb strings.Builder

	for i, t := range p.Terms {

		c := new(big.Int).Set(t.Coefficient)

		switch {
		case i == 0 && c.Sign() < 0:
			sb.WriteString("-")
			c.Neg(c)
		case i > 0 && c.Sign() < 0:
			sb.WriteString(" - ")
			c.Neg(c)
		case i > 0:
			sb.WriteString(" + ")
		}

		if t.Exponent == 0 || !c.IsInt64() || c.Int64() != 1 {
			sb.WriteString(c.String())
		}

		switch t.Exponent {
		case 0:
		case 1:
			sb.WriteString("x")
		default:
			fmt.Fprintf(&sb, "x**%d", t.Exponent)
		}
	}

	return sb.String()
}

// IsCyclotomicPowerOfX returns the degree n if the polynomial is exactly x**n + 1 with n >= 1.
func (p IntPolynomial) IsCyclotomicPowerOfX() (n int, ok bool) {
	if len(p.Terms) != 2 {
		return 0, false
	}
	lo, hi := p.Terms[0], p.Terms[1]
	if lo.Exponent != 0 || !isOne(lo.Coefficient) || !isOne(hi.Coefficient) {
		return 0, false
	}
	return hi.Exponent, true
}

func isOne(x *big.Int) bool {
	return x.IsInt64() && x.Int64() == 1
}
