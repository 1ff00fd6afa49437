// Package modarith implements the modular arithmetic dialect: integers reduced modulo
// a fixed modulus, used as coefficient types of polynomial rings.
package modarith

import (
	"math/big"

	"github.com/tuneinsight/lattigo-ir/ir"
)

// DialectName is the namespace of the dialect.
const DialectName = "mod_arith"

// IntType is the type of integers modulo Modulus.Value, stored in Modulus.Type.
// It prints as !mod_arith.int<17 : i32>.
type IntType struct {
	Modulus ir.IntegerAttr
}

// NewIntType returns a new verified [IntType] of the given modulus and storage type.
func NewIntType(modulus *big.Int, storage ir.IntegerType) (t IntType, err error) {
	t = IntType{Modulus: ir.IntegerAttr{Value: new(big.Int).Set(modulus), Type: storage}}
	if err = t.Verify(); err != nil {
		return IntType{}, err
	}
	return
}

func (t IntType) String() string {
	return "!mod_arith.int<" + t.Modulus.String() + ">"
}

func (IntType) TypeDialect() string { return DialectName }

// Verify checks that the modulus is an integer greater than one representable in its storage type.
func (t IntType) Verify() error {
	if _, ok := t.Modulus.Type.(ir.IntegerType); !ok {
		return ir.Errorf(t.String(), "modulus must be typed by an integer type, but found %v", t.Modulus.Type)
	}
	if err := t.Modulus.Verify(); err != nil {
		return err
	}
	if t.Modulus.Value.Cmp(big.NewInt(1)) <= 0 {
		return ir.Errorf(t.String(), "modulus must be greater than 1, but found %s", t.Modulus.Value)
	}
	return nil
}

// Value returns the modulus.
func (t IntType) Value() *big.Int {
	return t.Modulus.Value
}

// StorageType returns the integer type storing the residues.
func (t IntType) StorageType() ir.IntegerType {
	it, _ := t.Modulus.Type.(ir.IntegerType)
	return it
}

// ModulusBitWidth returns the bit width of the modulus, which is the width of its storage type.
func (t IntType) ModulusBitWidth() int {
	return t.StorageType().Width
}

// Dialect returns the mod_arith dialect.
func Dialect() *ir.Dialect {
	return &ir.Dialect{
		Name:      DialectName,
		ParseType: parseType,
	}
}

func parseType(p *ir.Parser, mnemonic string) (ir.Type, error) {

	if mnemonic != "int" {
		return nil, p.Errorf("unknown type '!mod_arith.%s'", mnemonic)
	}

	if err := p.Expect("<"); err != nil {
		return nil, err
	}

	a, err := p.ParseAttribute()
	if err != nil {
		return nil, err
	}

	modulus, ok := a.(ir.IntegerAttr)
	if !ok || modulus.Type == nil {
		return nil, p.Errorf("expected typed integer modulus, but found %s", a)
	}

	if err = p.Expect(">"); err != nil {
		return nil, err
	}

	return IntType{Modulus: modulus}, nil
}
