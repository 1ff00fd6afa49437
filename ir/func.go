package ir

// ReturnOp is the name of the terminator of function bodies.
const ReturnOp = "func.return"

// FuncDialect returns the dialect holding the function terminator.
func FuncDialect() *Dialect {
	return &Dialect{
		Name: "func",
		Ops: []*OpDefinition{
			{
				Name:             ReturnOp,
				Operands:         []Constraint{AnyType("operands")},
				VariadicOperands: true,
				Verify:           verifyReturn,
			},
		},
	}
}

func verifyReturn(op *Operation) error {
	f := op.Func()
	if f == nil {
		return op.Errorf("must be nested in a function")
	}
	if len(op.operands) != len(f.results) {
		return op.Errorf("has %d operands, but enclosing function @%s returns %d values", len(op.operands), f.name, len(f.results))
	}
	for i, v := range op.operands {
		if !TypesEqual(v.typ, f.results[i]) {
			return op.Errorf("type of operand #%d (%s) does not match function result type (%s)", i, v.typ, f.results[i])
		}
	}
	return nil
}
