package ir

import (
	"errors"
	"fmt"
)

// Verify checks the whole module: the well-formedness of every type and attribute,
// the definition of every operand before its use, the function terminators, and
// the verifier of every operation. All failures are reported, joined in a single error.
func Verify(ctx *Context, m *Module) error {
	var errs []error
	for _, f := range m.funcs {
		errs = append(errs, VerifyFunc(ctx, f)...)
	}
	return errors.Join(errs...)
}

// VerifyFunc checks a single function and returns every failure found.
func VerifyFunc(ctx *Context, f *Func) (errs []error) {

	wrap := func(err error) error {
		return fmt.Errorf("in function @%s: %w", f.name, err)
	}

	defined := map[*Value]bool{}

	for _, a := range f.body.args {
		if err := VerifyType(a.typ); err != nil {
			errs = append(errs, wrap(err))
		}
		defined[a] = true
	}

	for _, t := range f.results {
		if err := VerifyType(t); err != nil {
			errs = append(errs, wrap(err))
		}
	}

	for i, op := range f.body.ops {

		if op.block != f.body {
			errs = append(errs, wrap(op.Errorf("has an inconsistent parent block")))
		}

		for j, v := range op.operands {
			if !defined[v] {
				errs = append(errs, wrap(op.Errorf("operand #%d is used before being defined", j)))
			}
		}

		if err := ctx.VerifyOperation(op); err != nil {
			errs = append(errs, wrap(err))
		}

		if op.name == ReturnOp && i != len(f.body.ops)-1 {
			errs = append(errs, wrap(op.Errorf("must be the last operation of the block")))
		}

		for _, r := range op.results {
			defined[r] = true
		}
	}

	if n := len(f.body.ops); n == 0 || f.body.ops[n-1].name != ReturnOp {
		errs = append(errs, wrap(fmt.Errorf("body must end with '%s'", ReturnOp)))
	}

	return
}
