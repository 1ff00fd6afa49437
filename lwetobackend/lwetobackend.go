// Package lwetobackend legalizes the lwe dialect into the operations of the backend dialect.
//
// Each lwe operation is rewritten by its own pattern, which stages the replacement operations
// on an [ir.Rewriter]: the rewrite is committed if the pattern succeeds and discarded otherwise,
// so that an operation is never partially rewritten. The failures of all the patterns of a
// module are collected and returned together as an [*Error].
package lwetobackend

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/tuneinsight/lattigo-ir/arith"
	"github.com/tuneinsight/lattigo-ir/backend"
	"github.com/tuneinsight/lattigo-ir/cryptocontext"
	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/lwe"
	"github.com/tuneinsight/lattigo-ir/polynomial"
	"github.com/tuneinsight/lattigo-ir/tensor"
)

// Options configures the legalization.
type Options struct {
	// CKKS selects the approximate scheme: encodings are lowered to
	// backend.make_ckks_packed_plaintext over 64 bit floats.
	CKKS bool `json:"ckks"`
}

// Pass is the legalization pass. A nil Logger discards the logs.
type Pass struct {
	Options
	Logger *log.Logger
}

// New returns a new [Pass] with the given options.
func New(opts Options, logger *log.Logger) *Pass {
	return &Pass{Options: opts, Logger: logger}
}

// Dialects returns the dialects a context needs to run the pass.
func Dialects() []*ir.Dialect {
	return append(backend.Dialects(), arith.Dialect(), tensor.Dialect())
}

// Failure is the failed legalization of a single operation.
type Failure struct {
	Func string
	Op   string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("in function @%s: %s", f.Func, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Error is returned by [Pass.Run] when at least one operation could not be legalized.
type Error struct {
	Failures []Failure
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "lwetobackend: failed to legalize %d operation(s):", len(e.Failures))
	for _, f := range e.Failures {
		sb.WriteString("\n\t")
		sb.WriteString(f.Error())
	}
	return sb.String()
}

// Unwrap returns the failures, so that errors.As finds the diagnostics they wrap.
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i := range e.Failures {
		errs[i] = e.Failures[i]
	}
	return errs
}

// pattern rewrites the root of rw. cc is the cryptographic context of the enclosing function.
type pattern func(rw *ir.Rewriter, op *ir.Operation, cc *ir.Value) error

func (p *Pass) patterns() map[string]pattern {
	return map[string]pattern{
		lwe.RLWEEncryptOp: legalizeEncrypt,
		lwe.RLWEDecryptOp: legalizeDecrypt,
		lwe.RLWEEncodeOp:  p.legalizeEncode,
		lwe.RLWEDecodeOp:  legalizeDecode,
		lwe.RAddOp:        legalizeCiphertextOp(backend.AddOp),
		lwe.RSubOp:        legalizeCiphertextOp(backend.SubOp),
		lwe.RMulOp:        legalizeCiphertextOp(backend.MulOp),
		lwe.RNegateOp:     legalizeCiphertextOp(backend.NegateOp),
	}
}

func (p *Pass) logf(format string, args ...interface{}) {
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf(format, args...)
}

// Run legalizes every lwe operation of m. The cryptographic context of each function
// must have been threaded beforehand with [cryptocontext.AddArgument].
// Operations whose legalization fails are left untouched and reported in the returned [*Error].
func (p *Pass) Run(ctx *ir.Context, m *ir.Module) error {

	patterns := p.patterns()

	var failures []Failure

	for _, f := range m.Funcs() {

		var roots []*ir.Operation
		for _, op := range f.Body().Operations() {
			if op.Dialect() == lwe.DialectName {
				roots = append(roots, op)
			}
		}

		if len(roots) == 0 {
			continue
		}

		cc, hasContext := cryptocontext.Resolve(f)

		for _, op := range roots {

			fail := func(err error) {
				p.logf("lwetobackend: @%s: %s", f.Name(), err)
				failures = append(failures, Failure{Func: f.Name(), Op: op.Name(), Err: err})
			}

			if !hasContext {
				fail(op.Errorf("found in a function without a crypto context argument; did the crypto-context argument pass fail to run? Run cryptocontext.AddArgument first"))
				continue
			}

			legalize, ok := patterns[op.Name()]
			if !ok {
				fail(op.Errorf("has no lowering to the backend"))
				continue
			}

			rw := ir.NewRewriter(ctx, op)

			if err := legalize(rw, op, cc); err != nil {
				rw.Discard()
				fail(err)
				continue
			}

			if err := rw.Commit(); err != nil {
				fail(err)
				continue
			}

			p.logf("lwetobackend: @%s: legalized '%s' into %d operation(s)", f.Name(), op.Name(), len(rw.Staged()))
		}
	}

	if len(failures) != 0 {
		return &Error{Failures: failures}
	}

	return ir.Verify(ctx, m)
}

// legalizeEncrypt lowers public key encryption, the only one supported by the backend.
func legalizeEncrypt(rw *ir.Rewriter, op *ir.Operation, cc *ir.Value) error {

	input, key := op.Operand(0), op.Operand(1)

	if _, ok := ir.TypeAs[lwe.RLWEPublicKeyType](key); !ok {
		return op.Errorf("the backend only supports public key encryption, but found a key of type %s", key.Type())
	}

	_, err := rw.ReplaceOpWithNew(backend.EncryptOp, []*ir.Value{cc, input, key}, []ir.Type{op.Result(0).Type()})
	return err
}

func legalizeDecrypt(rw *ir.Rewriter, op *ir.Operation, cc *ir.Value) error {
	_, err := rw.ReplaceOpWithNew(backend.DecryptOp, []*ir.Value{cc, op.Operand(0), op.Operand(1)}, []ir.Type{op.Result(0).Type()})
	return err
}

func legalizeDecode(rw *ir.Rewriter, op *ir.Operation, _ *ir.Value) error {
	_, err := rw.ReplaceOpWithNew(backend.DecodeOp, op.Operands(), []ir.Type{op.Result(0).Type()})
	return err
}

func legalizeCiphertextOp(name string) pattern {
	return func(rw *ir.Rewriter, op *ir.Operation, cc *ir.Value) error {
		operands := append([]*ir.Value{cc}, op.Operands()...)
		_, err := rw.ReplaceOpWithNew(name, operands, []ir.Type{op.Result(0).Type()})
		return err
	}
}

// legalizeEncode lowers an encoding into a packed plaintext construction. The backend packs
// vectors of 64 bit elements, sized to the ring degree for broadcast scalars: scalars are splat
// and narrower elements extended before the plaintext is made.
func (p *Pass) legalizeEncode(rw *ir.Rewriter, op *ir.Operation, cc *ir.Value) (err error) {

	input := op.Operand(0)
	elementType := ir.ElementTypeOrSelf(input.Type())

	if !p.CKKS && !ir.IsInteger(elementType) {
		return op.Errorf("input element type must be an integer type for non-CKKS schemes, but found %s", elementType)
	}

	if p.CKKS && !ir.IsFloat(elementType) {
		return op.Errorf("input element type must be a float type for the CKKS scheme, but found %s", elementType)
	}

	ring, ok := ir.AttrAs[polynomial.RingAttr](op, "ring")
	if !ok {
		ir.Unreachable("'%s' op ring %s was not checked by its verifier", op.Name(), op.Attr("ring"))
	}

	encoding, ok := op.Attr("encoding").(lwe.Encoding)
	if !ok {
		ir.Unreachable("'%s' op encoding %s was not checked by its verifier", op.Name(), op.Attr("encoding"))
	}

	values := input
	if _, isTensor := input.Type().(ir.TensorType); !isTensor {
		if values, err = tensor.Splat(rw, input, int64(ring.Degree())); err != nil {
			return
		}
	}

	width, _ := ir.BitWidth(elementType)

	if ir.IsInteger(elementType) {
		switch {
		case width > 64:
			return op.Errorf("no supported packing technique for integers bigger than 64 bits, but found %s", elementType)
		case width < 64:
			if values, err = arith.Cast(rw, arith.ExtSIOp, values, ir.I(64)); err != nil {
				return
			}
		}
	} else {
		switch {
		case width > 64:
			return op.Errorf("no supported packing technique for floats bigger than 64 bits, but found %s", elementType)
		case width < 64:
			if values, err = arith.Cast(rw, arith.ExtFOp, values, ir.F(64)); err != nil {
				return
			}
		}
	}

	plaintext, err := lwe.NewRLWEPlaintextType(encoding, ring, input.Type())
	if err != nil {
		return
	}

	name := backend.MakePackedPlaintextOp
	if p.CKKS {
		name = backend.MakeCKKSPackedPlaintextOp
	}

	if _, err = rw.ReplaceOpWithNew(name, []*ir.Value{cc, values}, []ir.Type{plaintext}); err != nil {
		return fmt.Errorf("'%s' op cannot be packed: %w", op.Name(), err)
	}

	return
}
