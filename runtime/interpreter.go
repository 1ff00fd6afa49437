package runtime

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"github.com/tuneinsight/lattigo-ir/arith"
	"github.com/tuneinsight/lattigo-ir/backend"
	"github.com/tuneinsight/lattigo-ir/cryptocontext"
	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/lwe"
	"github.com/tuneinsight/lattigo-ir/tensor"
	"github.com/tuneinsight/lattigo-ir/utils"
)

// Interpreter executes the functions produced by the legalization of the lwe dialect.
//
// Values are represented as follows:
//   - integers and indices: int64, holding the two's complement value of their width
//     (the zero extended value for unsigned integers)
//   - floats: float64, rounded to single precision for f32
//   - tensors: []int64 or []float64 in row-major order
//   - keys, plaintexts and ciphertexts: *rlwe.PublicKey, *rlwe.SecretKey, *rlwe.Plaintext, *rlwe.Ciphertext
type Interpreter struct {
	cc     *CryptoContext
	Logger *log.Logger
}

// NewInterpreter returns a new [Interpreter] binding cc to the crypto context arguments.
// A nil logger discards the logs.
func NewInterpreter(cc *CryptoContext, logger *log.Logger) *Interpreter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Interpreter{cc: cc, Logger: logger}
}

type handler func(in *Interpreter, op *ir.Operation, operands []interface{}) (interface{}, error)

var handlers = map[string]handler{
	arith.ConstantOp:                  (*Interpreter).constant,
	arith.ExtSIOp:                     (*Interpreter).extsi,
	arith.ExtFOp:                      (*Interpreter).extf,
	arith.TruncIOp:                    (*Interpreter).trunci,
	tensor.SplatOp:                    (*Interpreter).splat,
	backend.MakePackedPlaintextOp:     makePacked(BGV),
	backend.MakeCKKSPackedPlaintextOp: makePacked(CKKS),
	backend.EncryptOp:                 (*Interpreter).encrypt,
	backend.DecryptOp:                 (*Interpreter).decrypt,
	backend.AddOp:                     (*Interpreter).add,
	backend.SubOp:                     (*Interpreter).sub,
	backend.MulOp:                     (*Interpreter).mul,
	backend.NegateOp:                  (*Interpreter).negate,
	backend.DecodeOp:                  (*Interpreter).decode,
}

// Call executes f on args and returns its results. The crypto context argument of f,
// if any, is bound by the interpreter and must not be part of args.
func (in *Interpreter) Call(f *ir.Func, args ...interface{}) (results []interface{}, err error) {

	env := map[*ir.Value]interface{}{}

	params := f.Arguments()
	if cc, ok := cryptocontext.Resolve(f); ok {
		env[cc] = in.cc
		params = append(append([]*ir.Value{}, params[:cc.Index()]...), params[cc.Index()+1:]...)
	}

	if len(args) != len(params) {
		return nil, fmt.Errorf("cannot Call @%s: expected %d arguments, but got %d", f.Name(), len(params), len(args))
	}

	for i, v := range params {
		if env[v], err = bind(v.Type(), args[i]); err != nil {
			return nil, fmt.Errorf("cannot Call @%s: argument #%d: %w", f.Name(), i, err)
		}
	}

	for _, op := range f.Body().Operations() {

		operands := make([]interface{}, op.NumOperands())
		for i, v := range op.Operands() {
			operands[i] = env[v]
		}

		if op.Name() == ir.ReturnOp {
			in.Logger.Printf("runtime: @%s: returned %d value(s)", f.Name(), len(operands))
			return operands, nil
		}

		h, ok := handlers[op.Name()]
		if !ok {
			return nil, fmt.Errorf("cannot Call @%s: %w", f.Name(), op.Errorf("has no runtime implementation"))
		}

		var out interface{}
		if out, err = h(in, op, operands); err != nil {
			return nil, fmt.Errorf("cannot Call @%s: %w", f.Name(), err)
		}

		env[op.Result(0)] = out
	}

	return nil, fmt.Errorf("cannot Call @%s: missing %s", f.Name(), ir.ReturnOp)
}

// bind checks that arg is a valid representation of a value of type t and normalizes it.
func bind(t ir.Type, arg interface{}) (interface{}, error) {

	switch t := t.(type) {
	case ir.IntegerType:
		switch x := arg.(type) {
		case int:
			return wrap(int64(x), t), nil
		case int64:
			return wrap(x, t), nil
		}

	case ir.IndexType:
		switch x := arg.(type) {
		case int:
			return int64(x), nil
		case int64:
			return x, nil
		}

	case ir.FloatType:
		if x, ok := arg.(float64); ok {
			return round(x, t), nil
		}

	case ir.TensorType:
		n := int(t.NumElements())
		switch x := arg.(type) {
		case []int64:
			if it, ok := t.Element.(ir.IntegerType); ok && len(x) == n {
				return mapSlice(x, func(v int64) int64 { return wrap(v, it) }), nil
			}
		case []float64:
			if ft, ok := t.Element.(ir.FloatType); ok && len(x) == n {
				return mapSlice(x, func(v float64) float64 { return round(v, ft) }), nil
			}
		}

	case lwe.RLWEPublicKeyType:
		if pk, ok := arg.(*rlwe.PublicKey); ok {
			return pk, nil
		}

	case lwe.RLWESecretKeyType:
		if sk, ok := arg.(*rlwe.SecretKey); ok {
			return sk, nil
		}

	case lwe.RLWECiphertextType:
		if ct, ok := arg.(*rlwe.Ciphertext); ok {
			return ct, nil
		}

	case lwe.RLWEPlaintextType:
		if pt, ok := arg.(*rlwe.Plaintext); ok {
			return pt, nil
		}
	}

	return nil, fmt.Errorf("invalid value of type %T for type %s", arg, t)
}

func mapSlice[T any](s []T, f func(T) T) (r []T) {
	r = make([]T, len(s))
	for i := range s {
		r[i] = f(s[i])
	}
	return
}

// wrap truncates x to the width of t.
func wrap(x int64, t ir.IntegerType) int64 {
	return utils.Truncate(x, t.Width, t.Signedness != ir.Unsigned)
}

func round(x float64, t ir.FloatType) float64 {
	if t.Width <= 32 {
		return float64(float32(x))
	}
	return x
}

// elementwise applies f to a scalar or to every element of a tensor.
func elementwise[T int64 | float64](v interface{}, f func(T) T) (interface{}, error) {
	switch v := v.(type) {
	case T:
		return f(v), nil
	case []T:
		return mapSlice(v, f), nil
	}
	return nil, fmt.Errorf("invalid value.(type): %T", v)
}

func (in *Interpreter) constant(op *ir.Operation, _ []interface{}) (interface{}, error) {
	switch v := op.Attr("value").(type) {
	case ir.IntegerAttr:
		if t, ok := v.Type.(ir.IntegerType); ok {
			return wrap(v.Int64(), t), nil
		}
		return v.Int64(), nil
	case ir.FloatAttr:
		return round(v.Value, v.Type), nil
	}
	ir.Unreachable("'%s' op value %s was not checked by its verifier", op.Name(), op.Attr("value"))
	return nil, nil
}

func elementWidth(v *ir.Value) (ir.IntegerType, bool) {
	t, ok := ir.ElementTypeOrSelf(v.Type()).(ir.IntegerType)
	return t, ok
}

func (in *Interpreter) extsi(op *ir.Operation, operands []interface{}) (interface{}, error) {
	from, _ := elementWidth(op.Operand(0))
	return elementwise(operands[0], func(x int64) int64 { return utils.SignExtend(x, from.Width) })
}

func (in *Interpreter) extf(op *ir.Operation, operands []interface{}) (interface{}, error) {
	return elementwise(operands[0], func(x float64) float64 { return x })
}

func (in *Interpreter) trunci(op *ir.Operation, operands []interface{}) (interface{}, error) {
	to, _ := elementWidth(op.Result(0))
	return elementwise(operands[0], func(x int64) int64 { return wrap(x, to) })
}

func (in *Interpreter) splat(op *ir.Operation, operands []interface{}) (interface{}, error) {
	n := int(op.Result(0).Type().(ir.TensorType).NumElements())
	switch x := operands[0].(type) {
	case int64:
		return utils.Repeat(x, n), nil
	case float64:
		return utils.Repeat(x, n), nil
	}
	return nil, op.Errorf("cannot splat a value of type %T", operands[0])
}

func makePacked(scheme Scheme) handler {
	return func(in *Interpreter, op *ir.Operation, operands []interface{}) (interface{}, error) {
		if in.cc.Scheme != scheme {
			return nil, op.Errorf("requires the %s scheme, but the crypto context uses %s", scheme, in.cc.Scheme)
		}
		pt, err := in.cc.pack(operands[1])
		if err != nil {
			return nil, op.Errorf("%s", err)
		}
		return pt, nil
	}
}

func (in *Interpreter) encrypt(op *ir.Operation, operands []interface{}) (interface{}, error) {
	pt, pk := operands[1].(*rlwe.Plaintext), operands[2].(*rlwe.PublicKey)
	ct, err := rlwe.NewEncryptor(in.cc.params, pk).EncryptNew(pt)
	if err != nil {
		return nil, op.Errorf("cannot Encrypt: %s", err)
	}
	return ct, nil
}

func (in *Interpreter) decrypt(op *ir.Operation, operands []interface{}) (interface{}, error) {
	ct, sk := operands[1].(*rlwe.Ciphertext), operands[2].(*rlwe.SecretKey)
	return rlwe.NewDecryptor(in.cc.params, sk).DecryptNew(ct), nil
}

func evalBinary(op *ir.Operation, operands []interface{}, eval func(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (*rlwe.Ciphertext, error)) (interface{}, error) {
	ct, err := eval(operands[1].(*rlwe.Ciphertext), operands[2].(*rlwe.Ciphertext))
	if err != nil {
		return nil, op.Errorf("%s", err)
	}
	return ct, nil
}

func (in *Interpreter) add(op *ir.Operation, operands []interface{}) (interface{}, error) {
	return evalBinary(op, operands, in.cc.evaluator.AddNew)
}

func (in *Interpreter) sub(op *ir.Operation, operands []interface{}) (interface{}, error) {
	return evalBinary(op, operands, in.cc.evaluator.SubNew)
}

func (in *Interpreter) mul(op *ir.Operation, operands []interface{}) (interface{}, error) {
	return evalBinary(op, operands, in.cc.evaluator.MulNew)
}

// negate computes (ct - ct) - ct, the evaluators having no negation.
func (in *Interpreter) negate(op *ir.Operation, operands []interface{}) (interface{}, error) {
	ct := operands[1].(*rlwe.Ciphertext)
	zero, err := in.cc.evaluator.SubNew(ct, ct)
	if err != nil {
		return nil, op.Errorf("%s", err)
	}
	if ct, err = in.cc.evaluator.SubNew(zero, ct); err != nil {
		return nil, op.Errorf("%s", err)
	}
	return ct, nil
}

// decode unpacks a plaintext into a value of its underlying type. Integers are
// narrowed to the width of the underlying type and scalars read the first slot.
//
// BGV slots hold values mod t, decoded in [-t/2, t/2) before narrowing. Results that
// stayed within the range of the underlying type are exact. Results that overflowed
// it were reduced mod t, not mod 2^width, and differ from two's complement wraparound
// whenever t is not a power of two: with t = 65537, the int16 sum 30000 + 30000
// decodes to -5537 where wraparound gives -5536.
func (in *Interpreter) decode(op *ir.Operation, operands []interface{}) (interface{}, error) {

	pt := operands[0].(*rlwe.Plaintext)
	underlying := op.Operand(0).Type().(lwe.RLWEPlaintextType).UnderlyingType

	n := 1
	tt, isTensor := underlying.(ir.TensorType)
	if isTensor {
		n = int(tt.NumElements())
	}

	if n > in.cc.slots {
		return nil, op.Errorf("cannot decode %d values from %d slots", n, in.cc.slots)
	}

	var values interface{}

	switch in.cc.Scheme {
	case BGV:
		have := make([]int64, in.cc.slots)
		if err := in.cc.encoder.Decode(pt, have); err != nil {
			return nil, op.Errorf("cannot Decode: %s", err)
		}
		values = have[:n]
	default:
		have := make([]float64, in.cc.slots)
		if err := in.cc.encoder.Decode(pt, have); err != nil {
			return nil, op.Errorf("cannot Decode: %s", err)
		}
		values = have[:n]
	}

	var out interface{}
	var err error

	switch element := ir.ElementTypeOrSelf(underlying).(type) {
	case ir.IntegerType:
		if f, ok := values.([]float64); ok {
			values = mapSliceTo(f, func(x float64) int64 { return int64(math.Round(x)) })
		}
		out, err = elementwise(values, func(x int64) int64 { return wrap(x, element) })
	case ir.FloatType:
		if i, ok := values.([]int64); ok {
			values = mapSliceTo(i, func(x int64) float64 { return float64(x) })
		}
		out, err = elementwise(values, func(x float64) float64 { return round(x, element) })
	default:
		return nil, op.Errorf("cannot decode values of type %s", underlying)
	}

	if err != nil || isTensor {
		return out, err
	}

	switch out := out.(type) {
	case []int64:
		return out[0], nil
	case []float64:
		return out[0], nil
	}

	return out, nil
}

func mapSliceTo[T, U any](s []T, f func(T) U) (r []U) {
	r = make([]U, len(s))
	for i := range s {
		r[i] = f(s[i])
	}
	return
}
