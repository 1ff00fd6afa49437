// Package cryptocontext threads the cryptographic context of the backend through the
// functions of a module: every function using encrypted values receives the context
// as its first argument, where the legalization of the lwe dialect looks it up.
package cryptocontext

import (
	"github.com/tuneinsight/lattigo-ir/backend"
	"github.com/tuneinsight/lattigo-ir/ir"
	"github.com/tuneinsight/lattigo-ir/lwe"
)

// NeedsContext reports whether f contains operations of the lwe or backend dialects.
func NeedsContext(f *ir.Func) bool {
	for _, op := range f.Body().Operations() {
		if d := op.Dialect(); d == lwe.DialectName || d == backend.DialectName {
			return true
		}
	}
	return false
}

// AddArgument prepends a !backend.crypto_context argument to every function of m that
// needs one and does not have one yet. It returns the functions that were modified.
// Running it twice leaves the module unchanged the second time.
func AddArgument(m *ir.Module) (modified []*ir.Func) {
	for _, f := range m.Funcs() {
		if !NeedsContext(f) {
			continue
		}
		if _, ok := Resolve(f); ok {
			continue
		}
		f.InsertArgument(0, backend.CryptoContextType{})
		modified = append(modified, f)
	}
	return
}

// Resolve returns the cryptographic context argument of f.
func Resolve(f *ir.Func) (*ir.Value, bool) {
	for _, arg := range f.Arguments() {
		if _, ok := ir.TypeAs[backend.CryptoContextType](arg); ok {
			return arg, true
		}
	}
	return nil, false
}
