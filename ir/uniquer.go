package ir

import (
	"fmt"
	"sync"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the blake3 digest of the canonical textual form of a type or an attribute.
// Structurally equal values have equal fingerprints.
func Fingerprint(v fmt.Stringer) [32]byte {
	return blake3.Sum256([]byte(v.String()))
}

// uniquer interns types and attributes so that structurally equal values
// share one instance per context. Buckets are keyed by fingerprint and
// resolved with structural equality.
type uniquer struct {
	mu    sync.Mutex
	types map[[32]byte][]Type
	attrs map[[32]byte][]Attribute
}

func newUniquer() *uniquer {
	return &uniquer{
		types: map[[32]byte][]Type{},
		attrs: map[[32]byte][]Attribute{},
	}
}

// UniqueType returns the instance interned in the context that is structurally equal to t,
// interning t if there is none.
func (ctx *Context) UniqueType(t Type) Type {
	u := ctx.uniquer
	u.mu.Lock()
	defer u.mu.Unlock()
	key := Fingerprint(t)
	for _, c := range u.types[key] {
		if TypesEqual(c, t) {
			return c
		}
	}
	u.types[key] = append(u.types[key], t)
	return t
}

// UniqueAttribute returns the instance interned in the context that is structurally equal to a,
// interning a if there is none.
func (ctx *Context) UniqueAttribute(a Attribute) Attribute {
	u := ctx.uniquer
	u.mu.Lock()
	defer u.mu.Unlock()
	key := Fingerprint(a)
	for _, c := range u.attrs[key] {
		if AttributesEqual(c, a) {
			return c
		}
	}
	u.attrs[key] = append(u.attrs[key], a)
	return a
}

// NumUniqued returns the number of distinct types and attributes interned in the context.
func (ctx *Context) NumUniqued() (types, attrs int) {
	u := ctx.uniquer
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, b := range u.types {
		types += len(b)
	}
	for _, b := range u.attrs {
		attrs += len(b)
	}
	return
}
