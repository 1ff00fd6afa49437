// Package utils implements generic helpers shared by the IR, its dialects and the runtime.
package utils

import (
	"golang.org/x/exp/constraints"
)

// Min returns the minimum between a and b.
func Min[V constraints.Ordered](a, b V) V {
	if a < b {
		return a
	}
	return b
}

// SignExtend interprets the width least significant bits of x as a two's complement
// integer and returns its value.
func SignExtend[V constraints.Integer](x V, width int) int64 {
	if width >= 64 {
		return int64(x)
	}
	shift := 64 - width
	return int64(uint64(x)<<shift) >> shift
}

// ZeroExtend returns the value of the width least significant bits of x as an unsigned integer.
func ZeroExtend[V constraints.Integer](x V, width int) uint64 {
	if width >= 64 {
		return uint64(x)
	}
	return uint64(x) & (1<<width - 1)
}

// Truncate wraps x to width bits, returning the two's complement value of the
// truncated bits if signed is true and their unsigned value otherwise.
func Truncate[V constraints.Integer](x V, width int, signed bool) int64 {
	if signed {
		return SignExtend(x, width)
	}
	return int64(ZeroExtend(x, width))
}
