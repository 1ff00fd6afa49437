package runtime

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/tuneinsight/lattigo/v6/utils/sampling"

	"github.com/tuneinsight/lattigo-ir/utils"
)

// Source is a deterministic source of cleartext vectors. Two sources created with
// the same seed produce the same vectors.
//
// Source is not safe for concurrent use.
type Source struct {
	prng sampling.PRNG
	buff [8]byte
}

// NewSource returns a new [Source] whose PRNG is keyed by the blake2b digest of seed.
func NewSource(seed []byte) (*Source, error) {
	key := blake2b.Sum256(seed)
	prng, err := sampling.NewKeyedPRNG(key[:])
	if err != nil {
		return nil, fmt.Errorf("cannot NewSource: %w", err)
	}
	return &Source{prng: prng}, nil
}

func (s *Source) uint64() uint64 {
	if _, err := s.prng.Read(s.buff[:]); err != nil {
		// Sanity check, this error should not happen.
		panic(err)
	}
	return binary.LittleEndian.Uint64(s.buff[:])
}

// Ints returns n uniform two's complement integers of the given bit width.
func (s *Source) Ints(n, width int) (values []int64) {
	values = make([]int64, n)
	for i := range values {
		values[i] = utils.SignExtend(s.uint64(), width)
	}
	return
}

// Floats returns n uniform values in [-bound, bound).
func (s *Source) Floats(n int, bound float64) (values []float64) {
	values = make([]float64, n)
	for i := range values {
		u := float64(s.uint64()>>11) / (1 << 53)
		values[i] = bound * (2*u - 1)
	}
	return
}

// Floats32 returns n uniform values in [-bound, bound) rounded to single precision.
func (s *Source) Floats32(n int, bound float64) (values []float64) {
	values = s.Floats(n, bound)
	for i := range values {
		values[i] = float64(float32(values[i]))
	}
	return
}
