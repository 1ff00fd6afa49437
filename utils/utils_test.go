package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSortedKeys(t *testing.T) {
	m := map[int]int{1: 1, 3: 3, 2: 2}
	require.Equal(t, []int{1, 2, 3}, GetSortedKeys(m))
	m = map[int]int{-1: 1, -3: 3, -2: 2}
	require.Equal(t, []int{-3, -2, -1}, GetSortedKeys(m))
}

func TestSignExtend(t *testing.T) {
	require.Equal(t, int64(-1), SignExtend(uint16(0xFFFF), 16))
	require.Equal(t, int64(math.MinInt16), SignExtend(int64(0x8000), 16))
	require.Equal(t, int64(math.MaxInt16), SignExtend(int64(0x7FFF), 16))
	require.Equal(t, int64(-3), SignExtend(int64(-3), 64))
	require.Equal(t, int64(1), SignExtend(int64(3), 1)+2)
}

func TestTruncate(t *testing.T) {
	// 65535 and -1 share the same 16 low bits.
	require.Equal(t, int64(-1), Truncate(int64(65535), 16, true))
	require.Equal(t, int64(65535), Truncate(int64(-1), 16, false))
	require.Equal(t, int64(-32768), Truncate(int64(32768), 16, true))
	for x := int64(math.MinInt16); x <= math.MaxInt16; x += 257 {
		require.Equal(t, x, Truncate(x, 16, true))
	}
}

func TestRepeat(t *testing.T) {
	require.Equal(t, []int16{7, 7, 7}, Repeat(int16(7), 3))
	require.Empty(t, Repeat(1.5, 0))
}
