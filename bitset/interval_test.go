package bitset_test

import (
	"testing"

	"github.com/aledsdavies/lowgen/bitset"
	"github.com/stretchr/testify/require"
)

func TestOfSingleByte(t *testing.T) {
	iv := bitset.Of('a')
	r, ok := iv.SingleRange()
	require.True(t, ok)
	require.Equal(t, bitset.Range{Lo: 'a', Hi: 'a'}, r)
}

func TestOfCoalescesConsecutive(t *testing.T) {
	// Interval.of([b, b+1, ..., b+k]) = {[b, b+k]}
	iv := bitset.Of('0', '1', '2', '3', '4', '5', '6', '7', '8', '9')
	r, ok := iv.SingleRange()
	require.True(t, ok)
	require.Equal(t, bitset.Range{Lo: '0', Hi: '9'}, r)
}

func TestOfCoalescesOutOfOrderAndDuplicates(t *testing.T) {
	iv := bitset.Of('c', 'a', 'b', 'a')
	r, ok := iv.SingleRange()
	require.True(t, ok)
	require.Equal(t, bitset.Range{Lo: 'a', Hi: 'c'}, r)
}

func TestOfKeepsDisjointRangesSeparate(t *testing.T) {
	iv := bitset.Of('a', 'c')
	require.Equal(t, 2, iv.Size())
}

func TestOfRangesMergesOverlapping(t *testing.T) {
	iv := bitset.OfRanges(bitset.Range{Lo: 0, Hi: 10}, bitset.Range{Lo: 5, Hi: 20})
	r, ok := iv.SingleRange()
	require.True(t, ok)
	require.Equal(t, bitset.Range{Lo: 0, Hi: 20}, r)
}

func TestOfRangesMergesAbutting(t *testing.T) {
	iv := bitset.OfRanges(bitset.Range{Lo: 0, Hi: 9}, bitset.Range{Lo: 10, Hi: 19})
	r, ok := iv.SingleRange()
	require.True(t, ok)
	require.Equal(t, bitset.Range{Lo: 0, Hi: 19}, r)
}

func TestContains(t *testing.T) {
	iv := bitset.OfRanges(bitset.Range{Lo: 'a', Hi: 'z'}, bitset.Range{Lo: '0', Hi: '9'})
	require.True(t, iv.Contains('m'))
	require.True(t, iv.Contains('5'))
	require.False(t, iv.Contains('!'))
	require.False(t, iv.Contains('A'))
}

func TestContainsBoundaries(t *testing.T) {
	iv := bitset.OfRange(10, 20)
	require.False(t, iv.Contains(9))
	require.True(t, iv.Contains(10))
	require.True(t, iv.Contains(20))
	require.False(t, iv.Contains(21))
}

func TestIntersects(t *testing.T) {
	a := bitset.OfRange('a', 'm')
	b := bitset.OfRange('m', 'z')
	require.True(t, a.Intersects(b), "shared boundary byte 'm'")

	c := bitset.OfRange('n', 'z')
	require.False(t, a.Intersects(c))
}

func TestBitmapMatchesContains(t *testing.T) {
	iv := bitset.OfRanges(bitset.Range{Lo: 'a', Hi: 'f'}, bitset.Range{Lo: 'A', Hi: 'F'})
	bm := iv.Bitmap()
	for b := 0; b < 256; b++ {
		require.Equal(t, iv.Contains(byte(b)), bm[b], "byte %d", b)
	}
}

func TestEqualCanonicalForm(t *testing.T) {
	a := bitset.Of('a', 'b', 'c')
	b := bitset.OfRange('a', 'c')
	require.True(t, a.Equal(b))
}

func TestUnion(t *testing.T) {
	a := bitset.OfRange('a', 'f')
	b := bitset.OfRange('0', '9')
	u := a.Union(b)
	require.Equal(t, 2, u.Size())
	require.True(t, u.Contains('c'))
	require.True(t, u.Contains('5'))
	require.False(t, u.Contains('z'))
}

func TestSingle(t *testing.T) {
	b, ok := bitset.Of('x').Single()
	require.True(t, ok)
	require.Equal(t, byte('x'), b)

	_, ok = bitset.OfRange('a', 'z').Single()
	require.False(t, ok)
}
