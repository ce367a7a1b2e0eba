package bitset_test

import (
	"testing"

	"github.com/aledsdavies/lowgen/bitset"
	"github.com/stretchr/testify/require"
)

func TestInternerDedupesByCanonicalForm(t *testing.T) {
	in := bitset.NewInterner()

	i1 := in.Intern(bitset.Of('a', 'b', 'c'))
	i2 := in.Intern(bitset.OfRange('a', 'c'))

	require.Equal(t, i1, i2, "equal canonical form must map to the same bitmap index")
	require.Equal(t, 1, in.Len())
}

func TestInternerInsertionOrder(t *testing.T) {
	in := bitset.NewInterner()

	digits := in.Intern(bitset.OfRange('0', '9'))
	letters := in.Intern(bitset.OfRange('a', 'z'))
	digitsAgain := in.Intern(bitset.OfRange('0', '9'))

	require.Equal(t, 0, digits)
	require.Equal(t, 1, letters)
	require.Equal(t, digits, digitsAgain)
	require.Equal(t, 2, in.Len())

	entries := in.Entries()
	require.Len(t, entries, 2)
	require.True(t, entries[0].Equal(bitset.OfRange('0', '9')))
	require.True(t, entries[1].Equal(bitset.OfRange('a', 'z')))
}
