package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestKeyForSolventAlias(t *testing.T) {
	// On a single manifold every blank maps to the one shared solvent vial,
	// whichever stream asked for it.
	require.Equal(t, keyFor("limonene", nil, true), keyFor("linalool", nil, true))

	// On two manifolds each stream keeps its own blank identity.
	require.NotEqual(t, keyFor("limonene", nil, false), keyFor("linalool", nil, false))
}

func TestKeyForDistinguishesConcentrations(t *testing.T) {
	require.NotEqual(t, keyFor("x", f(-6), false), keyFor("x", f(-4), false))
	require.NotEqual(t, keyFor("x", nil, false), keyFor("x", f(0), false),
		"a blank is not the same vial as a concentration of zero")
}

func TestSortedConcs(t *testing.T) {
	in := []*float64{f(-3), nil, f(-6)}
	out := sortedConcs(in)

	require.Nil(t, out[0], "blank sorts below any number")
	require.Equal(t, -6.0, *out[1])
	require.Equal(t, -3.0, *out[2])

	// Input order untouched.
	require.Equal(t, -3.0, *in[0])
	require.Nil(t, in[1])
}
