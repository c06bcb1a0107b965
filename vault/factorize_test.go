package vault

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFactorizeDenseConsecutiveIDs(t *testing.T) {
	ids := Factorize([]string{"DE", "US", "GB"}, 1)

	require.Len(t, ids, 3)
	require.Equal(t, 1, ids["DE"])
	require.Equal(t, 2, ids["GB"])
	require.Equal(t, 3, ids["US"])
}

func TestFactorizeIgnoresDuplicates(t *testing.T) {
	ids := Factorize([]string{"DE", "DE", "US", "DE", "US"}, 1)

	require.Len(t, ids, 2)
	require.Equal(t, 1, ids["DE"])
	require.Equal(t, 2, ids["US"])
}

// the same distinct-value set must map to the same IDs regardless of the
// order the values arrived in
func TestFactorizeOrderIndependent(t *testing.T) {
	first := Factorize([]int{30, 10, 20}, 1)
	second := Factorize([]int{20, 20, 30, 10}, 1)

	require.Equal(t, first, second)
	require.Equal(t, 1, first[10])
	require.Equal(t, 2, first[20])
	require.Equal(t, 3, first[30])
}

func TestFactorizeCustomStart(t *testing.T) {
	ids := Factorize([]string{"b", "a"}, 100)

	require.Equal(t, 100, ids["a"])
	require.Equal(t, 101, ids["b"])
}

func TestFactorizeEmpty(t *testing.T) {
	ids := Factorize([]string{}, 1)
	require.Empty(t, ids)
}
