package search

import (
	"testing"

	"github.com/formulary/formdocs/internal/archive"
	"github.com/stretchr/testify/require"
)

func primeManifest(t *testing.T) *archive.FunctionManifest {
	t.Helper()
	m, err := archive.ParseFunctionManifest([]byte(`{
		"ISPRIME": {"description": "Checks whether the provided value is a prime."},
		"PRIMEVECTOR": {"description": "Generates a vector of prime numbers."}
	}`))
	require.NoError(t, err)
	return m
}

func TestIndexString_ExactConcatenation(t *testing.T) {
	got := IndexString(
		"prime",
		"A small library for prime number utilities.",
		"prime numbers",
		primeManifest(t),
	)
	want := "prime A small library for prime number utilities. prime numbers " +
		"ISPRIME Checks whether the provided value is a prime. " +
		"PRIMEVECTOR Generates a vector of prime numbers."
	require.Equal(t, want, got)
}

func TestIndexString_Deterministic(t *testing.T) {
	m := primeManifest(t)
	first := IndexString("prime", "desc", "kw", m)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, IndexString("prime", "desc", "kw", m))
	}
}

func TestIndexString_EmptyKeywordsOmitted(t *testing.T) {
	require.Equal(t, "prime desc", IndexString("prime", "desc", "", nil))
}

func TestIndexString_CollapsesWhitespace(t *testing.T) {
	got := IndexString("prime", "  spaced\t\tout \n description ", "", nil)
	require.Equal(t, "prime spaced out description", got)
}
