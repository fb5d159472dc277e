package variant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariants_CountMatchesAlternatives(t *testing.T) {
	// '1' has 2 alternatives, '0' has 3; 'X' has none.
	got := Variants("10X")
	assert.Len(t, got, 5)

	want := 0
	for _, r := range "10X" {
		want += AlternativeCount(r)
	}
	assert.Equal(t, want, len(got))
}

func TestVariants_ExcludesIdentity(t *testing.T) {
	for _, v := range Variants("SHIP-001") {
		assert.NotEqual(t, "SHIP-001", v)
	}
}

func TestVariants_Deduplicated(t *testing.T) {
	got := Variants("O0")
	seen := make(map[string]bool)
	for _, v := range got {
		assert.False(t, seen[v], "duplicate variant %q", v)
		seen[v] = true
	}
}

func TestVariants_NoConfusableCharacters(t *testing.T) {
	assert.Empty(t, Variants("XYZ-347"))
	assert.Empty(t, Variants(""))
}

func TestVariants_Deterministic(t *testing.T) {
	assert.Equal(t, Variants("1CX345"), Variants("1CX345"))
}

func TestStructuredVariants_MaxTwoChanges(t *testing.T) {
	suffix := "000111"
	for _, v := range StructuredVariants("SHIP", suffix) {
		body := strings.TrimPrefix(v, "SHIP")
		changed := 0
		for i, r := range body {
			if r != rune(suffix[i]) {
				changed++
			}
		}
		assert.LessOrEqual(t, changed, 2, "variant %q changed too many positions", v)
		assert.Greater(t, changed, 0, "unchanged suffix must be excluded")
	}
}

func TestStructuredVariants_PrefixUntouched(t *testing.T) {
	for _, v := range StructuredVariants("IC0N", "123") {
		assert.True(t, strings.HasPrefix(v, "IC0N"), "prefix modified in %q", v)
	}
}

func TestStructuredVariants_ExcludesOriginal(t *testing.T) {
	assert.NotContains(t, StructuredVariants("SHIP", "001"), "SHIP001")
}

func TestStructuredVariants_IncludesSingleAndDouble(t *testing.T) {
	got := StructuredVariants("", "01")
	// Single substitutions.
	assert.Contains(t, got, "O1")
	assert.Contains(t, got, "0I")
	// Double substitution.
	assert.Contains(t, got, "OI")
}

func TestStructuredVariants_EmptySuffix(t *testing.T) {
	assert.Empty(t, StructuredVariants("SHIP", ""))
}

func TestConfusable(t *testing.T) {
	assert.True(t, Confusable('0'))
	assert.True(t, Confusable('S'))
	assert.False(t, Confusable('X'))
	assert.False(t, Confusable('-'))
}
