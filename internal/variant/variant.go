// Package variant generates OCR-confusion variants of shipment identifiers.
// Scanned invoices routinely swap visually similar glyphs (0/O, 1/I, 5/S);
// when an exact store lookup misses, the matching engine retries with these
// variants.
package variant

import "sort"

// confusions maps a character to the alternatives OCR commonly mistakes it
// for. The identity substitution is never listed.
var confusions = map[rune][]rune{
	'0': {'O', 'Q', 'D'},
	'O': {'0', 'Q'},
	'Q': {'0', 'O'},
	'D': {'0'},
	'1': {'I', 'l'},
	'I': {'1', 'l'},
	'l': {'1', 'I'},
	'5': {'S'},
	'S': {'5'},
	'8': {'B'},
	'B': {'8'},
	'6': {'G'},
	'G': {'6'},
	'2': {'Z'},
	'Z': {'2'},
}

// maxCombinedChanges caps how many positions a structured variant may alter
// simultaneously, regardless of identifier length.
const maxCombinedChanges = 2

// Variants returns all single-substitution OCR variants of id: for every
// position whose character has confusion alternatives, one variant per
// alternative. The identity string is excluded and results are deduplicated
// and sorted for determinism.
func Variants(id string) []string {
	if id == "" {
		return nil
	}

	seen := make(map[string]bool)
	runes := []rune(id)
	for i, r := range runes {
		for _, alt := range confusions[r] {
			v := make([]rune, len(runes))
			copy(v, runes)
			v[i] = alt
			s := string(v)
			if s != id {
				seen[s] = true
			}
		}
	}

	return sortedKeys(seen)
}

// StructuredVariants returns variants of a structured identifier (a literal
// prefix followed by a fixed suffix), altering up to two distinct suffix
// positions. The prefix is never modified. The unmodified identifier is
// excluded from the output.
func StructuredVariants(prefix, suffix string) []string {
	if suffix == "" {
		return nil
	}

	seen := make(map[string]bool)
	combine([]rune(suffix), 0, 0, seen)
	delete(seen, suffix)

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, prefix+s)
	}
	sort.Strings(out)
	return out
}

// combine walks suffix positions left to right, branching into each confusion
// alternative while tracking how many positions have changed. The unchanged
// suffix is part of the traversal base and removed by the caller.
func combine(runes []rune, pos, changed int, seen map[string]bool) {
	seen[string(runes)] = true
	if pos >= len(runes) || changed >= maxCombinedChanges {
		return
	}

	// Leave this position unchanged.
	combine(runes, pos+1, changed, seen)

	// Substitute each alternative at this position.
	orig := runes[pos]
	for _, alt := range confusions[orig] {
		runes[pos] = alt
		combine(runes, pos+1, changed+1, seen)
	}
	runes[pos] = orig
}

// Confusable reports whether the character has OCR confusion alternatives.
func Confusable(r rune) bool {
	return len(confusions[r]) > 0
}

// AlternativeCount returns how many confusion alternatives a character has.
func AlternativeCount(r rune) int {
	return len(confusions[r])
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
