package match

import (
	"strings"
)

// suggestionSuffixes are dropped from names before scoring suggestions,
// longest first, e.g. CustomerID is close to Customer.
var suggestionSuffixes = []string{"timestamp", "ids", "utc", "id", "at"}

// Normalize folds a member name for matching: case is ignored and the
// separators '_', '-' and ' ' are dropped, so customer_id, Customer-ID and
// CustomerID all normalize alike.
func Normalize(name string) string {
	return Fold(strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == ' ' {
			return -1
		}

		return r
	}, name))
}

func trimSuggestionSuffix(normalized string) string {
	for _, suffix := range suggestionSuffixes {
		if len(normalized) > len(suffix) && strings.HasSuffix(normalized, suffix) {
			return normalized[:len(normalized)-len(suffix)]
		}
	}

	return normalized
}

// NameSimilarity scores how alike two member names are, from 0 (nothing in
// common) to 1 (equal once normalized). Names are also compared with a
// common suffix such as ID removed and the better score wins.
func NameSimilarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)

	return max(similarity(na, nb), similarity(trimSuggestionSuffix(na), trimSuggestionSuffix(nb)))
}

func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)

	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}

	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the Levenshtein distance of two rune strings, computed
// over a single row.
func editDistance(a, b []rune) int {
	if len(a) > len(b) {
		a, b = b, a
	}

	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}

	for j := 1; j <= len(b); j++ {
		diagonal := row[0]
		row[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			next := min(row[i]+1, row[i-1]+1, diagonal+cost)
			diagonal, row[i] = row[i], next
		}
	}

	return row[len(a)]
}
