package naming

// SuggestThreshold is the minimum similarity for a name to be offered as a suggestion.
const SuggestThreshold = 0.6

// Suggest returns the candidate most similar to name, if any candidate
// reaches SuggestThreshold after folding both sides.
func Suggest(name string, candidates []string) (string, bool) {
	best := ""
	bestScore := 0.0

	for _, c := range candidates {
		score := Similarity(Fold(name), Fold(c))
		if score > bestScore {
			best, bestScore = c, score
		}
	}

	if bestScore < SuggestThreshold {
		return "", false
	}

	return best, true
}

// Similarity computes a normalized similarity score between 0 and 1.
// 1.0 means identical strings, 0.0 means completely different.
func Similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	maxLen := max(len(a), len(b))

	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

// Levenshtein computes the edit distance between two strings.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(a)]
}
