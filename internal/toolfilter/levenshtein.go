package toolfilter

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" suggestion.
const maxSuggestDistance = 3

// LevenshteinDistance computes the case-sensitive edit distance between two
// strings, byte by byte, keeping only two rows of the table.
func LevenshteinDistance(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// SuggestTool returns the available tool name closest to name, or "" when
// none is within maxSuggestDistance. Ties go to the earlier name.
func SuggestTool(name string, available []string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range available {
		if d := LevenshteinDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
