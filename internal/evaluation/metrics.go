package evaluation

// HitAtK reports whether label appears in the first k ranked diseases.
func HitAtK(label string, ranked []string, k int) bool {
	return ReciprocalRank(label, ranked, k) > 0
}

// ReciprocalRank is 1/rank of label within the first k ranked diseases, or
// 0 when it is not there.
func ReciprocalRank(label string, ranked []string, k int) float64 {
	if k > len(ranked) {
		k = len(ranked)
	}
	for i, disease := range ranked[:k] {
		if disease == label {
			return 1.0 / float64(i+1)
		}
	}
	return 0.0
}
