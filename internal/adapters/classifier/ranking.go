package classifier

import (
	"math"
	"sort"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// Softmax converts raw logits to probabilities.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		maxLogit = math.Max(maxLogit, float64(l))
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(float64(l) - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// RankTopK orders class scores by descending confidence and returns the top
// k as ranked predictions. Ties keep class order. k <= 0 keeps every class.
func RankTopK(scores []float64, classes []string, k int) []entities.Prediction {
	n := min(len(scores), len(classes))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if k > 0 && k < n {
		idx = idx[:k]
	}

	predictions := make([]entities.Prediction, len(idx))
	for rank, i := range idx {
		disease := classes[i]
		predictions[rank] = entities.Prediction{
			Rank:         rank + 1,
			Disease:      disease,
			Confidence:   clamp01(scores[i]),
			HealthStatus: entities.HealthStatusFor(disease),
		}
	}
	return predictions
}

// OutputFromPredictions fills the top-level fields from rank 1.
func OutputFromPredictions(predictions []entities.Prediction) *entities.ClassifierOutput {
	output := &entities.ClassifierOutput{Predictions: predictions}
	if len(predictions) > 0 {
		top := predictions[0]
		output.TopPrediction = top.Disease
		output.Confidence = top.Confidence
		output.HealthStatus = top.HealthStatus
	}
	return output
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
