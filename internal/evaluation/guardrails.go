package evaluation

import "fmt"

// Thresholds are the minimum quality a classifier must reach. Zero values
// disable a check.
type Thresholds struct {
	MinTop1Accuracy float64
	MinTopKAccuracy float64
	MaxFailureRate  float64
}

// Check returns one message per threshold the summary misses.
func (t Thresholds) Check(s *EvalSummary) []string {
	var violations []string
	if t.MinTop1Accuracy > 0 && s.Top1Accuracy < t.MinTop1Accuracy {
		violations = append(violations, fmt.Sprintf("top-1 accuracy %.3f below %.3f", s.Top1Accuracy, t.MinTop1Accuracy))
	}
	if t.MinTopKAccuracy > 0 && s.TopKAccuracy < t.MinTopKAccuracy {
		violations = append(violations, fmt.Sprintf("top-%d accuracy %.3f below %.3f", s.K, s.TopKAccuracy, t.MinTopKAccuracy))
	}
	if t.MaxFailureRate > 0 && s.TotalImages > 0 {
		if rate := float64(s.Failed) / float64(s.TotalImages); rate > t.MaxFailureRate {
			violations = append(violations, fmt.Sprintf("failure rate %.3f above %.3f", rate, t.MaxFailureRate))
		}
	}
	return violations
}
