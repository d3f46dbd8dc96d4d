package evaluation

import "time"

// Difficulty grades how hard an image is to classify.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is empty or one of the defined grades.
func (d Difficulty) IsValid() bool {
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// LabeledImage is one image with its known disease label.
type LabeledImage struct {
	ID         string     `json:"id"`
	Path       string     `json:"path"`
	Label      string     `json:"label"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// EvalResult holds the outcome for a single image.
type EvalResult struct {
	ImageID        string        `json:"image_id"`
	Label          string        `json:"label"`
	Predicted      string        `json:"predicted,omitempty"`
	Confidence     float64       `json:"confidence"`
	Ranked         []string      `json:"ranked,omitempty"`
	Top1           bool          `json:"top1"`
	TopK           bool          `json:"top_k"`
	ReciprocalRank float64       `json:"reciprocal_rank"`
	Latency        time.Duration `json:"latency"`
	Error          string        `json:"error,omitempty"`
}

// EvalSummary holds aggregate metrics across a manifest.
type EvalSummary struct {
	Backend      string                   `json:"backend"`
	K            int                      `json:"k"`
	TotalImages  int                      `json:"total_images"`
	Evaluated    int                      `json:"evaluated"`
	Failed       int                      `json:"failed"`
	Top1Accuracy float64                  `json:"top1_accuracy"`
	TopKAccuracy float64                  `json:"top_k_accuracy"`
	MRR          float64                  `json:"mrr"`
	AvgLatency   time.Duration            `json:"avg_latency"`
	ByLabel      map[string]*LabelSummary `json:"by_label"`
	Results      []EvalResult             `json:"results,omitempty"`
}

// LabelSummary holds metrics for the images of one label.
type LabelSummary struct {
	Count        int     `json:"count"`
	Top1Accuracy float64 `json:"top1_accuracy"`
	TopKAccuracy float64 `json:"top_k_accuracy"`
	MRR          float64 `json:"mrr"`
}
