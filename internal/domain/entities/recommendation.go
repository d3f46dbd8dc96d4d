package entities

// RecommendationSource records which path produced the advisory text.
type RecommendationSource string

const (
	RecommendationSourceGemini   RecommendationSource = "gemini"
	RecommendationSourceFallback RecommendationSource = "fallback"
)

// Recommendation is advisory text for an assembled result.
type Recommendation struct {
	Text     string               `json:"recommendation"`
	Source   RecommendationSource `json:"source"`
	Severity SeverityBucket       `json:"severity"`
}

// SystemStatus is the informational health payload.
type SystemStatus struct {
	Status            string `json:"status"`
	ClassifierBackend string `json:"classifier_backend"`
	ModelLoaded       bool   `json:"model_loaded"`
	ModelPath         string `json:"model_path"`
	ModelSize         int64  `json:"model_size"`
	ClassifierScript  bool   `json:"python_script"`
	TreatmentsLoaded  bool   `json:"treatments_loaded"`
	Timestamp         string `json:"timestamp"`
}
