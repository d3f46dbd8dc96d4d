package entities

// SeverityBucket is the display category derived from health status and
// confidence. It is never stored.
type SeverityBucket string

const (
	SeverityHealthy  SeverityBucket = "healthy"
	SeverityHigh     SeverityBucket = "high"
	SeverityModerate SeverityBucket = "moderate"
	SeverityLow      SeverityBucket = "low"
)

// Lower bounds are inclusive.
const (
	HighSeverityThreshold     = 0.85
	ModerateSeverityThreshold = 0.65
)

// SeverityFor buckets a prediction. Healthy wins regardless of confidence.
func SeverityFor(status HealthStatus, confidence float64) SeverityBucket {
	switch {
	case status == HealthStatusHealthy:
		return SeverityHealthy
	case confidence >= HighSeverityThreshold:
		return SeverityHigh
	case confidence >= ModerateSeverityThreshold:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// Label returns the English display label ("High", "Moderate", ...).
func (s SeverityBucket) Label() string {
	switch s {
	case SeverityHealthy:
		return "Healthy"
	case SeverityHigh:
		return "High"
	case SeverityModerate:
		return "Moderate"
	case SeverityLow:
		return "Low"
	}
	return string(s)
}

// Valid reports whether s is one of the four buckets.
func (s SeverityBucket) Valid() bool {
	switch s {
	case SeverityHealthy, SeverityHigh, SeverityModerate, SeverityLow:
		return true
	}
	return false
}
