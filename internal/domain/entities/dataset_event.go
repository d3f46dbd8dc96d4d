package entities

import "time"

// DatasetEvent announces that the treatment datasets changed on one
// instance.
type DatasetEvent struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}
