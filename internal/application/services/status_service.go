package services

import (
	"context"
	"os"
	"time"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// DatasetInspector reports whether a treatment dataset file is present.
type DatasetInspector interface {
	Exists(lang entities.Language) bool
}

// StatusConfig names the artifacts the health report inspects.
type StatusConfig struct {
	Backend    string
	ModelPath  string
	ScriptPath string
}

// StatusService builds the informational health report. It has no side
// effects.
type StatusService struct {
	cfg        StatusConfig
	treatments DatasetInspector
	now        func() time.Time
}

// NewStatusService creates a new status service
func NewStatusService(cfg StatusConfig, treatments DatasetInspector) *StatusService {
	return &StatusService{cfg: cfg, treatments: treatments, now: time.Now}
}

// Status inspects the model, classifier script and default dataset.
func (s *StatusService) Status(_ context.Context) entities.SystemStatus {
	status := entities.SystemStatus{
		Status:            "healthy",
		ClassifierBackend: s.cfg.Backend,
		ModelPath:         s.cfg.ModelPath,
		Timestamp:         entities.FormatTimestamp(s.now()),
	}

	if info, err := os.Stat(s.cfg.ModelPath); err == nil && !info.IsDir() {
		status.ModelLoaded = true
		status.ModelSize = info.Size()
	}
	if s.cfg.ScriptPath != "" {
		if info, err := os.Stat(s.cfg.ScriptPath); err == nil && !info.IsDir() {
			status.ClassifierScript = true
		}
	}
	status.TreatmentsLoaded = s.treatments.Exists(entities.DefaultLanguage)
	return status
}
