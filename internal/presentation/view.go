package presentation

import (
	"math"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// PredictionView is one row of the ranked prediction list.
type PredictionView struct {
	Rank        int    `json:"rank"`
	Disease     string `json:"disease"`
	DisplayName string `json:"display_name"`
	Percent     int    `json:"percent"`
}

// SectionView is a non-empty treatment section with its localized heading.
type SectionView struct {
	Key     string   `json:"key"`
	Heading string   `json:"heading"`
	Items   []string `json:"items"`
}

// LabeledValue is a single labelled line such as the estimated cost.
type LabeledValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TreatmentView is a treatment record laid out for display.
type TreatmentView struct {
	Sections         []SectionView `json:"sections"`
	EstimatedCost    *LabeledValue `json:"estimated_cost,omitempty"`
	ExpectedRecovery *LabeledValue `json:"expected_recovery,omitempty"`
}

// ResultView is everything a client needs to render one analysed image.
type ResultView struct {
	Language       entities.Language        `json:"language"`
	Disease        string                   `json:"disease"`
	DiseaseName    string                   `json:"disease_name"`
	Percent        int                      `json:"percent"`
	HealthStatus   entities.HealthStatus    `json:"health_status"`
	Severity       entities.SeverityBucket  `json:"severity"`
	SeverityLabel  string                   `json:"severity_label"`
	Description    string                   `json:"description"`
	Predictions    []PredictionView         `json:"predictions"`
	Treatment      *TreatmentView           `json:"treatment,omitempty"`
	NoTreatment    string                   `json:"no_treatment,omitempty"`
	Recommendation *entities.Recommendation `json:"recommendation,omitempty"`
}

// Section keys in display order.
var sectionOrder = []string{
	"immediate_actions",
	"warning_signs",
	"short_term_management",
	"organic_options",
	"chemical_options",
	"long_term_prevention",
	"cultural_practices",
	"materials_needed",
}

func sectionItems(t *entities.TreatmentRecord, key string) []string {
	switch key {
	case "immediate_actions":
		return t.ImmediateActions
	case "warning_signs":
		return t.WarningSigns
	case "short_term_management":
		return t.ShortTermManagement
	case "organic_options":
		return t.OrganicOptions
	case "chemical_options":
		return t.ChemicalOptions
	case "long_term_prevention":
		return t.LongTermPrevention
	case "cultural_practices":
		return t.CulturalPractices
	case "materials_needed":
		return t.MaterialsNeeded
	}
	return nil
}

// WholePercent converts a confidence in [0,1] to a rounded percentage.
func WholePercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// Renderer builds view models from assembled results.
type Renderer struct {
	catalog *Catalog
}

// NewRenderer creates a renderer backed by catalog.
func NewRenderer(catalog *Catalog) *Renderer {
	return &Renderer{catalog: catalog}
}

// Catalog exposes the label catalog.
func (r *Renderer) Catalog() *Catalog {
	return r.catalog
}

// Render lays out result for the session's language. rec is optional and
// rendering never depends on it.
func (r *Renderer) Render(s Session, result *entities.PredictionResult, rec *entities.Recommendation) ResultView {
	lang := s.Language
	if lang == "" {
		lang = entities.DefaultLanguage
	}
	severity := result.Severity()

	view := ResultView{
		Language:       lang,
		Disease:        result.TopPrediction,
		DiseaseName:    r.catalog.DiseaseName(lang, result.TopPrediction),
		Percent:        WholePercent(result.Confidence),
		HealthStatus:   result.HealthStatus,
		Severity:       severity,
		SeverityLabel:  r.catalog.SeverityLabel(lang, severity),
		Description:    r.catalog.Description(result.TopPrediction),
		Predictions:    make([]PredictionView, 0, len(result.Predictions)),
		Recommendation: rec,
	}

	for _, p := range result.Predictions {
		view.Predictions = append(view.Predictions, PredictionView{
			Rank:        p.Rank,
			Disease:     p.Disease,
			DisplayName: FormatDiseaseName(p.Disease),
			Percent:     WholePercent(p.Confidence),
		})
	}

	if result.HealthStatus == entities.HealthStatusHealthy {
		return view
	}
	view.Treatment = r.RenderTreatment(s, result.Treatments)
	if view.Treatment == nil {
		view.NoTreatment = r.catalog.Labels(lang).NoTreatment
	}
	return view
}

// RenderTreatment lays out a treatment record. It returns nil when t is nil
// or has nothing to show.
func (r *Renderer) RenderTreatment(s Session, t *entities.TreatmentRecord) *TreatmentView {
	if t == nil {
		return nil
	}
	labels := r.catalog.Labels(s.Language)

	view := &TreatmentView{Sections: []SectionView{}}
	for _, key := range sectionOrder {
		items := sectionItems(t, key)
		if len(items) == 0 {
			continue
		}
		view.Sections = append(view.Sections, SectionView{
			Key:     key,
			Heading: r.catalog.SectionHeading(s.Language, key),
			Items:   append([]string(nil), items...),
		})
	}
	if t.EstimatedCost != "" {
		view.EstimatedCost = &LabeledValue{Label: labels.EstimatedCost, Value: t.EstimatedCost}
	}
	if t.ExpectedRecovery != "" {
		view.ExpectedRecovery = &LabeledValue{Label: labels.ExpectedRecovery, Value: t.ExpectedRecovery}
	}

	if len(view.Sections) == 0 && view.EstimatedCost == nil && view.ExpectedRecovery == nil {
		return nil
	}
	return view
}
