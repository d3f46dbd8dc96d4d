package presentation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	catalog, err := NewCatalog()
	require.NoError(t, err)
	return NewRenderer(catalog)
}

func blightResult() *entities.PredictionResult {
	return &entities.PredictionResult{
		TopPrediction: "bacterial_leaf_blight",
		Confidence:    0.87,
		HealthStatus:  entities.HealthStatusDiseased,
		Predictions: []entities.Prediction{
			{Rank: 1, Disease: "bacterial_leaf_blight", Confidence: 0.87, HealthStatus: entities.HealthStatusDiseased},
			{Rank: 2, Disease: "brown_spot", Confidence: 0.09, HealthStatus: entities.HealthStatusDiseased},
			{Rank: 3, Disease: "normal", Confidence: 0.04, HealthStatus: entities.HealthStatusHealthy},
		},
		Treatments: &entities.TreatmentRecord{
			ImmediateActions:   []string{"Drain the field", "Remove infected leaves"},
			ChemicalOptions:    []string{"Copper hydroxide"},
			LongTermPrevention: []string{"Use resistant varieties"},
			ExpectedRecovery:   "2-3 weeks",
		},
	}
}

func TestRender_DiseasedEnglish(t *testing.T) {
	r := newTestRenderer(t)

	got := r.Render(NewSession("en"), blightResult(), nil)

	want := ResultView{
		Language:      entities.LanguageEnglish,
		Disease:       "bacterial_leaf_blight",
		DiseaseName:   "Bacterial Leaf Blight",
		Percent:       87,
		HealthStatus:  entities.HealthStatusDiseased,
		Severity:      entities.SeverityHigh,
		SeverityLabel: "High",
		Description:   r.Catalog().Description("bacterial_leaf_blight"),
		Predictions: []PredictionView{
			{Rank: 1, Disease: "bacterial_leaf_blight", DisplayName: "Bacterial Leaf Blight", Percent: 87},
			{Rank: 2, Disease: "brown_spot", DisplayName: "Brown Spot", Percent: 9},
			{Rank: 3, Disease: "normal", DisplayName: "Normal", Percent: 4},
		},
		Treatment: &TreatmentView{
			Sections: []SectionView{
				{Key: "immediate_actions", Heading: "Immediate Actions", Items: []string{"Drain the field", "Remove infected leaves"}},
				{Key: "chemical_options", Heading: "Chemical Options", Items: []string{"Copper hydroxide"}},
				{Key: "long_term_prevention", Heading: "Long-term Prevention", Items: []string{"Use resistant varieties"}},
			},
			ExpectedRecovery: &LabeledValue{Label: "Expected Recovery:", Value: "2-3 weeks"},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, got.Description, "high humidity")
}

func TestRender_LocalizesHeadingsAndSeverity(t *testing.T) {
	r := newTestRenderer(t)

	ms := r.Render(NewSession("ms-MY"), blightResult(), nil)
	assert.Equal(t, "Tinggi", ms.SeverityLabel)
	assert.Equal(t, "Hawar Daun Bakteria", ms.DiseaseName)
	assert.Equal(t, "Tindakan Segera", ms.Treatment.Sections[0].Heading)
	assert.Equal(t, "Jangkaan Pemulihan:", ms.Treatment.ExpectedRecovery.Label)

	ja := r.Render(NewSession("ja"), blightResult(), nil)
	assert.Equal(t, "高", ja.SeverityLabel)
	assert.Equal(t, "即時の対応", ja.Treatment.Sections[0].Heading)

	// identifiers never change with the display language
	assert.Equal(t, "bacterial_leaf_blight", ja.Disease)
	assert.Equal(t, "brown_spot", ja.Predictions[1].Disease)
}

func TestRender_HealthyHasNoTreatmentState(t *testing.T) {
	r := newTestRenderer(t)
	result := &entities.PredictionResult{
		TopPrediction: "normal",
		Confidence:    0.4,
		HealthStatus:  entities.HealthStatusHealthy,
		Predictions: []entities.Prediction{
			{Rank: 1, Disease: "normal", Confidence: 0.4, HealthStatus: entities.HealthStatusHealthy},
		},
	}

	got := r.Render(Session{}, result, nil)

	assert.Equal(t, entities.SeverityHealthy, got.Severity)
	assert.Equal(t, "Healthy", got.SeverityLabel)
	assert.Equal(t, "Healthy Leaf", got.DiseaseName)
	assert.Nil(t, got.Treatment)
	assert.Empty(t, got.NoTreatment)
	assert.Contains(t, got.Description, "Great job!")
}

func TestRender_MissingTreatmentShowsNotFound(t *testing.T) {
	r := newTestRenderer(t)
	result := blightResult()
	result.Treatments = nil

	got := r.Render(NewSession("en"), result, nil)
	assert.Nil(t, got.Treatment)
	assert.Equal(t, "No treatment data found for this disease.", got.NoTreatment)

	result.Treatments = &entities.TreatmentRecord{}
	got = r.Render(NewSession("en"), result, nil)
	assert.Nil(t, got.Treatment)
	assert.NotEmpty(t, got.NoTreatment)
}

func TestRender_PreservesPredictionOrder(t *testing.T) {
	r := newTestRenderer(t)
	result := blightResult()

	got := r.Render(NewSession("en"), result, nil)

	require.Len(t, got.Predictions, len(result.Predictions))
	for i, p := range result.Predictions {
		assert.Equal(t, p.Rank, got.Predictions[i].Rank)
		assert.Equal(t, p.Disease, got.Predictions[i].Disease)
	}
}

func TestRender_SeverityBoundaries(t *testing.T) {
	r := newTestRenderer(t)
	tests := []struct {
		confidence float64
		want       entities.SeverityBucket
	}{
		{0.85, entities.SeverityHigh},
		{0.84, entities.SeverityModerate},
		{0.65, entities.SeverityModerate},
		{0.64, entities.SeverityLow},
	}
	for _, tt := range tests {
		result := blightResult()
		result.Confidence = tt.confidence
		assert.Equal(t, tt.want, r.Render(Session{}, result, nil).Severity, "confidence %v", tt.confidence)
	}
}

func TestDescription_Fallbacks(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	for _, label := range entities.DiseaseLabels {
		assert.NotEmpty(t, catalog.Description(label), label)
	}
	assert.Contains(t, catalog.Description("rice_rust"), "Consult with agricultural experts")
}

func TestCatalog_UnknownLanguageUsesEnglish(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	assert.Equal(t, "Moderate", catalog.SeverityLabel("fr", entities.SeverityModerate))
	assert.Equal(t, "Materials Needed", catalog.SectionHeading("fr", "materials_needed"))
	assert.Equal(t, "Rice Rust", catalog.DiseaseName(entities.LanguageEnglish, "rice_rust"))
}

func TestParseCatalog_RequiresDefaultLanguage(t *testing.T) {
	_, err := parseCatalog([]byte("languages:\n  ms:\n    severity:\n      high: Tinggi\n"))
	assert.Error(t, err)

	_, err = parseCatalog([]byte("languages: ["))
	assert.Error(t, err)
}

func TestWholePercent(t *testing.T) {
	assert.Equal(t, 87, WholePercent(0.87))
	assert.Equal(t, 9, WholePercent(0.09))
	assert.Equal(t, 100, WholePercent(1))
	assert.Equal(t, 0, WholePercent(0))
}

func TestWriteText(t *testing.T) {
	r := newTestRenderer(t)
	rec := &entities.Recommendation{Text: "Act now.", Source: entities.RecommendationSourceFallback}
	view := r.Render(NewSession("en"), blightResult(), rec)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, view))

	out := buf.String()
	assert.Contains(t, out, "Bacterial Leaf Blight (87%) - High")
	assert.Contains(t, out, "2. Brown Spot 9%")
	assert.Contains(t, out, "Immediate Actions\n  - Drain the field")
	assert.Contains(t, out, "Expected Recovery: 2-3 weeks")
	assert.Contains(t, out, "Act now.")
}

func TestWriteTreatmentText(t *testing.T) {
	r := newTestRenderer(t)
	tv := r.RenderTreatment(NewSession("en"), blightResult().Treatments)

	var buf bytes.Buffer
	require.NoError(t, WriteTreatmentText(&buf, tv))
	assert.True(t, strings.HasPrefix(buf.String(), "Immediate Actions\n"))

	buf.Reset()
	require.NoError(t, WriteTreatmentText(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestSession_WithLanguage(t *testing.T) {
	s := NewSession("")
	assert.Equal(t, entities.LanguageEnglish, s.Language)
	assert.Equal(t, entities.LanguageJapanese, s.WithLanguage("ja-JP").Language)
	assert.Equal(t, entities.LanguageEnglish, s.Language)
}
