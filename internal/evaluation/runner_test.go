package evaluation

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClassifier returns a fixed ranking per image path.
type fakeClassifier struct {
	rankings map[string][]string
	calls    atomic.Int32
}

func (f *fakeClassifier) Name() string { return "fake" }

func (f *fakeClassifier) Classify(ctx context.Context, imagePath string) (*entities.ClassifierOutput, error) {
	f.calls.Add(1)
	ranked, ok := f.rankings[imagePath]
	if !ok {
		return nil, providers.ErrClassifierUnavailable
	}
	out := &entities.ClassifierOutput{TopPrediction: ranked[0]}
	confidence := 0.6
	for i, disease := range ranked {
		out.Predictions = append(out.Predictions, entities.Prediction{
			Rank:         i + 1,
			Disease:      disease,
			Confidence:   confidence,
			HealthStatus: entities.HealthStatusFor(disease),
		})
		confidence /= 2
	}
	out.Confidence = out.Predictions[0].Confidence
	out.HealthStatus = entities.HealthStatusFor(ranked[0])
	return out, nil
}

func TestRunner_Run(t *testing.T) {
	clf := &fakeClassifier{rankings: map[string][]string{
		"a.jpg": {"blast", "brown_spot", "hispa"},
		"b.jpg": {"brown_spot", "blast", "hispa"},
		"c.jpg": {"hispa", "tungro", "normal", "blast"},
	}}
	images := []LabeledImage{
		{ID: "a", Path: "a.jpg", Label: "blast"},
		{ID: "b", Path: "b.jpg", Label: "blast"},
		{ID: "c", Path: "c.jpg", Label: "blast"},
		{ID: "d", Path: "d.jpg", Label: "normal"},
	}

	summary, err := NewRunner(clf, 3, 2).Run(context.Background(), images)
	require.NoError(t, err)

	assert.Equal(t, "fake", summary.Backend)
	assert.Equal(t, 4, summary.TotalImages)
	assert.Equal(t, 3, summary.Evaluated)
	assert.Equal(t, 1, summary.Failed)
	assert.InDelta(t, 0.25, summary.Top1Accuracy, 1e-9)
	assert.InDelta(t, 0.5, summary.TopKAccuracy, 1e-9)
	assert.InDelta(t, (1.0+0.5)/4, summary.MRR, 1e-9)
	assert.Equal(t, int32(4), clf.calls.Load())

	blast := summary.ByLabel["blast"]
	require.NotNil(t, blast)
	assert.Equal(t, 3, blast.Count)
	assert.InDelta(t, 1.0/3.0, blast.Top1Accuracy, 1e-9)
	assert.InDelta(t, 2.0/3.0, blast.TopKAccuracy, 1e-9)

	normal := summary.ByLabel["normal"]
	require.NotNil(t, normal)
	assert.Equal(t, 1, normal.Count)
	assert.Zero(t, normal.Top1Accuracy)

	// results keep manifest order
	require.Len(t, summary.Results, 4)
	assert.Equal(t, "a", summary.Results[0].ImageID)
	assert.Equal(t, "d", summary.Results[3].ImageID)
	assert.NotEmpty(t, summary.Results[3].Error)
}

func TestRunner_RejectsInconsistentOutput(t *testing.T) {
	clf := &fakeClassifier{rankings: map[string][]string{"a.jpg": {"blast"}}}
	broken := classifierFunc(func(ctx context.Context, path string) (*entities.ClassifierOutput, error) {
		out, err := clf.Classify(ctx, path)
		if err == nil {
			out.TopPrediction = "hispa"
		}
		return out, err
	})

	summary, err := NewRunner(broken, 3, 1).Run(context.Background(), []LabeledImage{{ID: "a", Path: "a.jpg", Label: "blast"}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[0].Error, "malformed prediction sequence")
}

func TestRunner_ContextCancelled(t *testing.T) {
	clf := &fakeClassifier{rankings: map[string][]string{"a.jpg": {"blast"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(clf, 3, 1).Run(ctx, []LabeledImage{{ID: "a", Path: "a.jpg", Label: "blast"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(&fakeClassifier{}, 0, 0)
	assert.Equal(t, 3, r.k)
	assert.Equal(t, 1, r.concurrency)
}

func TestThresholds_Check(t *testing.T) {
	summary := &EvalSummary{K: 3, TotalImages: 10, Failed: 3, Top1Accuracy: 0.6, TopKAccuracy: 0.9}

	assert.Empty(t, Thresholds{}.Check(summary))
	assert.Empty(t, Thresholds{MinTop1Accuracy: 0.5, MinTopKAccuracy: 0.9, MaxFailureRate: 0.3}.Check(summary))

	violations := Thresholds{MinTop1Accuracy: 0.7, MinTopKAccuracy: 0.95, MaxFailureRate: 0.2}.Check(summary)
	require.Len(t, violations, 3)
	assert.Contains(t, violations[0], "top-1 accuracy")
	assert.Contains(t, violations[1], "top-3 accuracy")
	assert.Contains(t, violations[2], "failure rate")
}

type classifierFunc func(ctx context.Context, path string) (*entities.ClassifierOutput, error)

func (f classifierFunc) Classify(ctx context.Context, path string) (*entities.ClassifierOutput, error) {
	return f(ctx, path)
}

func (f classifierFunc) Name() string { return "func" }
