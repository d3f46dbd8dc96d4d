package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/bootstrap"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/evaluation"
	"github.com/zatekoja/mypadicare/pkg/config"
)

const blastOutput = `{"success": true, "top_prediction": "blast", "confidence": 0.91, "health_status": "diseased",
"predictions": [
 {"rank": 1, "disease": "blast", "confidence": 0.91, "health_status": "diseased"},
 {"rank": 2, "disease": "brown_spot", "confidence": 0.06, "health_status": "diseased"}
]}`

// setupCLI points the command at a temp workspace with a fake classifier
// script that prints output.
func setupCLI(t *testing.T, output string) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "treatments.json"), []byte(`{
		"blast": {"immediate_actions": ["Apply Tricyclazole"], "estimated_cost": "RM 80"},
		"default": {"immediate_actions": ["Consult an extension officer"]}
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "treatments_ms.json"), []byte(`{
		"blast": {"immediate_actions": ["Sembur Tricyclazole"]}
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify.sh"),
		[]byte("#!/bin/sh\ncat <<'EOF'\n"+output+"\nEOF\n"), 0o755))

	cfg := &config.Config{
		Env:    "test",
		Upload: config.UploadConfig{Dir: filepath.Join(dir, "uploads"), MaxBytes: 16 << 20},
		Classifier: config.ClassifierConfig{
			Backend: "process",
			Command: "sh",
			Script:  "classify.sh",
			WorkDir: dir,
			Timeout: 10 * time.Second,
		},
		Treatments: config.TreatmentsConfig{Dir: dir, CacheSize: 4},
		Gemini:     config.GeminiConfig{MaxAttempts: 1},
	}

	prevApp := newApp
	newApp = func(ctx context.Context) (*bootstrap.App, error) {
		return bootstrap.New(ctx, cfg, nil)
	}
	t.Cleanup(func() {
		newApp = prevApp
		lang, jsonOut, verbose = "en", false, false
		recommendDisease, recommendConfidence = "", 0
	})
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestClassify_PrintsResult(t *testing.T) {
	dir := setupCLI(t, blastOutput)
	imagePath := filepath.Join(dir, "leaf.png")
	writePNG(t, imagePath)

	out, err := execute(t, "classify", imagePath)
	require.NoError(t, err)

	assert.Contains(t, out, "Blast (91%) - High")
	assert.Contains(t, out, "2. Brown Spot 6%")
	assert.Contains(t, out, "  - Apply Tricyclazole")
	assert.Contains(t, out, "Estimated Cost: RM 80")

	// the stored upload is removed after classification
	entries, _ := os.ReadDir(filepath.Join(dir, "uploads"))
	assert.Empty(t, entries)
}

func TestClassify_JSONInMalay(t *testing.T) {
	dir := setupCLI(t, blastOutput)
	imagePath := filepath.Join(dir, "leaf.png")
	writePNG(t, imagePath)

	out, err := execute(t, "classify", imagePath, "--lang", "ms", "--json")
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var view map[string]interface{}
	require.NoError(t, dec.Decode(&view))
	assert.Equal(t, "blast", view["disease"])
	assert.Equal(t, "Tinggi", view["severity_label"])
	assert.Contains(t, out, "Sembur Tricyclazole")
	assert.Nil(t, view["recommendation"])

	var advice struct {
		Recommendation map[string]interface{} `json:"recommendation"`
	}
	require.NoError(t, dec.Decode(&advice))
	assert.Equal(t, "fallback", advice.Recommendation["source"])
	assert.NotEmpty(t, advice.Recommendation["recommendation"])
}

// generatorFunc adapts a function to providers.TextGenerator.
type generatorFunc func(ctx context.Context, prompt string, opts providers.GenerationOptions) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string, opts providers.GenerationOptions) (string, error) {
	return f(ctx, prompt, opts)
}

func TestClassify_PrintsResultBeforeRecommendation(t *testing.T) {
	dir := setupCLI(t, blastOutput)
	imagePath := filepath.Join(dir, "leaf.png")
	writePNG(t, imagePath)

	var out bytes.Buffer
	var printedFirst string
	buildApp := newApp
	newApp = func(ctx context.Context) (*bootstrap.App, error) {
		app, err := buildApp(ctx)
		if err != nil {
			return nil, err
		}
		app.Recommendations, err = services.NewRecommendationService(generatorFunc(
			func(ctx context.Context, prompt string, opts providers.GenerationOptions) (string, error) {
				printedFirst = out.String()
				return "Spray in the early morning and drain the field.", nil
			}), services.DefaultRecommendationConfig(), nil)
		return app, err
	}

	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"classify", imagePath})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, printedFirst, "Blast (91%) - High")
	assert.Contains(t, printedFirst, "  - Apply Tricyclazole")
	assert.NotContains(t, printedFirst, "drain the field")
	assert.True(t, strings.HasSuffix(out.String(), "\nSpray in the early morning and drain the field.\n"))
}

func TestClassify_ClientPrecheckRejects(t *testing.T) {
	dir := setupCLI(t, blastOutput)

	gif := filepath.Join(dir, "leaf.gif")
	require.NoError(t, os.WriteFile(gif, []byte("GIF89a\x01\x00\x01\x00"), 0o644))
	_, err := execute(t, "classify", gif)
	require.Error(t, err)
	assert.Contains(t, userMessage(err), "Unsupported file type")

	_, err = execute(t, "classify", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestClassify_ClassifierFailure(t *testing.T) {
	dir := setupCLI(t, `{"success": false, "error": "model not found"}`)
	imagePath := filepath.Join(dir, "leaf.png")
	writePNG(t, imagePath)

	_, err := execute(t, "classify", imagePath)
	assert.Error(t, err)
}

func TestTreatment(t *testing.T) {
	setupCLI(t, blastOutput)

	out, err := execute(t, "treatment", "blast", "--lang", "ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Sembur Tricyclazole")

	_, err = execute(t, "treatment", "hispa", "--lang", "en")
	require.Error(t, err)
	assert.Equal(t, "Treatment not found for disease: hispa", userMessage(err))
}

func TestRecommend_UsesTemplatesWithoutKey(t *testing.T) {
	setupCLI(t, blastOutput)

	out, err := execute(t, "recommend", "--disease", "blast", "--confidence", "0.9", "--json")
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "fallback", rec["source"])
	assert.Equal(t, "high", rec["severity"])
	assert.NotEmpty(t, rec["recommendation"])

	_, err = execute(t, "recommend", "--disease", "blast", "--confidence", "1.5")
	assert.Error(t, err)

	_, err = execute(t, "recommend", "--disease", "leaf_rust", "--confidence", "0.5")
	require.Error(t, err)
	assert.Equal(t, "Unknown disease: leaf_rust", userMessage(err))
}

func TestHealth(t *testing.T) {
	setupCLI(t, blastOutput)

	out, err := execute(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "classifier:        process")
	assert.Contains(t, out, "classifier script: yes")
	assert.Contains(t, out, "treatments loaded: yes")
}

func TestEvaluate(t *testing.T) {
	dir := setupCLI(t, blastOutput)
	writePNG(t, filepath.Join(dir, "a.png"))
	writePNG(t, filepath.Join(dir, "b.png"))
	manifest := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`[
		{"id": "a", "path": "a.png", "label": "blast"},
		{"id": "b", "path": "b.png", "label": "brown_spot"}
	]`), 0o644))
	t.Cleanup(func() {
		evalTopK, evalConcurrency = 3, 1
		evalThresholds = evaluation.Thresholds{}
	})

	out, err := execute(t, "evaluate", manifest, "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "top-1 accuracy: 0.500")
	assert.Contains(t, out, "top-3 accuracy: 1.000")
	assert.Contains(t, out, "brown_spot")

	_, err = execute(t, "evaluate", manifest, "--min-top1", "0.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top-1 accuracy 0.500 below 0.900")
}
