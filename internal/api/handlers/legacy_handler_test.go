package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/mypadicare/internal/api/handlers"
	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

type legacyFixture struct {
	predictor *mockPredictor
	finder    *mockTreatmentFinder
	handler   *handlers.LegacyHandler
}

func newLegacyFixture() *legacyFixture {
	f := &legacyFixture{
		predictor: &mockPredictor{policy: services.ServerUploadPolicy(0)},
		finder:    new(mockTreatmentFinder),
	}
	f.handler = handlers.NewLegacyHandler(
		handlers.NewPredictionHandler(f.predictor),
		handlers.NewTreatmentHandler(f.finder),
		handlers.NewHealthHandler(&stubStatusReporter{status: entities.SystemStatus{Status: "healthy"}}),
	)
	return f
}

func TestLegacyHandler_Health(t *testing.T) {
	f := newLegacyFixture()
	w := httptest.NewRecorder()

	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predict_api.php?action=health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestLegacyHandler_TreatmentLookup(t *testing.T) {
	f := newLegacyFixture()
	f.finder.On("Lookup", mock.Anything, "blast", entities.LanguageEnglish).
		Return(&entities.TreatmentRecord{WarningSigns: []string{"Diamond lesions"}}, true)
	f.finder.On("Lookup", mock.Anything, "hispa", entities.LanguageEnglish).Return(nil, false)

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predict_api.php?treatment=blast", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Diamond lesions")

	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predict_api.php?treatment=hispa", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Treatment not found for disease: hispa")
}

func TestLegacyHandler_Predict(t *testing.T) {
	f := newLegacyFixture()
	f.predictor.On("Predict", mock.Anything, mock.Anything, entities.LanguageEnglish).Return(blightResult(), nil)

	body, contentType := multipartUpload(t, "image", "leaf.jpg", "image/jpeg", []byte("jpeg"), nil)
	req := httptest.NewRequest(http.MethodPost, "/predict_api.php", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	f.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "bacterial_leaf_blight", response["top_prediction"])
}

func TestLegacyHandler_OptionsAndUnsupported(t *testing.T) {
	f := newLegacyFixture()

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/predict_api.php", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	for _, tt := range []struct{ method, target string }{
		{http.MethodGet, "/predict_api.php"},
		{http.MethodGet, "/predict_api.php?action=other"},
		{http.MethodPut, "/predict_api.php"},
		{http.MethodDelete, "/predict_api.php"},
	} {
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", tt.method, tt.target)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
	}
}
