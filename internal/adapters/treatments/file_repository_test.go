package treatments

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/repositories"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const englishDataset = `{
  "bacterial_leaf_blight": {
    "immediate_actions": ["Remove infected leaves", "Apply copper bactericide"],
    "expected_recovery": "7-14 days"
  },
  "default": {"immediate_actions": ["Consult an extension officer"]}
}`

func writeDataset(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestDatasetFileName(t *testing.T) {
	assert.Equal(t, "treatments.json", DatasetFileName(entities.LanguageEnglish))
	assert.Equal(t, "treatments_ms.json", DatasetFileName(entities.LanguageMalay))
	assert.Equal(t, "treatments_ja.json", DatasetFileName(entities.LanguageJapanese))
}

func TestFileRepository_Load(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "treatments.json", englishDataset)

	repo, err := NewFileRepository(dir, 4, nil)
	require.NoError(t, err)

	dataset, err := repo.Load(context.Background(), entities.LanguageEnglish)
	require.NoError(t, err)
	record, ok := dataset["bacterial_leaf_blight"]
	require.True(t, ok)
	assert.Equal(t, []string{"Remove infected leaves", "Apply copper bactericide"}, record.ImmediateActions)
	assert.Equal(t, "7-14 days", record.ExpectedRecovery)
	assert.Empty(t, record.WarningSigns)
	assert.True(t, repo.Exists(entities.LanguageEnglish))
	assert.False(t, repo.Exists(entities.LanguageMalay))
}

func TestFileRepository_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "treatments_ms.json", `{"blast": [`)
	writeDataset(t, dir, "treatments_ja.json", `null`)

	repo, err := NewFileRepository(dir, 4, nil)
	require.NoError(t, err)

	_, err = repo.Load(context.Background(), entities.LanguageEnglish)
	assert.ErrorIs(t, err, repositories.ErrDatasetUnavailable)

	_, err = repo.Load(context.Background(), entities.LanguageMalay)
	assert.ErrorIs(t, err, repositories.ErrDatasetUnavailable)

	_, err = repo.Load(context.Background(), entities.LanguageJapanese)
	assert.ErrorIs(t, err, repositories.ErrDatasetUnavailable)
}

func TestFileRepository_CachesUntilInvalidated(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "treatments.json", englishDataset)

	repo, err := NewFileRepository(dir, 4, nil)
	require.NoError(t, err)

	_, err = repo.Load(context.Background(), entities.LanguageEnglish)
	require.NoError(t, err)

	writeDataset(t, dir, "treatments.json", `{"blast": {"estimated_cost": "RM 50"}}`)

	cached, err := repo.Load(context.Background(), entities.LanguageEnglish)
	require.NoError(t, err)
	assert.Contains(t, cached, "bacterial_leaf_blight")

	repo.Invalidate()

	fresh, err := repo.Load(context.Background(), entities.LanguageEnglish)
	require.NoError(t, err)
	assert.NotContains(t, fresh, "bacterial_leaf_blight")
	assert.Equal(t, "RM 50", fresh["blast"].EstimatedCost)
}

func TestFileRepository_FailureNotCached(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir, 4, nil)
	require.NoError(t, err)

	_, err = repo.Load(context.Background(), entities.LanguageEnglish)
	require.Error(t, err)

	writeDataset(t, dir, "treatments.json", englishDataset)
	_, err = repo.Load(context.Background(), entities.LanguageEnglish)
	assert.NoError(t, err)
}

func TestFileRepository_ConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "treatments.json", englishDataset)
	repo, err := NewFileRepository(dir, 4, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Load(context.Background(), entities.LanguageEnglish)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestNewFileRepository_InvalidCacheSize(t *testing.T) {
	_, err := NewFileRepository(t.TempDir(), 0, nil)
	assert.Error(t, err)
}
