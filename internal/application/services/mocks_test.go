package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
)

type mockTreatmentRepository struct {
	mock.Mock
}

func (m *mockTreatmentRepository) Load(ctx context.Context, lang entities.Language) (entities.TreatmentDataset, error) {
	args := m.Called(ctx, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.TreatmentDataset), args.Error(1)
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, imagePath string) (*entities.ClassifierOutput, error) {
	args := m.Called(ctx, imagePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClassifierOutput), args.Error(1)
}

func (m *mockClassifier) Name() string {
	return "mock"
}

type mockTextGenerator struct {
	mock.Mock
}

func (m *mockTextGenerator) Generate(ctx context.Context, prompt string, opts providers.GenerationOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

type mockTreatmentLookup struct {
	mock.Mock
}

func (m *mockTreatmentLookup) Resolve(ctx context.Context, disease string, lang entities.Language) (*entities.TreatmentRecord, bool) {
	args := m.Called(ctx, disease, lang)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*entities.TreatmentRecord), args.Bool(1)
}
