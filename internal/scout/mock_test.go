package scout

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/posso-labs/leadscout/internal/model"
	"github.com/posso-labs/leadscout/pkg/gemini"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) EnumerateAreas(ctx context.Context, place string) ([]string, error) {
	args := m.Called(ctx, place)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockService) SearchBusinesses(ctx context.Context, query string, loc *gemini.Coordinate) (*gemini.SearchResult, error) {
	args := m.Called(ctx, query, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gemini.SearchResult), args.Error(1)
}

func (m *mockService) ExtractLeads(ctx context.Context, text string, citations []model.Citation) ([]model.Lead, error) {
	args := m.Called(ctx, text, citations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockService) EnrichLead(ctx context.Context, lead model.Lead) (*model.Enrichment, error) {
	args := m.Called(ctx, lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Enrichment), args.Error(1)
}
