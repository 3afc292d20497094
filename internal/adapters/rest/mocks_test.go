package rest

import (
	"context"

	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockFindProperties struct{ mock.Mock }

func (m *mockFindProperties) Execute(ctx context.Context, query domain.SearchQuery) (*domain.RankedPage, error) {
	args := m.Called(ctx, query)
	page, _ := args.Get(0).(*domain.RankedPage)
	return page, args.Error(1)
}

type mockGetPropertyDetails struct{ mock.Mock }

func (m *mockGetPropertyDetails) Execute(ctx context.Context, id uuid.UUID) (*domain.PropertyDetailsView, error) {
	args := m.Called(ctx, id)
	view, _ := args.Get(0).(*domain.PropertyDetailsView)
	return view, args.Error(1)
}

type mockFindAnomalies struct{ mock.Mock }

func (m *mockFindAnomalies) Execute(ctx context.Context, criteria domain.AnomalyCriteria) (*domain.AnomalyResult, error) {
	args := m.Called(ctx, criteria)
	result, _ := args.Get(0).(*domain.AnomalyResult)
	return result, args.Error(1)
}

type mockGetMarketSummary struct{ mock.Mock }

func (m *mockGetMarketSummary) Execute(ctx context.Context, query domain.MarketQuery) (*domain.MarketSummary, error) {
	args := m.Called(ctx, query)
	summary, _ := args.Get(0).(*domain.MarketSummary)
	return summary, args.Error(1)
}

type mockExportProperties struct{ mock.Mock }

func (m *mockExportProperties) Execute(ctx context.Context, req domain.ExportRequest) (*domain.ExportReport, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*domain.ExportReport)
	return report, args.Error(1)
}

type mockHealthChecker struct{ mock.Mock }

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockHealthChecker) BreakerState() string {
	return "closed"
}

func ptr[T any](v T) *T { return &v }

type discardLogger struct{}

func (discardLogger) Info(msg string, fields port.Fields)             {}
func (discardLogger) Warn(msg string, fields port.Fields)             {}
func (discardLogger) Error(msg string, err error, fields port.Fields) {}
func (discardLogger) Debug(msg string, fields port.Fields)            {}
func (d discardLogger) WithFields(fields port.Fields) port.LoggerPort { return d }
