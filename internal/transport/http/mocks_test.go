package http

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gnlreports/internal/charts"
	apierrors "gnlreports/internal/errors"
	customMiddleware "gnlreports/internal/middleware"
	"gnlreports/internal/period"
	"gnlreports/internal/services"
	"gnlreports/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Info(ctx context.Context) (services.DatasetInfo, error) {
	args := m.Called()
	return args.Get(0).(services.DatasetInfo), args.Error(1)
}

func (m *MockDashboardService) Records(ctx context.Context, q period.Query) (period.Result, error) {
	args := m.Called(q)
	return args.Get(0).(period.Result), args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context, q period.Query) (domain.PeriodSummary, error) {
	args := m.Called(q)
	return args.Get(0).(domain.PeriodSummary), args.Error(1)
}

func (m *MockDashboardService) Panels(ctx context.Context, q period.Query) ([]charts.Panel, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]charts.Panel), args.Error(1)
}

func (m *MockDashboardService) Dashboard(ctx context.Context, q period.Query) (*services.DashboardView, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardView), args.Error(1)
}

func (m *MockDashboardService) Chart(ctx context.Context, id string, q period.Query, format string) ([]byte, charts.Format, error) {
	args := m.Called(id, q, format)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(charts.Format), args.Error(2)
}

func (m *MockDashboardService) Export(ctx context.Context, q period.Query, format string) (*services.ExportFile, error) {
	args := m.Called(q, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExportFile), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testValidator(t *testing.T) *customMiddleware.Validator {
	t.Helper()
	v, err := customMiddleware.NewValidator(nil)
	require.NoError(t, err)
	return v
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(), false)
}
