package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gnlreports/internal/charts"
	"gnlreports/internal/dataset"
	apierrors "gnlreports/internal/errors"
	"gnlreports/internal/period"
	"gnlreports/internal/schema"
	"gnlreports/internal/shared/testutil"
	"gnlreports/pkg/contracts/domain"
)

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context, source string, opts dataset.LoadOptions) (*domain.Dataset, error) {
	args := m.Called(ctx, source, opts)
	ds, _ := args.Get(0).(*domain.Dataset)
	return ds, args.Error(1)
}

const testSource = "1. MASTER_BD_GNL.xlsx"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestService(t *testing.T, ds *domain.Dataset, err error) (*DashboardService, *mockLoader) {
	t.Helper()
	loader := &mockLoader{}
	loader.On("Load", mock.Anything, testSource, mock.Anything).Return(ds, err)
	return NewDashboardService(testSource, dataset.DefaultOptions(), loader, nil, quietLogger()), loader
}

func lastMonth() period.Query {
	return period.Query{Mode: period.ModeLastMonth}
}

func TestDashboardService_RecordsLoadsOnce(t *testing.T) {
	svc, loader := newTestService(t, testutil.MasterDataset(testutil.Day(2024, 1, 1), 91), nil)
	ctx := context.Background()

	res, err := svc.Records(ctx, lastMonth())
	require.NoError(t, err)
	assert.Equal(t, 31, res.Count)
	assert.True(t, testutil.Day(2024, 3, 1).Equal(res.Window.Start))

	res, err = svc.Records(ctx, period.Query{Mode: period.ModeAll})
	require.NoError(t, err)
	assert.Equal(t, 91, res.Count)

	loader.AssertNumberOfCalls(t, "Load", 1)
	stats := svc.CacheStats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

func TestDashboardService_Info(t *testing.T) {
	svc, _ := newTestService(t, testutil.MasterDataset(testutil.Day(2024, 1, 1), 91), nil)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testSource, info.Source)
	assert.Equal(t, "BD_PGNL", info.Sheet)
	assert.Equal(t, 91, info.Records)
	assert.Equal(t, 91, info.Dated)
	require.NotNil(t, info.MinDate)
	require.NotNil(t, info.MaxDate)
	assert.Equal(t, testutil.Day(2024, 1, 1), *info.MinDate)
	assert.Equal(t, testutil.Day(2024, 3, 31), *info.MaxDate)
	assert.Equal(t, period.DefaultMode, info.DefaultPeriod)
	require.Len(t, info.Periods, len(period.Modes))
	assert.Equal(t, "Último Mes", info.Periods[0].Label)

	available := map[string]bool{}
	for _, f := range info.Fields {
		available[f.Name] = f.Available
	}
	for _, f := range testutil.MasterFields {
		assert.True(t, available[f], f)
	}
	assert.NotNil(t, info.Diagnostics)
}

func TestDashboardService_InfoReportsUnmappedColumns(t *testing.T) {
	ds := testutil.MasterDataset(testutil.Day(2024, 1, 1), 10)
	ds.Columns = []string{schema.FieldFecha, schema.FieldProduccionTN}

	svc, _ := newTestService(t, ds, nil)
	info, err := svc.Info(context.Background())
	require.NoError(t, err)

	var unmapped []string
	for _, d := range info.Diagnostics {
		if d.Code == domain.DiagnosticUnmappedHeader {
			unmapped = append(unmapped, d.Field)
		}
	}
	assert.Equal(t, []string{schema.FieldProduccionM3}, unmapped)

	for _, f := range info.Fields {
		assert.Equal(t, f.Name == schema.FieldProduccionTN, f.Available, f.Name)
	}
}

func TestDashboardService_Summary(t *testing.T) {
	svc, _ := newTestService(t, testutil.MasterDataset(testutil.Day(2024, 1, 1), 91), nil)

	s, err := svc.Summary(context.Background(), lastMonth())
	require.NoError(t, err)
	assert.Equal(t, 31, s.Count)
	require.Len(t, s.Fields, len(testutil.MasterFields))
	assert.InDelta(t, 5425.0, s.Fields[0].Total, 1e-9)
}

func TestDashboardService_PanelsIsolateFailures(t *testing.T) {
	svc, _ := newTestService(t, testutil.MasterDataset(testutil.Day(2024, 1, 1), 91), nil)

	panels, err := svc.Panels(context.Background(), lastMonth())
	require.NoError(t, err)
	require.Len(t, panels, len(charts.Catalogue()))

	for _, p := range panels {
		if p.ID == charts.ChartDespacho {
			assert.False(t, p.OK(), "despacho column is not in the sheet")
			continue
		}
		assert.True(t, p.OK(), "%s: %s", p.ID, p.Err)
	}
}

func TestDashboardService_Dashboard(t *testing.T) {
	svc, loader := newTestService(t, testutil.MasterDataset(testutil.Day(2024, 1, 1), 91), nil)

	view, err := svc.Dashboard(context.Background(), lastMonth())
	require.NoError(t, err)
	assert.Equal(t, 31, view.Result.Count)
	assert.Equal(t, 31, view.Summary.Count)
	assert.Equal(t, 91, view.Info.Records)
	assert.Len(t, view.Panels, len(charts.Catalogue()))
	loader.AssertNumberOfCalls(t, "Load", 1)
}

func TestDashboardService_Chart(t *testing.T) {
	svc, _ := newTestService(t, testutil.MasterDataset(testutil.Day(2024, 1, 1), 91), nil)
	ctx := context.Background()

	t.Run("png", func(t *testing.T) {
		data, f, err := svc.Chart(ctx, charts.ChartProduccionTN, lastMonth(), "png")
		require.NoError(t, err)
		assert.Equal(t, charts.FormatPNG, f)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	})

	t.Run("svg", func(t *testing.T) {
		data, f, err := svc.Chart(ctx, charts.ChartGasAGNL, lastMonth(), "svg")
		require.NoError(t, err)
		assert.Equal(t, charts.FormatSVG, f)
		assert.Contains(t, string(data), "<svg")
	})

	t.Run("unknown chart", func(t *testing.T) {
		_, _, err := svc.Chart(ctx, "nope", lastMonth(), "png")
		assert.True(t, apierrors.IsType(err, apierrors.ErrTypeNotFound))
	})

	t.Run("unavailable field", func(t *testing.T) {
		_, _, err := svc.Chart(ctx, charts.ChartDespacho, lastMonth(), "png")
		assert.True(t, apierrors.IsType(err, apierrors.ErrTypeUnavailable))
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := svc.Chart(ctx, charts.ChartProduccionTN, lastMonth(), "gif")
		assert.True(t, apierrors.IsType(err, apierrors.ErrTypeValidation))
	})
}

func TestDashboardService_Export(t *testing.T) {
	svc, _ := newTestService(t, testutil.MasterDataset(testutil.Day(2024, 1, 1), 91), nil)
	ctx := context.Background()

	file, err := svc.Export(ctx, lastMonth(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "gnl_2024-03-01_2024-03-31.csv", file.Name)
	assert.Equal(t, 31, file.Count)
	assert.True(t, bytes.HasPrefix(file.Data, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	assert.Len(t, lines, 32, "header plus one line per record")

	file, err = svc.Export(ctx, lastMonth(), "xlsx")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Name, ".xlsx"))
	assert.True(t, bytes.HasPrefix(file.Data, []byte("PK")))

	_, err = svc.Export(ctx, lastMonth(), "pdf")
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeValidation))
}

func TestDashboardService_SourceErrorsAreNotCached(t *testing.T) {
	cause := fmt.Errorf("%w: open %s: no such file", dataset.ErrSourceUnreadable, testSource)
	svc, loader := newTestService(t, nil, cause)
	ctx := context.Background()

	_, err := svc.Records(ctx, lastMonth())
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeSource))
	assert.ErrorIs(t, err, dataset.ErrSourceUnreadable)

	_, err = svc.Info(ctx)
	require.Error(t, err)
	loader.AssertNumberOfCalls(t, "Load", 2)
}

func TestDashboardService_EmptySheetIsParsingError(t *testing.T) {
	svc, _ := newTestService(t, nil, dataset.ErrEmptySheet)

	_, err := svc.Summary(context.Background(), lastMonth())
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeParsing))
}

func TestDashboardService_ContextCanceled(t *testing.T) {
	loader := &mockLoader{}
	loader.On("Load", mock.Anything, testSource, mock.Anything).Return(nil, context.Canceled)
	svc := NewDashboardService(testSource, dataset.DefaultOptions(), loader, nil, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := svc.Records(ctx, lastMonth())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDashboardService_WorkbookEndToEnd(t *testing.T) {
	path := testutil.WriteMasterWorkbook(t, t.TempDir(), testutil.Day(2024, 1, 1), 91)
	loader := dataset.NewLoader(dataset.NewResolver(nil), quietLogger())
	svc := NewDashboardService(path, dataset.DefaultOptions(), loader, nil, quietLogger())

	res, err := svc.Records(context.Background(), lastMonth())
	require.NoError(t, err)
	assert.Equal(t, 31, res.Count)

	_, err = NewDashboardService(path+".missing", dataset.DefaultOptions(), loader, nil, quietLogger()).
		Records(context.Background(), lastMonth())
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeSource))
}
