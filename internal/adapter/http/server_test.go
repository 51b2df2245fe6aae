package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/covid-trends/internal/adapter/http"
	"github.com/couchcryptid/covid-trends/internal/domain"
	"github.com/couchcryptid/covid-trends/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockTables struct {
	table domain.CleanTable
	err   error
}

func (m *mockTables) Table(_ string) (domain.CleanTable, error) { return m.table, m.err }

func testTable(t *testing.T) domain.CleanTable {
	t.Helper()
	table, err := domain.Clean([]domain.RawCaseRecord{
		{Date: "2020-03-15", Region: "Kerala", Confirmed: "100", Deaths: "2", Cured: "10"},
		{Date: "2020-03-15", Region: "Delhi", Confirmed: "40", Deaths: "1", Cured: "5"},
		{Date: "2020-03-16", Region: "Kerala", Confirmed: "120", Deaths: "3", Cured: "15"},
		{Date: "2020-03-16", Region: "Delhi", Confirmed: "55", Deaths: "1", Cured: "9"},
	})
	require.NoError(t, err)
	return table
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	return httpadapter.NewServer(":0",
		&mockTables{table: testTable(t)},
		&mockReadiness{err: readyErr},
		"cases.csv",
		slog.Default(),
		observability.NewMetricsForTesting(),
	)
}

func do(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(t, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(t, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(t, newTestServer(t, fmt.Errorf("no dataset loaded yet")), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no dataset loaded yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRegionsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, nil), "/api/regions")

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Delhi", "Kerala"}, body["regions"])
}

func TestSeriesEndpoint(t *testing.T) {
	t.Run("defaults to ALL", func(t *testing.T) {
		rec := do(t, newTestServer(t, nil), "/api/series")

		require.Equal(t, http.StatusOK, rec.Code)

		var series domain.DerivedSeries
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
		assert.Equal(t, domain.RegionAll, series.Region)
		require.Len(t, series.Rows, 2)
		assert.Equal(t, int64(140), series.Rows[0].Confirmed)
		assert.Equal(t, int64(175), series.Rows[1].Confirmed)
		assert.Equal(t, int64(35), series.Rows[1].NewCases)
	})

	t.Run("single region", func(t *testing.T) {
		rec := do(t, newTestServer(t, nil), "/api/series?region=Kerala")

		require.Equal(t, http.StatusOK, rec.Code)

		var series domain.DerivedSeries
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
		require.Len(t, series.Rows, 2)
		assert.Equal(t, int64(120), series.Rows[1].Confirmed)
	})

	t.Run("unknown region returns empty series", func(t *testing.T) {
		rec := do(t, newTestServer(t, nil), "/api/series?region=Atlantis")

		require.Equal(t, http.StatusOK, rec.Code)

		var series domain.DerivedSeries
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
		assert.Empty(t, series.Rows)
	})
}

func TestSummaryEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, nil), "/api/summary?region=Kerala")

	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, int64(120), summary.Confirmed)
	assert.Equal(t, int64(3), summary.Deaths)
	assert.Equal(t, int64(15), summary.Cured)
	assert.Equal(t, int64(120-15-3), summary.Active)
}

func TestSummaryEndpoint_UnknownRegionIsZero(t *testing.T) {
	rec := do(t, newTestServer(t, nil), "/api/summary?region=Atlantis")

	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, domain.Summary{}, summary)
}

func TestLatestEndpoint(t *testing.T) {
	t.Run("ALL includes per-region snapshot", func(t *testing.T) {
		rec := do(t, newTestServer(t, nil), "/api/latest")

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Region   string              `json:"region"`
			Rows     []domain.SeriesRow  `json:"rows"`
			ByRegion []domain.CaseRecord `json:"by_region"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Rows, 1)
		assert.Equal(t, int64(175), body.Rows[0].Confirmed)
		assert.Len(t, body.ByRegion, 2)
	})

	t.Run("single region omits snapshot", func(t *testing.T) {
		rec := do(t, newTestServer(t, nil), "/api/latest?region=Delhi")

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotContains(t, body, "by_region")

		var rows []domain.SeriesRow
		require.NoError(t, json.Unmarshal(body["rows"], &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, int64(55), rows[0].Confirmed)
	})
}

func TestDatasetUnavailableReturns500(t *testing.T) {
	srv := httpadapter.NewServer(":0",
		&mockTables{err: fmt.Errorf("open data source: no such file")},
		&mockReadiness{},
		"cases.csv",
		slog.Default(),
		observability.NewMetricsForTesting(),
	)

	rec := do(t, srv, "/api/series")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
