package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/balance-history/internal/models"
	"github.com/smartdevs17/balance-history/internal/snapshot"
	"github.com/smartdevs17/balance-history/internal/storage"
)

type chartPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Balance   decimal.Decimal `json:"balance"`
}

func newTestServer(t *testing.T) (*HTTPServer, storage.Store) {
	t.Helper()

	store := storage.NewSQLiteStore(&storage.StoreConfig{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "ledger.db"),
		MaxConnections:   4,
		MaxIdleTime:      time.Minute,
	})
	require.NoError(t, store.Connect())
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })

	assembler := snapshot.NewAssembler(4)
	t.Cleanup(assembler.Stop)

	srv, err := NewHTTPServer(&ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		EnableHealth: true,
		// Metrics stay off in tests: promauto registers on the global
		// registry and a second registration panics.
		EnableMetrics: false,
	}, store, assembler, nil)
	require.NoError(t, err)

	return srv, store
}

func seedLedger(t *testing.T, store storage.Store, records ...*models.BalanceChangeRecord) {
	t.Helper()
	require.NoError(t, store.SaveRecords(context.Background(), records))
}

func ledgerRecord(token string, eventTime time.Time, height uint64, before, after string) *models.BalanceChangeRecord {
	return &models.BalanceChangeRecord{
		AccountID:         "alice.near",
		BlockHeight:       height,
		EventTime:         eventTime,
		TokenID:           token,
		Counterparty:      "bob.near",
		Amount:            decimal.RequireFromString(after).Sub(decimal.RequireFromString(before)),
		BalanceBefore:     decimal.RequireFromString(before),
		BalanceAfter:      decimal.RequireFromString(after),
		TransactionHashes: []string{"hash1", "hash2"},
		ReceiptID:         "receipt-" + after,
	}
}

func doRequest(t *testing.T, srv *HTTPServer, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, req)
	return recorder
}

func TestChartDailySeries(t *testing.T) {
	srv, store := newTestServer(t)
	seedLedger(t, store,
		ledgerRecord("near", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 100, "0", "100"),
		ledgerRecord("near", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), 300, "100", "150"),
	)

	resp := doRequest(t, srv,
		"/api/v1/chart?account_id=alice.near&start_time=2025-01-01T00:00:00&end_time=2025-01-05T00:00:00&interval=daily")
	require.Equal(t, http.StatusOK, resp.Code)

	var series map[string][]chartPoint
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &series))

	require.Contains(t, series, "near")
	points := series["near"]
	require.Len(t, points, 5)

	expected := []string{"100", "100", "150", "150", "150"}
	for i, point := range points {
		assert.Equal(t, expected[i], point.Balance.String(), "day %d", i)
		assert.Equal(t, time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC), point.Timestamp.UTC())
	}
}

func TestChartBeforeFirstRecordIsZero(t *testing.T) {
	srv, store := newTestServer(t)
	seedLedger(t, store,
		ledgerRecord("near", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 100, "0", "100"),
	)

	resp := doRequest(t, srv,
		"/api/v1/chart?account_id=alice.near&start_time=2024-12-01T00:00:00&end_time=2024-12-02T00:00:00&interval=daily")
	require.Equal(t, http.StatusOK, resp.Code)

	var series map[string][]chartPoint
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &series))
	require.Len(t, series["near"], 2)
	for _, point := range series["near"] {
		assert.True(t, point.Balance.IsZero())
	}
}

func TestChartExplicitTokenWithoutRecords(t *testing.T) {
	srv, store := newTestServer(t)
	seedLedger(t, store,
		ledgerRecord("near", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 100, "0", "100"),
	)

	resp := doRequest(t, srv,
		"/api/v1/chart?account_id=alice.near&start_time=2025-01-01T00:00:00&end_time=2025-01-02T00:00:00&interval=daily&token_ids=wrap.near")
	require.Equal(t, http.StatusOK, resp.Code)

	var series map[string][]chartPoint
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &series))

	// Explicit list overrides the discovered tokens entirely.
	require.Len(t, series, 1)
	require.Len(t, series["wrap.near"], 2)
	for _, point := range series["wrap.near"] {
		assert.True(t, point.Balance.IsZero())
	}
}

func TestChartUnknownAccountIsEmptyNotError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, srv,
		"/api/v1/chart?account_id=nobody.near&start_time=2025-01-01T00:00:00&end_time=2025-01-02T00:00:00&interval=daily")
	require.Equal(t, http.StatusOK, resp.Code)

	var series map[string][]chartPoint
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &series))
	assert.Empty(t, series)
}

func TestChartRequestValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := map[string]string{
		"missing account": "/api/v1/chart?start_time=2025-01-01T00:00:00&end_time=2025-01-02T00:00:00&interval=daily",
		"bad interval":    "/api/v1/chart?account_id=a&start_time=2025-01-01T00:00:00&end_time=2025-01-02T00:00:00&interval=yearly",
		"inverted range":  "/api/v1/chart?account_id=a&start_time=2025-01-05T00:00:00&end_time=2025-01-01T00:00:00&interval=daily",
		"malformed time":  "/api/v1/chart?account_id=a&start_time=nope&end_time=2025-01-02T00:00:00&interval=daily",
	}

	for name, url := range cases {
		resp := doRequest(t, srv, url)
		assert.Equal(t, http.StatusBadRequest, resp.Code, name)
	}
}

func TestExportCSV(t *testing.T) {
	srv, store := newTestServer(t)

	jan1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	checkpoint := ledgerRecord("near", jan1.Add(time.Hour), 150, "100", "100")
	checkpoint.Counterparty = models.CounterpartySnapshot
	checkpoint.ReceiptID = "receipt-checkpoint"

	seedLedger(t, store,
		ledgerRecord("near", jan1, 100, "0", "100"),
		checkpoint,
		ledgerRecord("near", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), 200, "100", "150"),
	)

	resp := doRequest(t, srv,
		"/api/v1/export/csv?account_id=alice.near&start_time=2025-01-01&end_time=2025-01-02")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "attachment")

	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)

	// Header plus exactly one row: the Jan 2 record is outside the half-open
	// range and the checkpoint is structural.
	require.Len(t, rows, 2)
	assert.Equal(t, "block_height", rows[0][0])
	assert.Equal(t, "100", rows[1][0])
	assert.Equal(t, "NEAR", rows[1][3], "symbol resolved from seeded metadata")
	assert.Equal(t, "hash1,hash2", rows[1][8])
}

func TestExportCSVEmptyTimeframe(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, srv,
		"/api/v1/export/csv?account_id=nobody.near&start_time=2025-01-01&end_time=2025-02-01")
	require.Equal(t, http.StatusOK, resp.Code)

	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

func TestExportCSVValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, srv,
		"/api/v1/export/csv?account_id=a&start_time=2025-02-01&end_time=2025-01-01")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doRequest(t, srv,
		"/api/v1/export/csv?account_id=a&start_time=2025-01-01T00:00:00&end_time=2025-02-01")
	assert.Equal(t, http.StatusBadRequest, resp.Code, "chart-style timestamps rejected on export path")
}

func TestIntegrityEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedLedger(t, store,
		ledgerRecord("near", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 100, "0", "100"),
		ledgerRecord("near", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), 200, "90", "140"),
	)

	resp := doRequest(t, srv, "/api/v1/ledger/integrity?account_id=alice.near")
	require.Equal(t, http.StatusOK, resp.Code)

	var report struct {
		RecordsChecked  int                      `json:"records_checked"`
		Total           int                      `json:"total"`
		Inconsistencies []snapshot.Inconsistency `json:"inconsistencies"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	assert.Equal(t, 2, report.RecordsChecked)
	assert.Equal(t, 1, report.Total)
	require.Len(t, report.Inconsistencies, 1)
	assert.Equal(t, "100", report.Inconsistencies[0].ExpectedBalanceBefore.String())
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, srv, "/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
}
