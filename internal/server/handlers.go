package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smartdevs17/balance-history/internal/export"
	"github.com/smartdevs17/balance-history/internal/models"
	"github.com/smartdevs17/balance-history/internal/snapshot"
	"github.com/smartdevs17/balance-history/internal/timeframe"
	"github.com/smartdevs17/balance-history/pkg/utils"
)

// Chart Handler

// chartHandler resolves a balance snapshot series per token over a timeframe
func (s *HTTPServer) chartHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	accountID := query.Get("account_id")
	if accountID == "" {
		s.writeAppError(w, "Missing account_id",
			utils.NewAppError(utils.ErrCodeValidation, "account_id is required"))
		return
	}

	tf, err := timeframe.ParseChart(query.Get("start_time"), query.Get("end_time"))
	if err != nil {
		s.writeAppError(w, "Invalid timeframe", err)
		return
	}

	granularity, err := timeframe.ParseGranularity(query.Get("interval"))
	if err != nil {
		s.writeAppError(w, "Invalid interval", err)
		return
	}

	tokenIDs := splitTokenIDs(query.Get("token_ids"))

	// The balance at start_time depends on history before it, so the load is
	// bounded by account (and explicit tokens) only; the resolver's cursor
	// never consumes records past end_time.
	records, err := s.store.GetBalanceChanges(r.Context(), models.RecordFilter{
		AccountID: accountID,
		TokenIDs:  tokenIDs,
	})
	if err != nil {
		s.writeAppError(w, "Failed to load ledger records", err)
		return
	}

	s.reportIntegrity(accountID, records)

	start := time.Now()
	instants := tf.SampleInstants(granularity)

	series, err := s.assembler.Assemble(r.Context(), records, tokenIDs, instants)
	if err != nil {
		s.writeAppError(w, "Failed to resolve snapshots", err)
		return
	}

	if s.metricsManager != nil {
		prom := s.metricsManager.GetPrometheusMetrics()
		prom.RecordLedgerLoad(len(records))
		prom.RecordChartTokens(len(series))
		prom.RecordSnapshotsResolved(string(granularity), len(series)*len(instants))
		prom.RecordResolveDuration(time.Since(start))
	}

	s.writeJSON(w, http.StatusOK, series)
}

// Export Handler

// exportCSVHandler renders the filtered ledger as a flat CSV download
func (s *HTTPServer) exportCSVHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	accountID := query.Get("account_id")
	if accountID == "" {
		s.writeAppError(w, "Missing account_id",
			utils.NewAppError(utils.ErrCodeValidation, "account_id is required"))
		return
	}

	tf, err := timeframe.ParseExport(query.Get("start_time"), query.Get("end_time"))
	if err != nil {
		s.writeAppError(w, "Invalid timeframe", err)
		return
	}

	tokenIDs := splitTokenIDs(query.Get("token_ids"))

	// Date range is half-open: start inclusive, end exclusive.
	records, err := s.store.GetBalanceChanges(r.Context(), models.RecordFilter{
		AccountID: accountID,
		From:      &tf.Start,
		To:        &tf.End,
		TokenIDs:  tokenIDs,
	})
	if err != nil {
		s.writeAppError(w, "Failed to load ledger records", err)
		return
	}

	s.reportIntegrity(accountID, records)

	start := time.Now()
	rows, err := export.BuildRows(r.Context(), records, &export.MetadataSymbols{Source: s.store})
	if err != nil {
		s.writeAppError(w, "Failed to build export rows", err)
		return
	}

	filename := fmt.Sprintf("balance_history_%s_%s_%s.csv",
		accountID,
		tf.Start.Format(timeframe.ExportDateLayout),
		tf.End.Format(timeframe.ExportDateLayout))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteCSV(w, rows); err != nil {
		// Headers are already sent at this point; log and give up on the body.
		s.logger.WithError(err).Error("Failed to write CSV export")
		return
	}

	if s.metricsManager != nil {
		prom := s.metricsManager.GetPrometheusMetrics()
		prom.RecordLedgerLoad(len(records))
		prom.RecordExport(len(rows), len(records)-len(rows), time.Since(start))
	}
}

// Integrity Handler

// integrityHandler reports ledger chain inconsistencies for an account
func (s *HTTPServer) integrityHandler(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		s.writeAppError(w, "Missing account_id",
			utils.NewAppError(utils.ErrCodeValidation, "account_id is required"))
		return
	}

	records, err := s.store.GetBalanceChanges(r.Context(), models.RecordFilter{AccountID: accountID})
	if err != nil {
		s.writeAppError(w, "Failed to load ledger records", err)
		return
	}

	inconsistencies := snapshot.CheckChain(records)
	if s.metricsManager != nil && len(inconsistencies) > 0 {
		s.metricsManager.GetPrometheusMetrics().RecordIntegrityViolations(len(inconsistencies))
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_id":      accountID,
		"records_checked": len(records),
		"inconsistencies": inconsistencies,
		"total":           len(inconsistencies),
	})
}

// Health Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"metrics_enabled": s.config.EnableMetrics,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// detailedHealthHandler returns detailed health status
func (s *HTTPServer) detailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	storeHealth := s.store.GetHealth()

	status := "healthy"
	if !storeHealth.Healthy {
		status = "unhealthy"
	}

	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"components": map[string]interface{}{
			"storage": storeHealth,
		},
	}

	s.writeJSON(w, http.StatusOK, health)
}

// statsHandler returns application statistics
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	storeStats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.writeAppError(w, "Failed to retrieve ledger stats", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp":       time.Now().UTC(),
		"ledger":          storeStats,
		"metrics_enabled": s.config.EnableMetrics,
	})
}

// Helpers

// reportIntegrity logs and counts chain inconsistencies without altering the
// loaded records. Corrupt records are served as stored.
func (s *HTTPServer) reportIntegrity(accountID string, records []*models.BalanceChangeRecord) {
	inconsistencies := snapshot.CheckChain(records)
	if len(inconsistencies) == 0 {
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id": accountID,
		"count":      len(inconsistencies),
	}).Warn("Ledger chain inconsistencies detected")

	if s.metricsManager != nil {
		s.metricsManager.GetPrometheusMetrics().RecordIntegrityViolations(len(inconsistencies))
	}
}

// splitTokenIDs parses the optional comma-separated token_ids parameter
func splitTokenIDs(value string) []string {
	if value == "" {
		return nil
	}

	var tokenIDs []string
	for _, tokenID := range strings.Split(value, ",") {
		tokenID = strings.TrimSpace(tokenID)
		if tokenID != "" {
			tokenIDs = append(tokenIDs, tokenID)
		}
	}
	return tokenIDs
}
