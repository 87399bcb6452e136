/*
handlers.go - HTTP handlers for the warehouse query surface

PURPOSE:
  Read endpoints over the persisted silver/gold layers and the latest
  validation report, plus one write endpoint that triggers a full run.
  Handlers only project and encode; all transformation logic lives in
  the engine packages.

ENDPOINTS:
  GET  /api/gold/customers      customer dimension
  GET  /api/gold/products       product dimension
  GET  /api/gold/sales          fact rows
  GET  /api/silver/customers    cleansed customers
  GET  /api/silver/products     cleansed product versions
  GET  /api/silver/sales        cleansed sales lines
  GET  /api/validation/report   latest check battery report
  POST /api/runs                execute ingest -> cleanse -> assemble ->
                                validate -> persist, return the summary
  GET  /api/health              liveness

SEE ALSO:
  - server.go: routing and middleware
  - dto.go:    response shapes
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/afmzln/dwh-sql-project/store/sqlite"
	"github.com/afmzln/dwh-sql-project/validate"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

// RunFunc executes one full warehouse run and returns its validation
// report. The CLI wires the real pipeline in; tests substitute fakes.
type RunFunc func(ctx context.Context) (*validate.Report, error)

// Handler serves the warehouse API.
type Handler struct {
	store *sqlite.Store
	run   RunFunc
	log   *zap.SugaredLogger
}

// NewHandler creates an API handler over a store and a run trigger.
func NewHandler(store *sqlite.Store, run RunFunc, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{store: store, run: run, log: log}
}

// =============================================================================
// GOLD ENDPOINTS
// =============================================================================

func (h *Handler) GetGoldCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GoldCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read dim_customers", err)
		return
	}
	writeJSON(w, http.StatusOK, toDimCustomerDTOs(rows))
}

func (h *Handler) GetGoldProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GoldProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read dim_products", err)
		return
	}
	writeJSON(w, http.StatusOK, toDimProductDTOs(rows))
}

func (h *Handler) GetGoldSales(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GoldSales(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read fact_sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toFactSaleDTOs(rows))
}

// =============================================================================
// SILVER ENDPOINTS
// =============================================================================

func (h *Handler) GetSilverCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.SilverCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read silver customers", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetSilverProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.SilverProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read silver products", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetSilverSales(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.SilverSales(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read silver sales", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// VALIDATION & RUNS
// =============================================================================

func (h *Handler) GetValidationReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.LatestReport(r.Context())
	if errors.Is(err, warehouse.ErrNoRun) {
		writeError(w, http.StatusNotFound, "no completed run", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.run == nil {
		writeError(w, http.StatusServiceUnavailable, "run trigger not configured", nil)
		return
	}
	report, err := h.run(r.Context())
	if err != nil {
		h.log.Errorw("run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "run failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, RunResponseDTO{
		RunID:      report.RunID,
		Passed:     report.Passed(),
		Checks:     len(report.Results),
		Violations: report.TotalViolations(),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
