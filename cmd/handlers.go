package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/ingest"
	"github.com/cillers/ledgerd/internal/model"
	"github.com/cillers/ledgerd/internal/refine"
	"github.com/cillers/ledgerd/internal/store"
)

// maxUploadBytes bounds how much of an uploaded CSV is read into memory.
const maxUploadBytes = 32 << 20

// defaultCostLimit matches the dashboard page size for the costs list.
const defaultCostLimit = 1000

type apiHandler struct {
	store      store.Store
	enricher   *refine.Enricher
	indexLimit int
}

func (h *apiHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) listCosts(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		Limit:  queryInt(r, "limit", defaultCostLimit),
		Offset: queryInt(r, "offset", 0),
	}
	costs, err := h.store.ListCosts(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if costs == nil {
		costs = []model.CostRecord{}
	}
	writeJSON(w, http.StatusOK, costs)
}

func (h *apiHandler) uploadCosts(w http.ResponseWriter, r *http.Request) {
	strategy, err := model.ParseDuplicateStrategy(r.FormValue("duplicate_strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "file field is required"))
		return
	}
	defer file.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "read upload"))
		return
	}

	summary, err := ingest.New(h.store, h.indexLimit).Run(r.Context(), raw, strategy)
	if err != nil {
		if eris.Is(err, ingest.ErrNoRecords) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// paginatedTransactions shapes the transaction list response.
type paginatedTransactions struct {
	Items []model.TransactionRecord `json:"items"`
	Total int                       `json:"total"`
}

func (h *apiHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		Limit:   queryInt(r, "limit", 20),
		Offset:  queryInt(r, "offset", 0),
		OrderBy: r.URL.Query().Get("sort_by"),
		Order:   r.URL.Query().Get("order"),
	}

	total, err := h.store.CountTransactions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	items, err := h.store.ListTransactions(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []model.TransactionRecord{}
	}
	writeJSON(w, http.StatusOK, paginatedTransactions{Items: items, Total: total})
}

func (h *apiHandler) promote(w http.ResponseWriter, r *http.Request) {
	summary, err := refine.Promote(r.Context(), h.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *apiHandler) enrich(w http.ResponseWriter, r *http.Request) {
	if h.enricher == nil {
		writeError(w, http.StatusServiceUnavailable, eris.New("anthropic API key is not configured"))
		return
	}
	summary, err := h.enricher.Run(r.Context(), h.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Error("request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
