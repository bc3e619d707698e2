package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gritcast/internal/core"
	"gritcast/internal/types"
)

// HistoryReader lists recent historical gritting records. Implemented by the
// SQLite route data source; the CSV fallback carries no history.
type HistoryReader interface {
	History() ([]types.HistoryRecord, error)
}

// errCodeUnavailableHistory is returned when the deployment runs on the CSV
// fallback, which has no training_data table to read history from.
const errCodeUnavailableHistory types.ErrorCode = "unavailable_history_source"

// HistoryHandler serves the recent gritting history.
type HistoryHandler struct {
	reader HistoryReader // nil when the data source has no history
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler. reader may be nil when the
// active route data source does not carry historical records.
func NewHistoryHandler(reader HistoryReader, logger *slog.Logger) *HistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryHandler{reader: reader, logger: logger}
}

// RegisterRoutes mounts the history endpoint onto the mux.
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.HandleListHistory)
}

// historyResponse is the response body for GET /v1/history.
type historyResponse struct {
	History []types.HistoryRecord `json:"history"`
	Count   int                   `json:"count"`
}

// HandleListHistory handles GET /v1/history: the 50 most recent gritting
// records, newest first.
func (h *HistoryHandler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		core.Error(w, r, types.NewAppError(
			errCodeUnavailableHistory,
			"gritting history requires the SQLite data source",
			nil,
		))
		return
	}

	records, err := h.reader.History()
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if records == nil {
		records = []types.HistoryRecord{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: historyResponse{
		History: records,
		Count:   len(records),
	}})
}
