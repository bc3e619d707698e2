package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gritcast/internal/types"
)

type mockHistoryReader struct {
	records []types.HistoryRecord
	err     error
}

func (m *mockHistoryReader) History() ([]types.HistoryRecord, error) {
	return m.records, m.err
}

func performHistoryRequest(h *HistoryHandler) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) { h.RegisterRoutes(r) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	return rec
}

func TestHandleListHistory(t *testing.T) {
	reader := &mockHistoryReader{records: []types.HistoryRecord{
		{
			Timestamp:         "2026-01-15T06:00:00",
			RouteID:           "R001",
			RouteName:         "Town Centre Loop",
			TemperatureC:      -4.5,
			PrecipitationType: "snow",
			IceRisk:           types.RiskHigh,
			SnowRisk:          types.RiskHigh,
			Decision:          types.DecisionGrit,
			SaltAmountKg:      215,
		},
	}}
	h := NewHistoryHandler(reader, testLogger())

	rec := performHistoryRequest(h)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data historyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, types.DecisionGrit, resp.Data.History[0].Decision)
}

func TestHandleListHistoryEmpty(t *testing.T) {
	h := NewHistoryHandler(&mockHistoryReader{}, testLogger())

	rec := performHistoryRequest(h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"history":[],"count":0}}`, rec.Body.String())
}

func TestHandleListHistoryNoReader(t *testing.T) {
	h := NewHistoryHandler(nil, testLogger())

	rec := performHistoryRequest(h)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), string(errCodeUnavailableHistory))
}

func TestHandleListHistoryReaderError(t *testing.T) {
	reader := &mockHistoryReader{err: types.NewAppError(types.ErrCodeInternalDB, "query failed", nil)}
	h := NewHistoryHandler(reader, testLogger())

	rec := performHistoryRequest(h)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), string(types.ErrCodeInternalDB))
}
