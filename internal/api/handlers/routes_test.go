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

type mockRouteLister struct {
	routes []types.Route
	name   string
}

func (m *mockRouteLister) Routes() []types.Route { return m.routes }
func (m *mockRouteLister) Name() string          { return m.name }

func TestHandleListRoutes(t *testing.T) {
	source := &mockRouteLister{
		name: "sqlite",
		routes: []types.Route{
			{ID: "R001", Name: "Town Centre Loop", Priority: 1, RoadType: "urban", LengthKm: 5.2},
			{ID: "R002", Name: "Northern Bypass", Priority: 2, RoadType: "a_road", LengthKm: 8.0},
		},
	}
	h := NewRoutesHandler(source, testLogger())

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) { h.RegisterRoutes(r) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/routes", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data routesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Count)
	assert.Equal(t, "sqlite", resp.Data.Source)
	assert.Equal(t, "R001", resp.Data.Routes[0].ID)
}

func TestHandleListRoutesEmpty(t *testing.T) {
	h := NewRoutesHandler(&mockRouteLister{name: "csv"}, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/routes", nil)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data routesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Data.Count)
}
