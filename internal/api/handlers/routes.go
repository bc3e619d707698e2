package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gritcast/internal/core"
	"gritcast/internal/types"
)

// RouteLister returns the full set of known routes. Implemented by the
// routedata sources.
type RouteLister interface {
	Routes() []types.Route
	Name() string
}

// RoutesHandler serves the route catalogue.
type RoutesHandler struct {
	source RouteLister
	logger *slog.Logger
}

// NewRoutesHandler creates a RoutesHandler backed by the given source.
func NewRoutesHandler(source RouteLister, logger *slog.Logger) *RoutesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoutesHandler{source: source, logger: logger}
}

// RegisterRoutes mounts the route catalogue endpoint onto the mux.
func (h *RoutesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/routes", h.HandleListRoutes)
}

// routesResponse is the response body for GET /v1/routes.
type routesResponse struct {
	Routes []types.Route `json:"routes"`
	Count  int           `json:"count"`
	Source string        `json:"source"`
}

// HandleListRoutes handles GET /v1/routes.
func (h *RoutesHandler) HandleListRoutes(w http.ResponseWriter, r *http.Request) {
	routes := h.source.Routes()
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: routesResponse{
		Routes: routes,
		Count:  len(routes),
		Source: h.source.Name(),
	}})
}
