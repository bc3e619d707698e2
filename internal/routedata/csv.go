package routedata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gritcast/internal/types"
)

// CSVSource serves routes from the legacy CSV export. It only carries route
// data; training history and the history listing need the SQLite source.
type CSVSource struct {
	routes map[string]types.Route
	order  []string
}

// OpenCSV reads the whole file at construction. The header row names the
// columns; order in the file is preserved by Routes.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening route CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading route CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"route_id", "route_name", "priority", "road_type", "route_length_km"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("route CSV is missing column %q", required)
		}
	}

	s := &CSVSource{routes: make(map[string]types.Route)}
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading route CSV line %d: %w", line, err)
		}

		route, err := parseRoute(record, col)
		if err != nil {
			return nil, fmt.Errorf("route CSV line %d: %w", line, err)
		}
		s.routes[route.ID] = route
		s.order = append(s.order, route.ID)
	}

	return s, nil
}

func parseRoute(record []string, col map[string]int) (types.Route, error) {
	route := types.Route{
		ID:       record[col["route_id"]],
		Name:     record[col["route_name"]],
		RoadType: record[col["road_type"]],
	}

	priority, err := strconv.Atoi(record[col["priority"]])
	if err != nil {
		return types.Route{}, fmt.Errorf("bad priority: %w", err)
	}
	route.Priority = priority

	length, err := strconv.ParseFloat(record[col["route_length_km"]], 64)
	if err != nil {
		return types.Route{}, fmt.Errorf("bad route_length_km: %w", err)
	}
	route.LengthKm = length

	// Coordinates are optional display data.
	if i, ok := col["latitude"]; ok && record[i] != "" {
		if route.Latitude, err = strconv.ParseFloat(record[i], 64); err != nil {
			return types.Route{}, fmt.Errorf("bad latitude: %w", err)
		}
	}
	if i, ok := col["longitude"]; ok && record[i] != "" {
		if route.Longitude, err = strconv.ParseFloat(record[i], 64); err != nil {
			return types.Route{}, fmt.Errorf("bad longitude: %w", err)
		}
	}

	return route, nil
}

// Lookup resolves a route id from the loaded table.
func (s *CSVSource) Lookup(routeID string) (types.Route, bool) {
	r, ok := s.routes[routeID]
	return r, ok
}

// Routes returns all routes in file order.
func (s *CSVSource) Routes() []types.Route {
	out := make([]types.Route, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.routes[id])
	}
	return out
}

// RouteMap returns a copy of the lookup, for snapshotting into a bundle.
func (s *CSVSource) RouteMap() map[string]types.Route {
	out := make(map[string]types.Route, len(s.routes))
	for id, r := range s.routes {
		out[id] = r
	}
	return out
}

// Name implements Source.
func (s *CSVSource) Name() string { return "csv" }
