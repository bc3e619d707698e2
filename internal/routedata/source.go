// Package routedata loads gritting routes and historical records from the
// operational data stores. The primary source is a SQLite database shared
// with the planning system; a CSV export serves as fallback for deployments
// without the database.
package routedata

import (
	"fmt"
	"os"

	"gritcast/internal/types"
)

// Source is a loaded route dataset. Implementations read their backing file
// once at construction and serve lookups from memory, mirroring the
// process-lifetime ownership of route data: a restart reloads it.
type Source interface {
	// Lookup resolves a route id. Satisfies features.RouteLookup.
	Lookup(routeID string) (types.Route, bool)

	// Routes returns all known routes.
	Routes() []types.Route

	// Name identifies the backing source kind ("sqlite" or "csv").
	Name() string
}

// Open tries sources in priority order: the SQLite database first, then the
// CSV export. It fails if neither file exists.
func Open(sqlitePath, csvPath string) (Source, error) {
	if _, err := os.Stat(sqlitePath); err == nil {
		return OpenSQLite(sqlitePath)
	}
	if _, err := os.Stat(csvPath); err == nil {
		return OpenCSV(csvPath)
	}
	return nil, fmt.Errorf("no route data source found (tried %s and %s)", sqlitePath, csvPath)
}
