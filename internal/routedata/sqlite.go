package routedata

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"gritcast/internal/types"
)

// historyLimit caps the history listing, newest first.
const historyLimit = 50

// SQLiteSource serves routes from the routes table of the planning database
// and exposes the training_data table for the trainer and the history
// listing. Routes are loaded eagerly; history and training queries hit the
// database on demand.
type SQLiteSource struct {
	db     *sql.DB
	routes map[string]types.Route
	order  []string
}

// OpenSQLite opens the database and loads the routes table.
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening route database: %w", err)
	}

	s := &SQLiteSource{db: db, routes: make(map[string]types.Route)}
	if err := s.loadRoutes(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSource) loadRoutes() error {
	rows, err := s.db.Query(
		`SELECT route_id, route_name, priority, road_type, route_length_km, latitude, longitude FROM routes`,
	)
	if err != nil {
		return fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r        types.Route
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Priority, &r.RoadType, &r.LengthKm, &lat, &lon); err != nil {
			return fmt.Errorf("scanning route row: %w", err)
		}
		// Coordinates are optional; NULL columns leave the zero value,
		// matching the CSV source's handling of empty cells.
		if lat.Valid {
			r.Latitude = lat.Float64
		}
		if lon.Valid {
			r.Longitude = lon.Float64
		}
		s.routes[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	return rows.Err()
}

// Lookup resolves a route id from the in-memory table.
func (s *SQLiteSource) Lookup(routeID string) (types.Route, bool) {
	r, ok := s.routes[routeID]
	return r, ok
}

// Routes returns all routes in table order.
func (s *SQLiteSource) Routes() []types.Route {
	out := make([]types.Route, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.routes[id])
	}
	return out
}

// RouteMap returns a copy of the lookup, for snapshotting into a bundle.
func (s *SQLiteSource) RouteMap() map[string]types.Route {
	out := make(map[string]types.Route, len(s.routes))
	for id, r := range s.routes {
		out[id] = r
	}
	return out
}

// Name implements Source.
func (s *SQLiteSource) Name() string { return "sqlite" }

// Close releases the database handle.
func (s *SQLiteSource) Close() error { return s.db.Close() }

// Ping verifies the database is reachable, for health probing.
func (s *SQLiteSource) Ping() error { return s.db.Ping() }

// TrainingRows loads every historical record from the training_data table.
// The decision column uses the legacy labels "gritted"/"not_gritted".
func (s *SQLiteSource) TrainingRows() ([]types.TrainingRow, error) {
	rows, err := s.db.Query(`
		SELECT route_id, temperature_c, feels_like_c, humidity_pct, wind_speed_kmh,
		       precipitation_type, precipitation_prob_pct, road_surface_temp_c,
		       forecast_min_temp_c, gritting_decision, salt_amount_kg
		FROM training_data`)
	if err != nil {
		return nil, fmt.Errorf("querying training data: %w", err)
	}
	defer rows.Close()

	var out []types.TrainingRow
	for rows.Next() {
		var (
			row      types.TrainingRow
			decision string
			salt     sql.NullFloat64
		)
		if err := rows.Scan(
			&row.RouteID,
			&row.Weather.TemperatureC,
			&row.Weather.FeelsLikeC,
			&row.Weather.HumidityPct,
			&row.Weather.WindSpeedKmh,
			&row.Weather.PrecipitationType,
			&row.Weather.PrecipitationProbPct,
			&row.Weather.RoadSurfaceTempC,
			&row.Weather.ForecastMinTempC,
			&decision,
			&salt,
		); err != nil {
			return nil, fmt.Errorf("scanning training row: %w", err)
		}
		row.Gritted = decision == "gritted"
		if salt.Valid {
			row.SaltAmountKg = salt.Float64
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// History returns the most recent historical records, newest first.
func (s *SQLiteSource) History() ([]types.HistoryRecord, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT date, time, route_id, route_name, temperature_c, precipitation_type,
		       ice_risk, snow_risk, gritting_decision, salt_amount_kg
		FROM training_data
		ORDER BY date DESC, time DESC
		LIMIT %d`, historyLimit))
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []types.HistoryRecord
	for rows.Next() {
		var (
			rec             types.HistoryRecord
			date, timeOfDay string
			decision        string
			salt            sql.NullFloat64
		)
		if err := rows.Scan(
			&date, &timeOfDay, &rec.RouteID, &rec.RouteName, &rec.TemperatureC,
			&rec.PrecipitationType, &rec.IceRisk, &rec.SnowRisk, &decision, &salt,
		); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.Timestamp = fmt.Sprintf("%sT%s:00", date, timeOfDay)
		if decision == "gritted" {
			rec.Decision = types.DecisionGrit
		} else {
			rec.Decision = types.DecisionNoGrit
		}
		if salt.Valid {
			rec.SaltAmountKg = salt.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
