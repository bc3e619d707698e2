package model

import (
	"math"
	"sync"
	"time"

	"gritcast/internal/features"
	"gritcast/internal/types"
)

// Predictor runs the two-stage inference algorithm against a loaded bundle.
// The bundle is read-only after construction, so one Predictor serves any
// number of concurrent callers.
type Predictor struct {
	bundle  *Bundle
	builder *features.Builder
	now     func() time.Time
}

// NewPredictor constructs a Predictor over the given bundle. When routes is
// nil the bundle's route snapshot serves lookups, which is how the standalone
// (no live route source) deployment operates. Fails with a models-not-loaded
// error if the bundle is nil.
func NewPredictor(bundle *Bundle, routes features.RouteLookup) (*Predictor, error) {
	if bundle == nil {
		return nil, types.ErrModelsNotLoaded(nil)
	}
	if routes == nil {
		routes = bundle
	}
	return &Predictor{
		bundle:  bundle,
		builder: features.NewBuilder(routes),
		now:     time.Now,
	}, nil
}

// Predict produces the full decision-support output for one route under one
// weather observation.
//
// The decision threshold is strictly greater than 0.5: a classifier output of
// exactly 0.5 means "no". Confidence is always the probability of the chosen
// class. The amount regressor runs only when the decision is "yes"; on "no"
// all three derived quantities are exactly zero.
func (p *Predictor) Predict(routeID string, weather types.WeatherObservation) (types.PredictionResult, error) {
	rec, err := p.builder.Build(routeID, weather)
	if err != nil {
		return types.PredictionResult{}, err
	}

	vec, err := rec.Vector(p.bundle.Encoders.Precip)
	if err != nil {
		return types.PredictionResult{}, err
	}
	x := vec.Values()

	pGrit := p.bundle.Decision.Predict(x)
	grit := pGrit > 0.5

	confidence := pGrit
	if !grit {
		confidence = 1 - pGrit
	}
	confidence = math.Round(confidence*1000) / 1000

	result := types.PredictionResult{
		RouteID:        rec.Route.ID,
		RouteName:      rec.Route.Name,
		Decision:       types.DecisionNoGrit,
		Confidence:     confidence,
		IceRisk:        rec.IceRisk,
		SnowRisk:       rec.SnowRisk,
		Recommendation: Recommendation(types.DecisionNoGrit, rec),
		GeneratedAt:    p.now().UTC(),
	}

	if grit {
		saltKg := int(p.bundle.Amount.Predict(x)) // truncated, not rounded

		result.Decision = types.DecisionGrit
		result.SaltAmountKg = saltKg
		// Legacy spread-rate arithmetic, preserved verbatim: grams of salt
		// over route length in meters, scaled by 1000. Dimensionally odd but
		// load-bearing for downstream consumers.
		result.SpreadRateGM2 = int(float64(saltKg) / (rec.Route.LengthKm * 1000) * 1000)
		// ~3 km per 10 minutes of truck travel plus 5 minutes setup.
		result.EstimatedMinutes = int(rec.Route.LengthKm/3*10) + 5
		result.Recommendation = Recommendation(types.DecisionGrit, rec)
	}

	return result, nil
}

// LazyPredictor is the initialize-once wrapper owned by the composition root.
// The first Predict (or Get) call loads the bundle from the store; concurrent
// first-calls are serialized by the mutex, and a successful load is reused by
// every subsequent call. A failed load is not cached, so the operator can
// drop a bundle in place and the next request will pick it up.
type LazyPredictor struct {
	mu     sync.Mutex
	store  *Store
	routes features.RouteLookup
	pred   *Predictor
}

// NewLazyPredictor wraps a Store and an optional live route lookup (nil means
// predictions use each bundle's route snapshot).
func NewLazyPredictor(store *Store, routes features.RouteLookup) *LazyPredictor {
	return &LazyPredictor{store: store, routes: routes}
}

// Get returns the shared Predictor, loading the bundle on first use.
func (l *LazyPredictor) Get() (*Predictor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pred != nil {
		return l.pred, nil
	}

	bundle, err := l.store.Load()
	if err != nil {
		return nil, err
	}
	pred, err := NewPredictor(bundle, l.routes)
	if err != nil {
		return nil, err
	}

	l.pred = pred
	return l.pred, nil
}

// Predict loads the bundle if needed and runs inference.
func (l *LazyPredictor) Predict(routeID string, weather types.WeatherObservation) (types.PredictionResult, error) {
	pred, err := l.Get()
	if err != nil {
		return types.PredictionResult{}, err
	}
	return pred.Predict(routeID, weather)
}

// Loaded reports whether a bundle is already in memory.
func (l *LazyPredictor) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pred != nil
}
