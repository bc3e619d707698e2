// Package model owns the trained artifacts and the two-stage inference
// algorithm: a decision classifier that gates a salt-amount regressor. The
// unit of persistence is the Bundle, five artifacts written and read together
// under one path prefix.
package model

import (
	"gritcast/internal/features"
	"gritcast/internal/forest"
	"gritcast/internal/types"
)

// Encoders is the categorical encoder set frozen into a bundle at training
// time. There is currently one: the precipitation type encoder.
type Encoders struct {
	Precip *features.LabelEncoder `json:"precipitation_type"`
}

// Bundle is the atomic set of artifacts needed to perform inference:
// both fitted models, the frozen encoders, the feature column contract the
// models were fit against, and a snapshot of the route lookup taken at
// training time. Once loaded, a Bundle is immutable and safe for concurrent
// read-only use.
type Bundle struct {
	Decision    *forest.Forest         `json:"-"`
	Amount      *forest.Forest         `json:"-"`
	Encoders    Encoders               `json:"-"`
	FeatureCols []string               `json:"-"`
	Routes      map[string]types.Route `json:"-"`
}

// Lookup implements features.RouteLookup over the route snapshot, so a
// Predictor can operate standalone from a bundle with no live route source.
func (b *Bundle) Lookup(routeID string) (types.Route, bool) {
	r, ok := b.Routes[routeID]
	return r, ok
}
