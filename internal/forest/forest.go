// Package forest implements the bagged decision-tree ensembles used for the
// gritting decision classifier and the salt amount regressor. Both models are
// forests of CART trees grown on bootstrap samples with a fixed seed, so a
// given training set always produces the same trees and the same predictions.
//
// Trees are grown concurrently, one goroutine per tree, with each tree's
// random stream derived deterministically from the forest seed. Parallelism
// therefore never changes the fitted model.
package forest

import (
	"errors"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Defaults shared by both models.
const (
	DefaultNumTrees        = 100
	DefaultMaxDepth        = 10
	DefaultMinSamplesSplit = 5
	DefaultSeed            = 42
)

// perTreeSeedStride separates the random streams of sibling trees. Any odd
// multiplier works; this one keeps streams far apart for realistic tree counts.
const perTreeSeedStride = 1000003

// Params configures forest growth.
type Params struct {
	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	Seed            int64 `json:"seed"`

	// MaxFeatures is the number of features considered per split.
	// <= 0 means all features.
	MaxFeatures int `json:"max_features"`
}

// ClassifierParams returns the fixed configuration for the decision
// classifier: sqrt(numFeatures) features per split.
func ClassifierParams(numFeatures int) Params {
	return Params{
		NumTrees:        DefaultNumTrees,
		MaxDepth:        DefaultMaxDepth,
		MinSamplesSplit: DefaultMinSamplesSplit,
		Seed:            DefaultSeed,
		MaxFeatures:     int(math.Sqrt(float64(numFeatures))),
	}
}

// RegressorParams returns the fixed configuration for the amount regressor:
// all features considered at every split.
func RegressorParams() Params {
	return Params{
		NumTrees:        DefaultNumTrees,
		MaxDepth:        DefaultMaxDepth,
		MinSamplesSplit: DefaultMinSamplesSplit,
		Seed:            DefaultSeed,
	}
}

// Forest is a fitted ensemble. Predictions average the per-tree outputs; for
// a classifier trained on 0/1 labels the average is P(label == 1).
type Forest struct {
	Params Params  `json:"params"`
	Trees  []*Node `json:"trees"`
}

// Fit grows a forest on the given samples. xs rows must all have the same
// width and ys must be the same length as xs.
func Fit(xs [][]float64, ys []float64, p Params) (*Forest, error) {
	if len(xs) == 0 {
		return nil, errors.New("forest: no training samples")
	}
	if len(xs) != len(ys) {
		return nil, errors.New("forest: feature and target lengths differ")
	}
	width := len(xs[0])
	for _, row := range xs {
		if len(row) != width {
			return nil, errors.New("forest: ragged feature matrix")
		}
	}

	trees := make([]*Node, p.NumTrees)

	var g errgroup.Group
	for i := 0; i < p.NumTrees; i++ {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(p.Seed*perTreeSeedStride + int64(i)))
			idx := bootstrap(len(xs), rng)
			trees[i] = buildTree(xs, ys, idx, 0, p, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{Params: p, Trees: trees}, nil
}

// Predict returns the mean prediction over all trees.
func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees))
}

// bootstrap samples n indices with replacement.
func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}
