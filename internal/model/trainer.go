package model

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"gritcast/internal/features"
	"gritcast/internal/forest"
	"gritcast/internal/risk"
	"gritcast/internal/types"
)

// splitSeed fixes the train/test shuffles so metric reports are reproducible
// run to run.
const splitSeed = 42

// Metrics summarizes a training run.
type Metrics struct {
	TrainingRows     int     `json:"training_rows"`
	GrittedRows      int     `json:"gritted_rows"`
	DecisionAccuracy float64 `json:"decision_accuracy"`
	AmountR2         float64 `json:"amount_r2"`
}

// Train fits both models from historical gritting records and returns the
// resulting bundle plus held-out metrics.
//
// The precipitation encoder is always refit on the sanitized historical
// vocabulary, never reused from a prior bundle. The decision classifier is
// fit on all rows with an 80/20 stratified split for the accuracy estimate;
// the amount regressor is fit only on rows where gritting actually happened
// (ungritted rows carry no meaningful salt amount), with an 80/20 plain split
// for R².
func Train(rows []types.TrainingRow, routes map[string]types.Route) (*Bundle, Metrics, error) {
	if len(rows) == 0 {
		return nil, Metrics{}, fmt.Errorf("training requires at least one historical row")
	}

	// Refit the encoder on the full historical vocabulary.
	vocab := make([]string, 0, len(rows))
	for _, row := range rows {
		vocab = append(vocab, string(risk.SanitizePrecip(row.Weather.PrecipitationType)))
	}
	encoder := features.NewLabelEncoder(vocab)

	// Build the feature matrix. Every historical row must join to a known
	// route; a dangling route id means the training extract is inconsistent.
	xs := make([][]float64, 0, len(rows))
	labels := make([]float64, 0, len(rows))
	amounts := make([]float64, 0, len(rows))
	for _, row := range rows {
		route, ok := routes[row.RouteID]
		if !ok {
			return nil, Metrics{}, types.ErrRouteNotFound(row.RouteID)
		}

		vec, err := features.Derive(route, row.Weather).Vector(encoder)
		if err != nil {
			return nil, Metrics{}, err
		}

		xs = append(xs, vec.Values())
		if row.Gritted {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
		amounts = append(amounts, row.SaltAmountKg)
	}

	rng := rand.New(rand.NewSource(splitSeed))

	// Decision classifier: stratified 80/20 split, fit on train, score on test.
	trainIdx, testIdx := stratifiedSplit(labels, 0.2, rng)
	decision, err := forest.Fit(gather(xs, trainIdx), gatherF(labels, trainIdx), forest.ClassifierParams(features.NumFeatures))
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("fitting decision classifier: %w", err)
	}
	accuracy := classifierAccuracy(decision, xs, labels, testIdx)

	// Amount regressor: gritted rows only, plain 80/20 split.
	var grittedIdx []int
	for i, label := range labels {
		if label == 1 {
			grittedIdx = append(grittedIdx, i)
		}
	}
	if len(grittedIdx) == 0 {
		return nil, Metrics{}, fmt.Errorf("training requires at least one gritted row for the amount regressor")
	}

	gTrain, gTest := plainSplit(grittedIdx, 0.2, rng)
	amount, err := forest.Fit(gather(xs, gTrain), gatherF(amounts, gTrain), forest.RegressorParams())
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("fitting amount regressor: %w", err)
	}
	r2 := regressorR2(amount, xs, amounts, gTest)

	snapshot := make(map[string]types.Route, len(routes))
	for id, r := range routes {
		snapshot[id] = r
	}

	bundle := &Bundle{
		Decision:    decision,
		Amount:      amount,
		Encoders:    Encoders{Precip: encoder},
		FeatureCols: features.ColumnList(),
		Routes:      snapshot,
	}

	metrics := Metrics{
		TrainingRows:     len(rows),
		GrittedRows:      len(grittedIdx),
		DecisionAccuracy: accuracy,
		AmountR2:         r2,
	}

	return bundle, metrics, nil
}

// stratifiedSplit partitions row indices into train/test, preserving the
// label balance: each class is shuffled and split independently.
func stratifiedSplit(labels []float64, testFrac float64, rng *rand.Rand) (train, test []int) {
	byClass := map[float64][]int{}
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}

	// Deterministic class order (binary labels only).
	for _, class := range []float64{0, 1} {
		idx := byClass[class]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		cut := int(float64(len(idx)) * testFrac)
		test = append(test, idx[:cut]...)
		train = append(train, idx[cut:]...)
	}
	return train, test
}

// plainSplit shuffles the given indices and splits off the test fraction.
func plainSplit(idx []int, testFrac float64, rng *rand.Rand) (train, test []int) {
	shuffled := make([]int, len(idx))
	copy(shuffled, idx)
	rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

	cut := int(float64(len(shuffled)) * testFrac)
	return shuffled[cut:], shuffled[:cut]
}

// classifierAccuracy scores the decision model on the held-out rows. With too
// little data for a test split it falls back to scoring the full set, which
// overstates accuracy but keeps the metric defined.
func classifierAccuracy(f *forest.Forest, xs [][]float64, labels []float64, testIdx []int) float64 {
	if len(testIdx) == 0 {
		testIdx = make([]int, len(labels))
		for i := range testIdx {
			testIdx[i] = i
		}
	}

	correct := 0
	for _, i := range testIdx {
		predicted := 0.0
		if f.Predict(xs[i]) > 0.5 {
			predicted = 1.0
		}
		if predicted == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(testIdx))
}

// regressorR2 computes the coefficient of determination on the held-out rows.
func regressorR2(f *forest.Forest, xs [][]float64, amounts []float64, testIdx []int) float64 {
	if len(testIdx) == 0 {
		return 0
	}

	estimates := make([]float64, len(testIdx))
	values := make([]float64, len(testIdx))
	for k, i := range testIdx {
		estimates[k] = f.Predict(xs[i])
		values[k] = amounts[i]
	}
	return stat.RSquaredFrom(estimates, values, nil)
}

func gather(xs [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		out[k] = xs[i]
	}
	return out
}

func gatherF(vs []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = vs[i]
	}
	return out
}
