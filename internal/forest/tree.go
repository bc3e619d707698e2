package forest

import (
	"math/rand"
	"sort"
)

// Node is one decision-tree node. Trees are persisted as part of the model
// bundle, so the structure is JSON-serializable: internal nodes carry a
// feature index and threshold, leaves carry the mean target of the samples
// that reached them (which for binary labels is the positive-class fraction).
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      *Node   `json:"l,omitempty"`
	Right     *Node   `json:"r,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"v"`
}

// predict walks the tree for one feature vector. Samples with feature value
// <= threshold go left.
func (n *Node) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// buildTree grows one CART tree on the given sample indices. The split
// criterion is weighted variance reduction; for 0/1 labels this is
// proportional to Gini impurity, so the same routine serves both the
// classifier and the regressor.
func buildTree(xs [][]float64, ys []float64, idx []int, depth int, p Params, rng *rand.Rand) *Node {
	mean := meanTarget(ys, idx)

	if depth >= p.MaxDepth || len(idx) < p.MinSamplesSplit || isPure(ys, idx) {
		return &Node{Leaf: true, Value: mean}
	}

	feature, threshold, ok := bestSplit(xs, ys, idx, p, rng)
	if !ok {
		return &Node{Leaf: true, Value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if xs[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &Node{Leaf: true, Value: mean}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(xs, ys, left, depth+1, p, rng),
		Right:     buildTree(xs, ys, right, depth+1, p, rng),
	}
}

// bestSplit searches a random feature subset for the split minimizing the
// weighted sum of child variances. Returns ok=false when no split improves
// on the parent (e.g., all candidate features are constant).
func bestSplit(xs [][]float64, ys []float64, idx []int, p Params, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	numFeatures := len(xs[idx[0]])
	candidates := sampleFeatures(numFeatures, p.MaxFeatures, rng)

	bestScore := parentScore(ys, idx)
	found := false

	// Reused per-feature scratch: sample indices ordered by feature value.
	order := make([]int, len(idx))

	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return xs[order[a]][f] < xs[order[b]][f]
		})

		// Walk split points left to right, maintaining running sums so each
		// candidate threshold is evaluated in O(1).
		var leftSum, leftSq float64
		totalSum, totalSq := sums(ys, idx)
		n := float64(len(idx))

		for i := 0; i < len(order)-1; i++ {
			y := ys[order[i]]
			leftSum += y
			leftSq += y * y

			// Can't split between equal feature values.
			if xs[order[i]][f] == xs[order[i+1]][f] {
				continue
			}

			nl := float64(i + 1)
			nr := n - nl
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq

			// Weighted child variance: sum over children of
			// (sum(y^2) - sum(y)^2/n_child).
			score := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if score < bestScore-1e-12 {
				bestScore = score
				feature = f
				threshold = (xs[order[i]][f] + xs[order[i+1]][f]) / 2
				found = true
			}
		}
	}

	return feature, threshold, found
}

// parentScore is the unsplit node's impurity on the same scale bestSplit
// uses: sum(y^2) - sum(y)^2/n.
func parentScore(ys []float64, idx []int) float64 {
	sum, sq := sums(ys, idx)
	return sq - sum*sum/float64(len(idx))
}

func sums(ys []float64, idx []int) (sum, sq float64) {
	for _, i := range idx {
		sum += ys[i]
		sq += ys[i] * ys[i]
	}
	return sum, sq
}

func meanTarget(ys []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += ys[i]
	}
	return sum / float64(len(idx))
}

func isPure(ys []float64, idx []int) bool {
	first := ys[idx[0]]
	for _, i := range idx[1:] {
		if ys[i] != first {
			return false
		}
	}
	return true
}

// sampleFeatures picks maxFeatures distinct feature indices without
// replacement. maxFeatures <= 0 selects all features.
func sampleFeatures(numFeatures, maxFeatures int, rng *rand.Rand) []int {
	if maxFeatures <= 0 || maxFeatures >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}

	perm := rng.Perm(numFeatures)
	return perm[:maxFeatures]
}
