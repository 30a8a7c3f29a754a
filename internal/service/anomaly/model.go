package anomaly

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes features to zero mean and unit variance using
// parameters fitted on training data. It is persisted alongside the forest:
// a model scored on unscaled input is meaningless, so the two only ever load
// as a unit.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

func fitScaler(rows [][]float64) *StandardScaler {
	if len(rows) == 0 {
		return &StandardScaler{}
	}
	dim := len(rows[0])
	sc := &StandardScaler{
		Means: make([]float64, dim),
		Stds:  make([]float64, dim),
	}
	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		sc.Means[j] = stat.Mean(col, nil)
		sc.Stds[j] = stat.PopStdDev(col, nil)
		if sc.Stds[j] == 0 {
			sc.Stds[j] = 1
		}
	}
	return sc
}

// Transform standardizes one feature vector.
func (sc *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(sc.Means) {
		return nil, fmt.Errorf("feature dimension mismatch: got %d, scaler fitted on %d", len(x), len(sc.Means))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - sc.Means[i]) / sc.Stds[i]
	}
	return out, nil
}

// treeNode is one node of an isolation tree. External nodes keep the size of
// the training subset that reached them for the average-path-length
// correction.
type treeNode struct {
	SplitFeature int       `json:"f,omitempty"`
	SplitValue   float64   `json:"v,omitempty"`
	Left         *treeNode `json:"l,omitempty"`
	Right        *treeNode `json:"r,omitempty"`
	Size         int       `json:"n,omitempty"`
}

// IsolationForest is a compact isolation forest: anomalies isolate in fewer
// random splits, so short average path lengths score as outliers. The raw
// decision value mirrors the usual convention of 0.5 − anomalyScore, giving
// values in roughly [−0.5, 0.5] with more negative meaning more anomalous.
type IsolationForest struct {
	Trees     []*treeNode `json:"trees"`
	SubSample int         `json:"sub_sample"`
}

const (
	forestTrees     = 100
	forestSubSample = 256
)

func fitForest(rows [][]float64, rng *rand.Rand) *IsolationForest {
	psi := forestSubSample
	if psi > len(rows) {
		psi = len(rows)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(psi) + 1)))

	f := &IsolationForest{
		Trees:     make([]*treeNode, forestTrees),
		SubSample: psi,
	}
	for t := 0; t < forestTrees; t++ {
		sub := make([][]float64, psi)
		for i := range sub {
			sub[i] = rows[rng.Intn(len(rows))]
		}
		f.Trees[t] = buildTree(sub, 0, maxDepth, rng)
	}
	return f
}

func buildTree(rows [][]float64, depth, maxDepth int, rng *rand.Rand) *treeNode {
	if depth >= maxDepth || len(rows) <= 1 {
		return &treeNode{Size: len(rows)}
	}

	dim := len(rows[0])
	feature := rng.Intn(dim)

	lo, hi := rows[0][feature], rows[0][feature]
	for _, row := range rows {
		if row[feature] < lo {
			lo = row[feature]
		}
		if row[feature] > hi {
			hi = row[feature]
		}
	}
	if hi == lo {
		return &treeNode{Size: len(rows)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, row := range rows {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &treeNode{
		SplitFeature: feature,
		SplitValue:   split,
		Left:         buildTree(left, depth+1, maxDepth, rng),
		Right:        buildTree(right, depth+1, maxDepth, rng),
	}
}

// pathLength follows x down a tree, adding the average-path correction at
// external nodes holding more than one training point.
func pathLength(node *treeNode, x []float64, depth float64) float64 {
	if node.Left == nil && node.Right == nil {
		return depth + avgPathLength(node.Size)
	}
	if x[node.SplitFeature] < node.SplitValue {
		return pathLength(node.Left, x, depth+1)
	}
	return pathLength(node.Right, x, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n points.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649 // harmonic number approximation
	return 2*h - 2*float64(n-1)/float64(n)
}

// Decision returns the raw decision value for a standardized vector: more
// negative means more anomalous.
func (f *IsolationForest) Decision(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range f.Trees {
		sum += pathLength(tree, x, 0)
	}
	avg := sum / float64(len(f.Trees))
	score := math.Pow(2, -avg/avgPathLength(f.SubSample))
	return 0.5 - score
}
