package forecast

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ForestConfig controls random-forest training.
type ForestConfig struct {
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           int64
	Workers        int
}

// Forest is an ensemble of regression trees fitted on bootstrap samples.
// It is read-only once trained.
type Forest struct {
	trees    []*node
	features int
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

// TrainForest fits cfg.Trees CART trees. Tree i draws its bootstrap sample from
// seed cfg.Seed+i, so the result is independent of worker scheduling.
func TrainForest(ctx context.Context, x [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errors.New("forest: empty or mismatched training set")
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("forest: trees must be positive, got %d", cfg.Trees)
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	f := &Forest{trees: make([]*node, cfg.Trees), features: len(x[0])}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Trees; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			idx := make([]int, len(y))
			for k := range idx {
				idx[k] = rng.Intn(len(y))
			}
			b := builder{x: x, y: y, maxDepth: cfg.MaxDepth, minLeaf: cfg.MinSamplesLeaf}
			f.trees[i] = b.build(idx, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forest: %w", err)
	}
	return f, nil
}

// Predict averages the per-tree predictions for one feature row.
func (f *Forest) Predict(row []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

func (f *Forest) Size() int { return len(f.trees) }

func (n *node) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type builder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
}

func (b *builder) build(idx []int, depth int) *node {
	mean, pure := b.stats(idx)
	if pure || len(idx) < 2*b.minLeaf || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return &node{leaf: true, value: mean}
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return &node{leaf: true, value: mean}
	}
	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

// stats returns the mean target and whether every target is identical.
func (b *builder) stats(idx []int) (float64, bool) {
	first := b.y[idx[0]]
	pure := true
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
		if b.y[i] != first {
			pure = false
		}
	}
	if pure {
		return first, true
	}
	return sum / float64(len(idx)), false
}

// bestSplit minimizes the summed squared error of the two children over every
// feature and every boundary between distinct feature values.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	order := make([]int, n)
	bestSSE := 0.0
	bestFeature, bestThreshold, found := -1, 0.0, false

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}

	for feat := 0; feat < len(b.x[idx[0]]); feat++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool { return b.x[order[a]][feat] < b.x[order[c]][feat] })

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			yi := b.y[order[k]]
			leftSum += yi
			leftSq += yi * yi
			nl := k + 1
			nr := n - nl
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			cur, next := b.x[order[k]][feat], b.x[order[k+1]][feat]
			if cur == next {
				continue
			}
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if !found || sse < bestSSE {
				bestSSE = sse
				bestFeature = feat
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
