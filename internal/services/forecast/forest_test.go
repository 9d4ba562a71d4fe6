package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestForestFitsStepFunction(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 100; i++ {
		x = append(x, []float64{float64(i)})
		if i < 50 {
			y = append(y, 10)
		} else {
			y = append(y, 20)
		}
	}
	f, err := TrainForest(context.Background(), x, y, ForestConfig{Trees: 25, MaxDepth: 4, Seed: 7, Workers: 3})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if f.Size() != 25 {
		t.Fatalf("expected 25 trees, got %d", f.Size())
	}
	if got := f.Predict([]float64{10}); math.Abs(got-10) > 0.5 {
		t.Fatalf("left side predicted %v", got)
	}
	if got := f.Predict([]float64{90}); math.Abs(got-20) > 0.5 {
		t.Fatalf("right side predicted %v", got)
	}
}

func TestForestIndependentOfWorkers(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		x = append(x, []float64{float64(i), float64(i % 12)})
		y = append(y, float64(i*i%97))
	}
	a, _ := TrainForest(context.Background(), x, y, ForestConfig{Trees: 30, MaxDepth: 6, Seed: 42, Workers: 1})
	b, _ := TrainForest(context.Background(), x, y, ForestConfig{Trees: 30, MaxDepth: 6, Seed: 42, Workers: 8})
	for _, row := range [][]float64{{3, 3}, {31, 7}, {70, 10}} {
		if a.Predict(row) != b.Predict(row) {
			t.Fatalf("prediction depends on worker count at %v", row)
		}
	}
}

func TestForestRejectsBadInput(t *testing.T) {
	if _, err := TrainForest(context.Background(), nil, nil, ForestConfig{Trees: 1}); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := TrainForest(context.Background(), [][]float64{{1}}, []float64{1}, ForestConfig{}); err == nil {
		t.Fatalf("expected error for zero trees")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := TrainForest(ctx, [][]float64{{1}, {2}}, []float64{1, 2}, ForestConfig{Trees: 4})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
