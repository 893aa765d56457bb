package stats

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    int
		want float64
	}{
		{0, 1},
		{50, 6},
		{95, 10},
		{100, 10},
	}
	for _, tt := range tests {
		if got := Percentile(sorted, tt.p); got != tt.want {
			t.Errorf("Percentile(%d) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("Percentile(nil) = %v, want 0", got)
	}
}

func TestMeanVariance(t *testing.T) {
	mean, variance := MeanVariance([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(variance-4) > 1e-9 {
		t.Errorf("variance = %v, want 4", variance)
	}

	mean, variance = MeanVariance(nil)
	if mean != 0 || variance != 0 {
		t.Errorf("MeanVariance(nil) = (%v, %v), want (0, 0)", mean, variance)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(12, 0, 10); got != 10 {
		t.Errorf("Clamp(12) = %v", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1) = %v", got)
	}
	if got := Clamp(3.5, 0, 10); got != 3.5 {
		t.Errorf("Clamp(3.5) = %v", got)
	}
}

func TestRound(t *testing.T) {
	if got := Round(1.23456, 2); got != 1.23 {
		t.Errorf("Round() = %v, want 1.23", got)
	}
}
