package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		wantOK bool
	}{
		{name: "empty", values: nil, want: 0, wantOK: false},
		{name: "single", values: []float64{42}, want: 42, wantOK: true},
		{name: "several", values: []float64{1, 2, 3, 4}, want: 2.5, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Mean(tt.values)
			if ok != tt.wantOK {
				t.Fatalf("Mean(%v) ok = %v, want %v", tt.values, ok, tt.wantOK)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("Mean(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{name: "middle odd", values: []float64{3, 1, 2}, q: 0.5, want: 2},
		{name: "middle even picks an observed value", values: []float64{1, 2, 3, 4}, q: 0.5, want: 3},
		{name: "q1 odd", values: []float64{1, 2, 3, 4, 5}, q: 0.25, want: 2},
		{name: "q3 odd", values: []float64{1, 2, 3, 4, 5}, q: 0.75, want: 4},
		{name: "q1 even rounds up", values: []float64{2000, 3000, 4000, 5000}, q: 0.25, want: 3000},
		{name: "q3 even rounds down", values: []float64{2000, 3000, 4000, 5000}, q: 0.75, want: 4000},
		{name: "min", values: []float64{5, 1, 3}, q: 0, want: 1},
		{name: "max", values: []float64{5, 1, 3}, q: 1, want: 5},
		{name: "single value", values: []float64{7}, q: 0.75, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quantile(tt.values, tt.q)
			if !ok {
				t.Fatalf("Quantile(%v, %v) not ok", tt.values, tt.q)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("Quantile(%v, %v) = %v, want %v", tt.values, tt.q, got, tt.want)
			}
		})
	}
}

func TestMedian(t *testing.T) {
	// Unlike Quantile, the median interpolates: an even-length slice
	// yields the midpoint of the two middle values.
	if got, ok := Median([]float64{3, 1, 2}); !ok || got != 2 {
		t.Errorf("Median(odd) = %v ok=%v, want 2", got, ok)
	}
	if got, ok := Median([]float64{1, 2, 3, 4}); !ok || got != 2.5 {
		t.Errorf("Median(even) = %v ok=%v, want 2.5", got, ok)
	}
}

func TestQuantile_Empty(t *testing.T) {
	if _, ok := Quantile(nil, 0.5); ok {
		t.Error("expected ok=false for empty input")
	}
	if _, ok := Median(nil); ok {
		t.Error("expected ok=false for empty input")
	}
}

func TestQuantile_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	if _, ok := Quantile(values, 0.5); !ok {
		t.Fatal("Quantile not ok")
	}
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input mutated: %v", values)
	}
}

func TestMinMax(t *testing.T) {
	values := []float64{4, -1, 7, 0}
	if got, ok := Min(values); !ok || got != -1 {
		t.Errorf("Min = %v ok=%v", got, ok)
	}
	if got, ok := Max(values); !ok || got != 7 {
		t.Errorf("Max = %v ok=%v", got, ok)
	}
	if _, ok := Min(nil); ok {
		t.Error("Min(nil) should not be ok")
	}
}
