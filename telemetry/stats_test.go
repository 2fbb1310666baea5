package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	values := []float64{9, 1, 8, 2, 7, 3, 6, 4, 5, 10}
	s := Summarize(values)

	if s.Count != 10 || s.Min != 1 || s.Max != 10 {
		t.Errorf("count/min/max = %d/%v/%v, want 10/1/10", s.Count, s.Min, s.Max)
	}
	if math.Abs(s.Mean-5.5) > 0.001 {
		t.Errorf("mean = %v, want 5.5", s.Mean)
	}
	// Sample std of 1..10
	if math.Abs(s.Std-3.0277) > 0.001 {
		t.Errorf("std = %v, want ~3.0277", s.Std)
	}
	if math.Abs(s.P10-1.9) > 0.01 || math.Abs(s.P50-5.5) > 0.01 || math.Abs(s.P90-9.1) > 0.01 {
		t.Errorf("percentiles = %v/%v/%v, want 1.9/5.5/9.1", s.P10, s.P50, s.P90)
	}
	// Input left unsorted
	if values[0] != 9 {
		t.Error("Summarize sorted its input")
	}
}

func TestSummarizeSmall(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", s)
	}
	s := Summarize([]float64{4})
	if s.Mean != 4 || s.Std != 0 || s.Min != 4 || s.Max != 4 {
		t.Errorf("Summarize([4]) = %+v", s)
	}
}
