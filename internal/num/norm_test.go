package num

import (
	"math"
	"testing"
)

func TestNormCDFReferenceValues(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 0.5},
		{1, 0.8413447460685429},
		{-1, 0.15865525393145707},
		{2, 0.9772498680518208},
		{-2, 0.02275013194817921},
		{6, 0.9999999990134123},
	}
	for _, tt := range tests {
		got := NormCDF(tt.x)
		if math.Abs(got-tt.want) >= 1e-9 {
			t.Fatalf("NormCDF(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestNormCDFSaturatesTails(t *testing.T) {
	if NormCDF(6.5) != 1 {
		t.Fatal("upper tail must saturate to 1")
	}
	if NormCDF(-6.5) != 0 {
		t.Fatal("lower tail must saturate to 0")
	}
}

func TestNormPDFSymmetry(t *testing.T) {
	if math.Abs(NormPDF(0)-1/math.Sqrt(2*math.Pi)) >= 1e-12 {
		t.Fatal("density at zero off")
	}
	for _, x := range []float64{0.5, 1, 2, 3} {
		if NormPDF(x) != NormPDF(-x) {
			t.Fatalf("density not symmetric at %v", x)
		}
	}
}

func TestAxisIndex(t *testing.T) {
	axis := []float64{1, 2, 4, 8}

	tests := []struct {
		x     float64
		index int
		w     float64
	}{
		{0.5, 0, 0},
		{1, 0, 0},
		{1.5, 0, 0.5},
		{3, 1, 0.5},
		{8, 2, 1},
		{9, 2, 1},
	}
	for _, tt := range tests {
		i, w := AxisIndex(axis, tt.x)
		if i != tt.index || math.Abs(w-tt.w) >= 1e-12 {
			t.Fatalf("AxisIndex(%v) = (%d, %v), want (%d, %v)", tt.x, i, w, tt.index, tt.w)
		}
	}
}

func TestAxisIndexDegenerateAxes(t *testing.T) {
	if i, w := AxisIndex(nil, 3); i != 0 || w != 0 {
		t.Fatal("empty axis must pin to origin")
	}
	if i, w := AxisIndex([]float64{5}, 3); i != 0 || w != 0 {
		t.Fatal("single-point axis must pin to origin")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 1) != 1 || Clamp(-5, 0, 1) != 0 || Clamp(0.5, 0, 1) != 0.5 {
		t.Fatal("clamp bounds wrong")
	}
}
