package heatpump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 入力画面の既定の校正点
var (
	defaultVolumetricPoints = []CalibrationPoint{{0, 0.4}, {4, 0.85}, {7, 0.6}, {10, 0.25}}
	defaultIsentropicPoints = []CalibrationPoint{{0, 0.7}, {4, 0.8}, {7, 0.6}, {10, 0.25}}
)

func TestFitPolynomial_InterpolatesWhenSquare(t *testing.T) {
	for _, pts := range [][]CalibrationPoint{defaultVolumetricPoints, defaultIsentropicPoints} {
		c, err := FitPolynomial(pts, 3)
		require.NoError(t, err)
		require.Len(t, c, 4)
		assert.Equal(t, 3, c.Degree())
		for _, p := range pts {
			assert.InDelta(t, p.Efficiency, c.Evaluate(p.Ratio), 1e-9, "ratio %g", p.Ratio)
		}
		assert.InDelta(t, 1.0, c.RSquared(pts), 1e-12)
	}
}

func TestFitPolynomial_CoefficientOrder(t *testing.T) {
	// y = 2x^2 - 3x + 1
	pts := []CalibrationPoint{{-1, 6}, {0, 1}, {1, 0}, {2, 3}, {3, 10}}
	c, err := FitPolynomial(pts, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, -3, 1}, []float64(c), 1e-9)
}

func TestFitPolynomial_LeastSquares(t *testing.T) {
	// 直線に対称な残差: 最小二乗解は y = x
	pts := []CalibrationPoint{{0, 0.1}, {1, 0.9}, {2, 2.1}, {3, 2.9}}
	c, err := FitPolynomial(pts, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.96, c[0], 1e-9)
	assert.InDelta(t, 0.06, c[1], 1e-9)
	assert.Less(t, c.RSquared(pts), 1.0)
	assert.Greater(t, c.RSquared(pts), 0.98)
}

func TestFitPolynomial_ConstantIsMean(t *testing.T) {
	c, err := FitPolynomial([]CalibrationPoint{{1, 0.5}, {2, 0.7}, {3, 0.6}}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, c.Evaluate(100), 1e-12)
}

func TestFitPolynomial_Errors(t *testing.T) {
	tests := []struct {
		name   string
		points []CalibrationPoint
		degree int
		want   error
	}{
		{"too few points", defaultVolumetricPoints, 4, ErrUnderdeterminedFit},
		{"no points", nil, 0, ErrUnderdeterminedFit},
		{"negative degree", defaultVolumetricPoints, -1, ErrInvalidParameters},
		{"repeated ratio", []CalibrationPoint{{1, 0.5}, {1, 0.6}, {2, 0.7}}, 2, ErrInvalidParameters},
		{"not finite", []CalibrationPoint{{1, 0.5}, {nan(), 0.6}}, 1, ErrInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitPolynomial(tt.points, tt.degree)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPolynomial_Evaluate(t *testing.T) {
	p := Polynomial{1, 0, -2, 5} // x^3 - 2x + 5
	assert.Equal(t, 5.0, p.Evaluate(0))
	assert.Equal(t, 4.0, p.Evaluate(1))
	assert.Equal(t, 9.0, p.Evaluate(2))
	assert.Equal(t, []float64{5, 4, 9}, p.EvaluateAll([]float64{0, 1, 2}))
	assert.Equal(t, 0.0, Polynomial{}.Evaluate(3))
}

func TestPolynomial_Sample(t *testing.T) {
	s := Polynomial{1, 0}.Sample(0, 10, 11)
	require.Len(t, s, 11)
	assert.Equal(t, CalibrationPoint{0, 0}, s[0])
	assert.InDelta(t, 10.0, s[10].Ratio, 1e-12)
	assert.InDelta(t, 10.0, s[10].Efficiency, 1e-12)
}
